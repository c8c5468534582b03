// Package txerr defines the failure taxonomy of transaction-id derivation.
//
// Every failure is terminal for the session it occurred in. Callers match
// on the sentinels with errors.Is and read the stage from *StageError to
// tell a changed site apart from an unreachable one.
package txerr

import (
	"errors"
	"fmt"
)

var (
	ErrMissingKey             = errors.New("verification key not found")
	ErrInvalidKey             = errors.New("verification key is malformed")
	ErrMissingScriptReference = errors.New("ondemand script reference not found")
	ErrMissingIndices         = errors.New("key byte indices not found")
	ErrNoFrames               = errors.New("animation frames not found")
	ErrMissingPathData        = errors.New("frame path data not found")
	ErrInvalidFrameRow        = errors.New("invalid frame row")
	ErrLengthMismatch         = errors.New("vector length mismatch")
	ErrNetwork                = errors.New("network failure")
	ErrMalformedToken         = errors.New("malformed token")
)

// Stage names a step of the derivation pipeline.
type Stage string

const (
	StageHomePage  Stage = "homepage"
	StageKey       Stage = "key"
	StageIndices   Stage = "indices"
	StageFrames    Stage = "frames"
	StageAnimation Stage = "animation"
	StageToken     Stage = "token"
)

// StageError records which stage of a session failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// At wraps err with the stage it happened in. A nil err stays nil.
func At(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Network wraps a transport error so that it matches ErrNetwork while
// keeping the underlying cause reachable.
func Network(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, ErrNetwork, err)
}

// IsNetwork reports whether err was caused by a failed fetch rather than
// by unexpected site content.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// StageOf returns the stage recorded in err, or "" if there is none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
