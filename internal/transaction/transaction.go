// Package transaction derives x-client-transaction-id values.
//
// A Session is created once per fetched home page and is immutable; its
// GenerateID may be called from any number of goroutines.
package transaction

import (
	"context"
	"io"
	"time"

	"github.com/kyupark/xctid/internal/animkey"
	"github.com/kyupark/xctid/internal/document"
	"github.com/kyupark/xctid/internal/frames"
	"github.com/kyupark/xctid/internal/keymaterial"
	"github.com/kyupark/xctid/internal/token"
	"github.com/kyupark/xctid/internal/txerr"
)

// Session is the key material derived from one home page.
type Session struct {
	Key            string
	KeyBytes       []byte
	RowIndex       int
	KeyByteIndices []int
	AnimationKey   string
}

// Option configures Create.
type Option func(*createOptions)

type createOptions struct {
	logf func(string, ...any)
}

// WithLogf sets a debug log sink.
func WithLogf(logf func(string, ...any)) Option {
	return func(o *createOptions) { o.logf = logf }
}

// Create derives a session from a home page. fetcher downloads the
// ondemand script the page references. Any failure is terminal for doc:
// the caller has to fetch a fresh home page to try again.
func Create(ctx context.Context, doc document.Document, fetcher keymaterial.Fetcher, opts ...Option) (*Session, error) {
	o := createOptions{logf: func(string, ...any) {}}
	for _, opt := range opts {
		opt(&o)
	}

	key, err := keymaterial.VerificationKey(doc)
	if err != nil {
		return nil, txerr.At(txerr.StageKey, err)
	}
	keyBytes, err := keymaterial.KeyBytes(key)
	if err != nil {
		return nil, txerr.At(txerr.StageKey, err)
	}
	o.logf("[session] verification key: %d bytes", len(keyBytes))

	x := &keymaterial.Extractor{Fetcher: fetcher, Logf: o.logf}
	idx, err := x.Indices(ctx, doc)
	if err != nil {
		return nil, txerr.At(txerr.StageIndices, err)
	}

	table, err := frames.Load(doc, keyBytes)
	if err != nil {
		return nil, txerr.At(txerr.StageFrames, err)
	}
	o.logf("[session] frame table: %d rows", len(table))

	animationKey, err := animkey.Synthesize(keyBytes, idx.Row, idx.KeyBytes, table)
	if err != nil {
		return nil, txerr.At(txerr.StageAnimation, err)
	}
	o.logf("[session] animation key: %s", animationKey)

	return &Session{
		Key:            key,
		KeyBytes:       keyBytes,
		RowIndex:       idx.Row,
		KeyByteIndices: idx.KeyBytes,
		AnimationKey:   animationKey,
	}, nil
}

// IDOption configures GenerateID.
type IDOption func(*idOptions)

type idOptions struct {
	timestamp *int64
	random    io.Reader
	clock     func() time.Time
}

// WithTimestamp fixes the token timestamp, in seconds since the
// protocol epoch.
func WithTimestamp(ts int64) IDOption {
	return func(o *idOptions) { o.timestamp = &ts }
}

// WithRandom sets the source of the mask byte.
func WithRandom(r io.Reader) IDOption {
	return func(o *idOptions) { o.random = r }
}

// WithClock sets the clock the default timestamp is read from.
func WithClock(now func() time.Time) IDOption {
	return func(o *idOptions) { o.clock = now }
}

// GenerateID returns the transaction id for a request.
func (s *Session) GenerateID(method, path string, opts ...IDOption) (string, error) {
	return generate(method, path, s.KeyBytes, s.AnimationKey, opts)
}

// GenerateID returns the transaction id for a request from the two
// stored session strings.
func GenerateID(method, path, key, animationKey string, opts ...IDOption) (string, error) {
	keyBytes, err := keymaterial.KeyBytes(key)
	if err != nil {
		return "", txerr.At(txerr.StageKey, err)
	}
	return generate(method, path, keyBytes, animationKey, opts)
}

func generate(method, path string, keyBytes []byte, animationKey string, opts []IDOption) (string, error) {
	o := idOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	ts := token.Now(o.clock())
	if o.timestamp != nil {
		ts = *o.timestamp
	}
	mask, err := token.Mask(o.random)
	if err != nil {
		return "", txerr.At(txerr.StageToken, err)
	}
	return token.Encode(method, path, keyBytes, animationKey, ts, mask), nil
}
