package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "state.json"

// SessionState is a derived session persisted between invocations.
type SessionState struct {
	Key          string    `json:"key"`
	AnimationKey string    `json:"animation_key"`
	HomeURL      string    `json:"home_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Fresh reports whether s can still be used at now.
func (s *SessionState) Fresh(now time.Time, ttl time.Duration) bool {
	if s == nil || s.Key == "" || s.AnimationKey == "" {
		return false
	}
	return now.Sub(s.CreatedAt) < ttl
}

// State holds runtime state persisted across CLI invocations.
type State struct {
	Session *SessionState `json:"session,omitempty"`
}

// LoadState reads state, returning empty state if none is stored.
func LoadState() *State {
	s := &State{}
	data, err := os.ReadFile(StatePath())
	if err != nil {
		return s
	}
	_ = json.Unmarshal(data, s)
	return s
}

// SaveState writes state next to the config file.
func SaveState(s *State) error {
	return writeJSON(StatePath(), s)
}

// StatePath returns the path to the state file.
func StatePath() string {
	return filepath.Join(baseDir(), appName, stateFile)
}
