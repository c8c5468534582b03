package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Load()
	if cfg.UserAgent != DefaultUserAgent || cfg.Timeout != DefaultTimeout {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.HomeURL != "https://x.com" || cfg.Fingerprint != "chrome" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.TTL() != time.Hour {
		t.Errorf("TTL = %v", cfg.TTL())
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	in := &Config{UserAgent: "ua", Timeout: 5, SessionTTL: "10m", AuthToken: "a", Fingerprint: "firefox"}
	if err := Save(in); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "xctid", "config.json")); err != nil {
		t.Fatalf("config file: %v", err)
	}

	got := Load()
	want := &Config{UserAgent: "ua", Timeout: 5, SessionTTL: "10m", AuthToken: "a", Fingerprint: "firefox", HomeURL: "https://x.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if got.TTL() != 10*time.Minute {
		t.Errorf("TTL = %v", got.TTL())
	}
	if diff := cmp.Diff(map[string]string{"auth_token": "a"}, got.Cookies()); diff != "" {
		t.Errorf("cookies (-want +got):\n%s", diff)
	}
}

func TestBadTTLFallsBack(t *testing.T) {
	c := &Config{SessionTTL: "soon"}
	if c.TTL() != time.Hour {
		t.Errorf("TTL = %v", c.TTL())
	}
}

func TestStateRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if s := LoadState(); s.Session != nil {
		t.Fatalf("empty state has session: %+v", s.Session)
	}

	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	in := &State{Session: &SessionState{Key: "k", AnimationKey: "a", HomeURL: "https://x.com", CreatedAt: created}}
	if err := SaveState(in); err != nil {
		t.Fatal(err)
	}
	got := LoadState()
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSessionFresh(t *testing.T) {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s := &SessionState{Key: "k", AnimationKey: "a", CreatedAt: created}

	if !s.Fresh(created.Add(59*time.Minute), time.Hour) {
		t.Error("59m old session should be fresh")
	}
	if s.Fresh(created.Add(time.Hour), time.Hour) {
		t.Error("1h old session should be stale")
	}
	if (&SessionState{CreatedAt: created}).Fresh(created, time.Hour) {
		t.Error("empty session should be stale")
	}
	var nilState *SessionState
	if nilState.Fresh(created, time.Hour) {
		t.Error("nil session should be stale")
	}
}
