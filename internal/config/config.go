package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kyupark/xctid/internal/protocol"
)

const (
	appName    = "xctid"
	configFile = "config.json"

	DefaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	DefaultTimeout     = 30
	DefaultFingerprint = "chrome"
)

// Config is the top-level configuration.
type Config struct {
	UserAgent string `json:"user_agent,omitempty"`
	Timeout   int    `json:"timeout,omitempty"` // seconds
	Verbose   bool   `json:"verbose,omitempty"`

	// HomeURL overrides the page key material is read from.
	HomeURL string `json:"home_url,omitempty"`
	// Fingerprint is the TLS ClientHello preset: chrome, firefox, safari, edge.
	Fingerprint string `json:"fingerprint,omitempty"`
	// SessionTTL is how long a saved session is reused, e.g. "45m".
	SessionTTL string `json:"session_ttl,omitempty"`
	// BrowserCookies enables reading x.com cookies from local browsers.
	BrowserCookies bool `json:"browser_cookies,omitempty"`

	AuthToken string `json:"auth_token,omitempty"`
	CT0       string `json:"ct0,omitempty"`
}

// Load reads config from the XDG config file, applying defaults. A
// missing or unreadable file yields the defaults.
func Load() *Config {
	cfg := defaults()

	data, err := os.ReadFile(FilePath())
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(data, cfg)
	cfg.fill()
	return cfg
}

func defaults() *Config {
	c := &Config{}
	c.fill()
	return c
}

func (c *Config) fill() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HomeURL == "" {
		c.HomeURL = protocol.HomeURL
	}
	if c.Fingerprint == "" {
		c.Fingerprint = DefaultFingerprint
	}
}

// TimeoutDuration returns Timeout as a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TTL returns the session reuse window. Invalid or empty values fall
// back to the protocol default.
func (c *Config) TTL() time.Duration {
	if c.SessionTTL == "" {
		return protocol.SessionTTL
	}
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d < 0 {
		return protocol.SessionTTL
	}
	return d
}

// Cookies returns the explicitly configured x.com cookies.
func (c *Config) Cookies() map[string]string {
	out := map[string]string{}
	if c.AuthToken != "" {
		out["auth_token"] = c.AuthToken
	}
	if c.CT0 != "" {
		out["ct0"] = c.CT0
	}
	return out
}

// Save writes the config to the XDG config file.
func Save(cfg *Config) error {
	return writeJSON(FilePath(), cfg)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o600)
}

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(baseDir(), appName, configFile)
}

func baseDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dir = filepath.Join(home, ".config")
	}
	return dir
}
