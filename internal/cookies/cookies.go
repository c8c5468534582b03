// Package cookies reads x.com session cookies from local browser
// profiles via kooky, so home page fetches look like a logged-in visit.
// Safari is read first since its store needs no Keychain prompt.
package cookies

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/browserutils/kooky"
	"github.com/browserutils/kooky/browser/chrome"
	"github.com/browserutils/kooky/browser/safari"
)

// XDomain and XNames describe the cookies a session fetch sends.
var (
	XDomain = "x.com"
	XNames  = []string{"auth_token", "ct0", "guest_id", "twid", "kdt"}
)

// Found maps cookie names to values together with the browser they came
// from.
type Found struct {
	Values  map[string]string
	Browser string
}

// Missing returns the requested names that were not found.
func (f *Found) Missing(names []string) []string {
	var out []string
	for _, n := range names {
		if f == nil || f.Values[n] == "" {
			out = append(out, n)
		}
	}
	return out
}

type store struct {
	name  string
	paths func() ([]string, error)
}

var stores = []store{
	{name: "safari", paths: safariPaths},
	{name: "chrome", paths: chromePaths},
}

// Load collects the named cookies for domain. The first store to supply
// a name wins; later stores only fill gaps.
func Load(ctx context.Context, domain string, names []string, logf func(string, ...any)) (*Found, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	found := &Found{Values: make(map[string]string)}
	for _, s := range stores {
		if len(found.Missing(names)) == 0 {
			break
		}
		paths, err := s.paths()
		if err != nil {
			logf("[cookies] %s: %v", s.name, err)
			continue
		}
		for _, path := range paths {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			logf("[cookies] reading %s store at %s", s.name, path)
			var err error
			switch s.name {
			case "safari":
				err = collect(ctx, safari.TraverseCookies(path, kooky.DomainHasSuffix(domain)).OnlyCookies(), want, found, s.name, logf)
			case "chrome":
				err = collect(ctx, chrome.TraverseCookies(path, kooky.DomainHasSuffix(domain)).OnlyCookies(), want, found, s.name, logf)
			}
			if err != nil {
				return found, err
			}
			// the first existing Chrome path is the live profile
			if s.name == "chrome" {
				break
			}
		}
	}
	return found, nil
}

func collect[S ~func(yield func(*kooky.Cookie) bool)](ctx context.Context, seq S, want map[string]bool, found *Found, browser string, logf func(string, ...any)) error {
	for c := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c == nil || c.Value == "" || !want[c.Name] {
			continue
		}
		if found.Values[c.Name] != "" {
			continue
		}
		found.Values[c.Name] = c.Value
		if found.Browser == "" {
			found.Browser = browser
		}
		logf("[cookies] found %s (domain=%s, browser=%s)", c.Name, c.Domain, browser)
	}
	return nil
}

func chromePaths() ([]string, error) {
	if runtime.GOOS != "darwin" {
		return nil, fmt.Errorf("unsupported OS %q: only macOS profiles are read", runtime.GOOS)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "Google", "Chrome", "Default", "Network", "Cookies"),
		filepath.Join(dir, "Google", "Chrome", "Default", "Cookies"),
	}, nil
}

func safariPaths() ([]string, error) {
	if runtime.GOOS != "darwin" {
		return nil, fmt.Errorf("unsupported OS %q: only macOS profiles are read", runtime.GOOS)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(home, "Library", "Containers", "com.apple.Safari", "Data", "Library", "Cookies", "Cookies.binarycookies"),
		filepath.Join(home, "Library", "Cookies", "Cookies.binarycookies"),
	}, nil
}
