// Package homepage fetches the x.com home document, walking through the
// twitter.com to x.com migration interstitial when the site serves it.
package homepage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"github.com/kyupark/xctid/internal/document"
	"github.com/kyupark/xctid/internal/protocol"
	"github.com/kyupark/xctid/internal/txerr"
)

const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"

var reMigrate = regexp.MustCompile(`https?://(?:www\.)?(?:twitter|x)\.com(?:/x)?/migrate[/?]?tok=[a-zA-Z0-9%\-_]+`)

// Fetcher retrieves and parses the home page.
type Fetcher struct {
	// Client defaults to a plain http.Client.
	Client    *http.Client
	UserAgent string
	// HomeURL defaults to https://x.com.
	HomeURL string
	// Cookies are sent on every request, e.g. auth_token and ct0 taken
	// from a browser profile.
	Cookies map[string]string
	Logf    func(string, ...any)
}

// Fetch returns the final home document.
func (f *Fetcher) Fetch(ctx context.Context) (*document.HTML, error) {
	logf := f.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	var client http.Client
	if f.Client != nil {
		client = *f.Client
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		client.Jar = jar
	}

	home := f.HomeURL
	if home == "" {
		home = protocol.HomeURL
	}

	doc, err := f.do(ctx, &client, http.MethodGet, home, nil, logf)
	if err != nil {
		return nil, err
	}

	if target := migrationURL(doc); target != "" {
		logf("[homepage] following migration redirect")
		if doc, err = f.do(ctx, &client, http.MethodGet, target, nil, logf); err != nil {
			return nil, err
		}
	}

	if method, action, form, ok := migrationForm(doc); ok {
		logf("[homepage] submitting migration form (%d fields)", len(form))
		if doc, err = f.do(ctx, &client, method, action, form, logf); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// migrationURL finds the migrate?tok= redirect, preferring the refresh
// meta tag over a bare mention in the markup.
func migrationURL(doc document.Document) string {
	if meta, ok := doc.Find("meta[http-equiv='refresh']"); ok {
		content, _ := meta.Attr("content")
		if m := reMigrate.FindString(content); m != "" {
			return m
		}
	}
	return reMigrate.FindString(doc.Markup())
}

// migrationForm extracts the auto-submitting migration form, if any.
func migrationForm(doc document.Document) (method, action string, values url.Values, ok bool) {
	form, found := doc.Find("form[name='f']")
	if !found {
		form, found = doc.Find("form[action='" + protocol.MigrateFormAction + "']")
	}
	if !found {
		return "", "", nil, false
	}

	action, _ = form.Attr("action")
	if action == "" {
		action = protocol.MigrateFormAction
	}
	action += "/?mx=2"

	method, _ = form.Attr("method")
	if method == "" {
		method = http.MethodPost
	}

	values = url.Values{}
	for _, in := range document.FindIn(form, "input") {
		name, _ := in.Attr("name")
		if name == "" {
			continue
		}
		v, _ := in.Attr("value")
		values.Set(name, v)
	}
	return strings.ToUpper(method), action, values, true
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, method, target string, form url.Values, logf func(string, ...any)) (*document.HTML, error) {
	var body io.Reader
	if form != nil && method != http.MethodGet {
		body = strings.NewReader(form.Encode())
	} else if form != nil {
		target += "&" + form.Encode()
	}

	logf("[homepage] %s %s", method, target)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", "https://x.com")
	req.Header.Set("X-Twitter-Active-User", "yes")
	req.Header.Set("X-Twitter-Client-Language", "en")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for name, value := range f.Cookies {
		if value != "" {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, txerr.Network("fetching home page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, txerr.Network("fetching home page",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	doc, err := document.Parse(resp.Body)
	if err != nil {
		return nil, txerr.Network("reading home page", err)
	}
	return doc, nil
}
