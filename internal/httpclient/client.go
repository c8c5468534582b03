// Package httpclient provides an HTTP client whose TLS handshake mimics
// a desktop browser via uTLS. x.com and its CDN sit behind edge filtering
// that treats Go's default ClientHello as a bot.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Fingerprints maps config names to uTLS ClientHello presets.
var Fingerprints = map[string]utls.ClientHelloID{
	"chrome":  utls.HelloChrome_Auto,
	"firefox": utls.HelloFirefox_Auto,
	"safari":  utls.HelloSafari_Auto,
	"edge":    utls.HelloEdge_Auto,
}

// New returns an *http.Client presenting the named browser fingerprint.
// Unknown names fall back to Chrome. Every HTTPS request dials a fresh
// TLS connection; a session only makes a handful of requests.
func New(timeout time.Duration, fingerprint string) *http.Client {
	hello, ok := Fingerprints[strings.ToLower(fingerprint)]
	if !ok {
		hello = utls.HelloChrome_Auto
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &browserTransport{
			hello: hello,
			dialer: &net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			},
		},
	}
}

// browserTransport implements http.RoundTripper on top of a uTLS conn.
type browserTransport struct {
	hello  utls.ClientHelloID
	dialer *net.Dialer
}

func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return http.DefaultTransport.RoundTrip(req)
	}

	host := req.URL.Hostname()
	rawConn, err := t.dialer.DialContext(req.Context(), "tcp", net.JoinHostPort(host, portFromURL(req.URL)))
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
		NextProtos: []string{"h2", "http/1.1"},
	}, t.hello)
	if err := tlsConn.HandshakeContext(req.Context()); err != nil {
		rawConn.Close()
		return nil, err
	}

	if tlsConn.ConnectionState().NegotiatedProtocol == "h2" {
		h2 := &http2.Transport{
			DialTLSContext: func(context.Context, string, string, *tls.Config) (net.Conn, error) {
				return tlsConn, nil
			},
		}
		return h2.RoundTrip(req)
	}

	h1 := &http.Transport{
		DialTLSContext: func(context.Context, string, string) (net.Conn, error) {
			return tlsConn, nil
		},
		DisableKeepAlives: true,
	}
	return h1.RoundTrip(req)
}

func portFromURL(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}

// Fetcher downloads text resources with browser-like headers.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Logf      func(string, ...any)
}

// FetchText GETs url and returns the body. Non-200 responses are errors.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	if f.Logf != nil {
		f.Logf("[http] GET %s", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("GET %s: HTTP %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(body), nil
}
