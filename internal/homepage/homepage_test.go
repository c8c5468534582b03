package homepage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kyupark/xctid/internal/keymaterial"
	"github.com/kyupark/xctid/internal/txerr"
)

// redirectTransport sends every request to the test server regardless
// of the host in the URL, so real x.com links can be exercised.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = req.URL.Host
	return http.DefaultTransport.RoundTrip(r)
}

type recorded struct {
	method, host, path, query, body, cookie string
}

func serve(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) (*http.Client, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var log []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c, _ := r.Cookie("auth_token")
		rec := recorded{method: r.Method, host: r.Host, path: r.URL.Path, query: r.URL.RawQuery, body: string(b)}
		if c != nil {
			rec.cookie = c.Value
		}
		mu.Lock()
		log = append(log, rec)
		mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	u, _ := url.Parse(srv.URL)
	return &http.Client{Transport: redirectTransport{target: u}}, &log
}

const finalPage = `<html><head><meta name="twitter-site-verification" content="ECerQpkGfwA="></head><body></body></html>`

func TestFetchDirect(t *testing.T) {
	client, log := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(finalPage))
	})
	f := &Fetcher{Client: client, UserAgent: "ua", Cookies: map[string]string{"auth_token": "tok"}}
	doc, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if key, err := keymaterial.VerificationKey(doc); err != nil || key != "ECerQpkGfwA=" {
		t.Errorf("key = %q, %v", key, err)
	}
	want := []recorded{{method: "GET", host: "x.com", path: "/", cookie: "tok"}}
	if diff := cmp.Diff(want, *log, cmp.AllowUnexported(recorded{})); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
}

func TestFetchDefaultClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(finalPage))
	}))
	defer srv.Close()

	f := &Fetcher{HomeURL: srv.URL}
	doc, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := keymaterial.VerificationKey(doc); err != nil {
		t.Errorf("key: %v", err)
	}
}

func TestFetchMigration(t *testing.T) {
	client, log := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/":
			w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0; url = https://twitter.com/x/migrate?tok=abc%3D_1"></head></html>`))
		case r.Method == "GET" && r.URL.Path == "/x/migrate":
			w.Write([]byte(`<html><body><form name="f" action="https://x.com/x/migrate" method="post">` +
				`<input type="hidden" name="tok" value="T"><input type="hidden" name="data" value="D"><input type="submit"></form></body></html>`))
		case r.Method == "POST":
			w.Write([]byte(finalPage))
		default:
			http.NotFound(w, r)
		}
	})

	f := &Fetcher{Client: client}
	doc, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := keymaterial.VerificationKey(doc); err != nil {
		t.Errorf("final page not returned: %v", err)
	}

	got := *log
	if len(got) != 3 {
		t.Fatalf("got %d requests: %+v", len(got), got)
	}
	if got[1].host != "twitter.com" || got[1].query != "tok=abc%3D_1" {
		t.Errorf("redirect request = %+v", got[1])
	}
	post := got[2]
	if post.method != "POST" || post.path != "/x/migrate/" || post.query != "mx=2" {
		t.Errorf("form request = %+v", post)
	}
	form, _ := url.ParseQuery(post.body)
	if diff := cmp.Diff(url.Values{"tok": {"T"}, "data": {"D"}}, form); diff != "" {
		t.Errorf("form body (-want +got):\n%s", diff)
	}
}

func TestFetchHTTPError(t *testing.T) {
	client, _ := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	})
	_, err := (&Fetcher{Client: client}).Fetch(context.Background())
	if !errors.Is(err, txerr.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("err = %v, want status in message", err)
	}
}

func TestMigrationURLFromMarkup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`location.replace("https://x.com/x/migrate?tok=a-b_c")`, "https://x.com/x/migrate?tok=a-b_c"},
		{`https://www.twitter.com/migrate/tok=zz`, "https://www.twitter.com/migrate/tok=zz"},
		{`https://example.com/migrate?tok=zz`, ""},
	}
	for _, tt := range tests {
		if got := reMigrate.FindString(tt.in); got != tt.want {
			t.Errorf("reMigrate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
