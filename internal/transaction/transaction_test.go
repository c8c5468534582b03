package transaction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kyupark/xctid/internal/document"
	"github.com/kyupark/xctid/internal/keymaterial"
	"github.com/kyupark/xctid/internal/token"
	"github.com/kyupark/xctid/internal/txerr"
)

const (
	fixtureKey  = "ECerQpkGfwA="
	snapshotKey = "19232d040f851eb851eb850f851eb851eb850400"
)

type scriptFetcher struct {
	script string
	err    error
	urls   []string
}

func (f *scriptFetcher) FetchText(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.script, f.err
}

func homePage(key string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head>`)
	if key != "" {
		fmt.Fprintf(&b, `<meta name="twitter-site-verification" content="%s">`, key)
	}
	b.WriteString(`<script>window.__SCRIPTS__={"ondemand.s":"5f2a91c"}</script></head><body>`)
	for i := 0; i < 4; i++ {
		path := "M 10,30 C 1 2 3 4 5 6 7 8 9 10 11"
		if i == 2 {
			path = "M 10,30 C10,20,30,40,50,60,128,5,5,5,5 C 1 2 3"
		}
		fmt.Fprintf(&b, `<svg id="loading-x-anim-%d"><g><path d="M0"></path><path d="%s"></path></g></svg>`, i, path)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func mustDoc(t *testing.T, markup string) document.Document {
	t.Helper()
	doc, err := document.ParseString(markup)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCreate(t *testing.T) {
	f := &scriptFetcher{script: `var n=(e[0], 16),r=(e[1], 16);`}
	s, err := Create(context.Background(), mustDoc(t, homePage(fixtureKey)), f)
	if err != nil {
		t.Fatal(err)
	}

	want := &Session{
		Key:            fixtureKey,
		KeyBytes:       []byte{0x10, 0x27, 0xab, 0x42, 0x99, 0x06, 0x7f, 0x00},
		RowIndex:       0,
		KeyByteIndices: []int{1},
		AnimationKey:   snapshotKey,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("session (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://abs.twimg.com/responsive-web/client-web/ondemand.s.5f2a91ca.js"}, f.urls); diff != "" {
		t.Errorf("fetched (-want +got):\n%s", diff)
	}
}

func TestCreateStages(t *testing.T) {
	okScript := `(e[0], 16)(e[1], 16)`
	tests := []struct {
		name    string
		markup  string
		fetcher *scriptFetcher
		stage   txerr.Stage
		want    error
	}{
		{"missing key", homePage(""), &scriptFetcher{script: okScript}, txerr.StageKey, txerr.ErrMissingKey},
		{"bad key", homePage("@@@@"), &scriptFetcher{script: okScript}, txerr.StageKey, txerr.ErrInvalidKey},
		{"no script", `<meta name="twitter-site-verification" content="ECerQpkGfwA=">`, &scriptFetcher{script: okScript}, txerr.StageIndices, txerr.ErrMissingScriptReference},
		{"no indices", homePage(fixtureKey), &scriptFetcher{script: "minified"}, txerr.StageIndices, txerr.ErrMissingIndices},
		{"network", homePage(fixtureKey), &scriptFetcher{err: errors.New("dial tcp: timeout")}, txerr.StageIndices, txerr.ErrNetwork},
		{"no frames", `<meta name="twitter-site-verification" content="ECerQpkGfwA="><script>"ondemand.s":"ab"</script>`, &scriptFetcher{script: okScript}, txerr.StageFrames, txerr.ErrNoFrames},
		{"short row", homePage(fixtureKey), &scriptFetcher{script: `(e[6], 16)(e[1], 16)`}, txerr.StageAnimation, txerr.ErrInvalidFrameRow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(context.Background(), mustDoc(t, tt.markup), tt.fetcher)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := txerr.StageOf(err); got != tt.stage {
				t.Errorf("stage = %q, want %q", got, tt.stage)
			}
		})
	}
}

func TestCreateWithoutFetcher(t *testing.T) {
	_, err := Create(context.Background(), mustDoc(t, homePage(fixtureKey)), nil)
	if !errors.Is(err, keymaterial.ErrNoFetcher) {
		t.Fatalf("err = %v, want ErrNoFetcher", err)
	}
	if got := txerr.StageOf(err); got != txerr.StageIndices {
		t.Errorf("stage = %q, want %q", got, txerr.StageIndices)
	}
}

func TestGenerateIDDeterministic(t *testing.T) {
	s := &Session{
		Key:          fixtureKey,
		KeyBytes:     []byte{0x10, 0x27, 0xab, 0x42, 0x99, 0x06, 0x7f, 0x00},
		AnimationKey: snapshotKey,
	}
	opts := func() []IDOption {
		return []IDOption{WithTimestamp(81_234_567), WithRandom(bytes.NewReader([]byte{0x42}))}
	}

	a, err := s.GenerateID("POST", "/i/api/graphql/abc/CreateTweet", opts()...)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateID("POST", "/i/api/graphql/abc/CreateTweet", fixtureKey, snapshotKey, opts()...)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("session and string forms differ: %q vs %q", a, b)
	}
	if want := token.Encode("POST", "/i/api/graphql/abc/CreateTweet", s.KeyBytes, snapshotKey, 81_234_567, 0x42); a != want {
		t.Errorf("GenerateID = %q, want %q", a, want)
	}
}

func TestGenerateIDDefaultsToClock(t *testing.T) {
	at := time.Unix(1682924400+1000, 0)
	tok, err := GenerateID("GET", "/", fixtureKey, snapshotKey, WithClock(func() time.Time { return at }))
	if err != nil {
		t.Fatal(err)
	}
	p, err := token.Decode(tok)
	if err != nil {
		t.Fatal(err)
	}
	if p.Timestamp != 1000 {
		t.Errorf("timestamp = %d, want 1000", p.Timestamp)
	}
	if !p.Verify("GET", "/", snapshotKey) {
		t.Error("token does not verify")
	}
	if got, want := len(p.Plaintext()), 8+4+16+1; got != want {
		t.Errorf("plaintext length = %d, want %d", got, want)
	}
}

func TestGenerateIDBadKey(t *testing.T) {
	_, err := GenerateID("GET", "/", "", snapshotKey)
	if !errors.Is(err, txerr.ErrMissingKey) {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateIDConcurrent(t *testing.T) {
	s := &Session{KeyBytes: []byte{1, 2, 3, 4, 5, 6}, AnimationKey: snapshotKey}
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("/path/%d", i)
			tok, err := s.GenerateID("GET", path)
			if err != nil {
				errs <- err
				return
			}
			p, err := token.Decode(tok)
			if err != nil {
				errs <- err
				return
			}
			if !p.Verify("GET", path, snapshotKey) {
				errs <- fmt.Errorf("token for %s does not verify", path)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
