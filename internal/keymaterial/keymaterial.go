// Package keymaterial reads the per-session secrets the transaction id is
// derived from: the site verification key embedded in the home page and
// the key byte indices compiled into the ondemand.s script.
package keymaterial

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/kyupark/xctid/internal/codec"
	"github.com/kyupark/xctid/internal/document"
	"github.com/kyupark/xctid/internal/protocol"
	"github.com/kyupark/xctid/internal/txerr"
)

var (
	// "ondemand.s":"<hash>" in the webpack chunk map.
	reOnDemand = regexp.MustCompile(`['"]ondemand\.s['"]:\s*['"](\w*)['"]`)
	// ,<n>:"ondemand.s" in the chunk-name map; the hash then sits under
	// the same chunk number in the chunk-hash map.
	reOnDemandChunk = regexp.MustCompile(`,(\d+):\s*['"]ondemand\.s['"]`)
	// (x[12], 16)
	reIndices = regexp.MustCompile(`\(\w\[(\d{1,2})\],\s*16\)`)
)

// Fetcher retrieves a text resource.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Indices are the script-defined positions into the verification key
// bytes.
type Indices struct {
	Row      int   // selects the frame table row
	KeyBytes []int // feed the frame time product
}

// VerificationKey returns the content of the site verification meta tag.
func VerificationKey(doc document.Document) (string, error) {
	n, ok := doc.Find(protocol.VerificationKeySelector)
	if !ok {
		return "", txerr.ErrMissingKey
	}
	key, _ := n.Attr("content")
	if key == "" {
		return "", fmt.Errorf("%w: empty content attribute", txerr.ErrMissingKey)
	}
	return key, nil
}

// KeyBytes decodes a verification key.
func KeyBytes(key string) ([]byte, error) {
	if key == "" {
		return nil, txerr.ErrMissingKey
	}
	b, err := codec.DecodeBase64(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", txerr.ErrInvalidKey, err)
	}
	return b, nil
}

// ScriptURL locates the ondemand.s script referenced by the home page.
func ScriptURL(doc document.Document) (string, error) {
	markup := doc.Markup()

	if m := reOnDemand.FindStringSubmatch(markup); len(m) == 2 && m[1] != "" {
		return fmt.Sprintf(protocol.OnDemandURLFormat, m[1]), nil
	}

	if m := reOnDemandChunk.FindStringSubmatch(markup); len(m) == 2 {
		reHash := regexp.MustCompile(`,` + m[1] + `:\s*"([0-9a-f]+)"`)
		if h := reHash.FindStringSubmatch(markup); len(h) == 2 {
			return fmt.Sprintf(protocol.OnDemandURLFormat, h[1]), nil
		}
	}

	return "", txerr.ErrMissingScriptReference
}

// ParseIndices collects every "(x[N], 16)" access in script. The first
// is the row index, the rest are key byte indices in order.
func ParseIndices(script string) (Indices, error) {
	matches := reIndices.FindAllStringSubmatch(script, -1)
	if len(matches) == 0 {
		return Indices{}, txerr.ErrMissingIndices
	}

	all := make([]int, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return Indices{}, fmt.Errorf("%w: %q: %v", txerr.ErrMissingIndices, m[1], err)
		}
		all = append(all, v)
	}
	return Indices{Row: all[0], KeyBytes: all[1:]}, nil
}

// ErrNoFetcher is returned by Extractor.Indices when no Fetcher is set.
var ErrNoFetcher = errors.New("no ondemand script fetcher configured")

// Extractor fetches the ondemand script for a home page.
type Extractor struct {
	Fetcher Fetcher
	Logf    func(string, ...any)
}

// Indices resolves the script reference in doc, downloads the script
// and parses the indices out of it. No retries are attempted.
func (x *Extractor) Indices(ctx context.Context, doc document.Document) (Indices, error) {
	logf := x.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	if x.Fetcher == nil {
		return Indices{}, ErrNoFetcher
	}

	url, err := ScriptURL(doc)
	if err != nil {
		return Indices{}, err
	}
	logf("[indices] GET %s", url)

	script, err := x.Fetcher.FetchText(ctx, url)
	if err != nil {
		if txerr.IsNetwork(err) {
			return Indices{}, err
		}
		return Indices{}, txerr.Network("fetching ondemand script", err)
	}

	idx, err := ParseIndices(script)
	if err != nil {
		return Indices{}, err
	}
	logf("[indices] row=%d key bytes=%v", idx.Row, idx.KeyBytes)
	return idx, nil
}
