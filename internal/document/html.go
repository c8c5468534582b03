package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// HTML is a Document backed by an x/net/html parse tree.
type HTML struct {
	root   *html.Node
	markup string
}

// Parse reads and parses an HTML page.
func Parse(r io.Reader) (*HTML, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading markup: %w", err)
	}
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	return &HTML{root: root, markup: string(raw)}, nil
}

// ParseString parses an HTML page held in memory.
func ParseString(s string) (*HTML, error) {
	return Parse(strings.NewReader(s))
}

func (d *HTML) Markup() string { return d.markup }

func (d *HTML) Find(selector string) (Node, bool) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, false
	}
	found := cascadia.Query(d.root, sel)
	if found == nil {
		return nil, false
	}
	return element{found}, true
}

func (d *HTML) FindAll(selector string) []Node {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return wrap(cascadia.QueryAll(d.root, sel))
}

func wrap(nodes []*html.Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, element{n})
	}
	return out
}

// element adapts an *html.Node of type ElementNode.
type element struct {
	n *html.Node
}

func (e element) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e element) Children() []Node {
	var out []Node
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, element{c})
		}
	}
	return out
}

// FindIn runs a selector over the descendants of n, which must come
// from an HTML document. An invalid selector matches nothing.
func FindIn(n Node, selector string) []Node {
	e, ok := n.(element)
	if !ok {
		return nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return wrap(cascadia.QueryAll(e.n, sel))
}
