// Package document is the narrow view of a parsed markup page that key
// extraction needs: selector lookup, attributes and element children.
// The HTML type adapts golang.org/x/net/html to it; tests can supply any
// other implementation.
package document

// Node is one element of a document.
type Node interface {
	// Attr returns the named attribute and whether it is present.
	Attr(name string) (string, bool)
	// Children returns the element children in document order.
	Children() []Node
}

// Document is a queryable parsed page.
type Document interface {
	// Find returns the first element matching selector.
	Find(selector string) (Node, bool)
	// FindAll returns every element matching selector in document order.
	FindAll(selector string) []Node
	// Markup returns the raw page source.
	Markup() string
}
