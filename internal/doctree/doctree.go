// Package doctree wraps a parsed HTML document as an immutable tree and
// provides the small set of node accessors the extractors need. Nothing in
// this package mutates a node.
package doctree

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tree is the root of a parsed article.
type Tree struct {
	root *html.Node
}

// Parse reads HTML (a full page or a rendered fragment) into a Tree.
func Parse(r io.Reader) (*Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Tree{root: doc}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

// FromNode wraps an already-parsed node.
func FromNode(n *html.Node) *Tree {
	return &Tree{root: n}
}

// Root returns the document node.
func (t *Tree) Root() *html.Node {
	return t.root
}

// Document returns a goquery view of the tree for selector-based lookups.
func (t *Tree) Document() *goquery.Document {
	return goquery.NewDocumentFromNode(t.root)
}

// HeadingLevel returns 1-6 for an h1-h6 element, 0 otherwise.
func HeadingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	switch n.Data {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// TextContent flattens all descendant text of n and trims the result.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// Attr returns the value of attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether n's class attribute lists class.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	return slices.Contains(strings.Fields(v), class)
}

// IsElement reports whether n is an element with the given tag.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// NextElementSibling skips text and comment nodes.
func NextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// ChildElements returns the direct element children of n whose tag is one
// of tags, or all element children when tags is empty.
func ChildElements(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if len(tags) == 0 || slices.Contains(tags, c.Data) {
			out = append(out, c)
		}
	}
	return out
}

// FirstDescendant returns the first element below n (document order) for
// which match is true.
func FirstDescendant(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if d := FirstDescendant(c, match); d != nil {
			return d
		}
	}
	return nil
}
