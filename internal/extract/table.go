package extract

import (
	"github.com/dgallion1/wikiroutes/internal/doctree"
	"golang.org/x/net/html"
)

// SelectTable walks the siblings after the boundary and returns the first
// data table before the section ends.
func SelectTable(b Boundary, opts Options) (*html.Node, error) {
	opts = opts.withDefaults()
	if b.Node == nil {
		return nil, ErrTableNotFound
	}

	for n := doctree.NextElementSibling(b.Node); n != nil; n = doctree.NextElementSibling(n) {
		if doctree.IsElement(n, "table") && doctree.HasClass(n, opts.TableClass) {
			return n, nil
		}
		if level := effectiveHeadingLevel(n, opts.HeadingWrapperClass); level > 0 && level <= b.Depth {
			return nil, ErrTableNotFound
		}
		// Deeper headings ("Passenger", "Cargo") and everything else are skipped.
	}
	return nil, ErrTableNotFound
}

// effectiveHeadingLevel returns the rank of n if it is a heading, or of the
// heading inside it if n is a heading wrapper; 0 otherwise.
func effectiveHeadingLevel(n *html.Node, wrapperClass string) int {
	if level := doctree.HeadingLevel(n); level > 0 {
		return level
	}
	if !doctree.HasClass(n, wrapperClass) {
		return 0
	}
	h := doctree.FirstDescendant(n, func(c *html.Node) bool { return doctree.HeadingLevel(c) > 0 })
	return doctree.HeadingLevel(h)
}
