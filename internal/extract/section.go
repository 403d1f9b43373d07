package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/wikiroutes/internal/doctree"
	"golang.org/x/net/html"
)

// Boundary is where the destinations section starts. Any later heading of
// depth <= Depth ends the section; deeper headings are subsections.
type Boundary struct {
	Node  *html.Node // heading element, or its wrapper when the skin adds one
	Depth int
}

const sectionHeadings = "h2, h3, h4"

// LocateSection finds the destinations heading, first by its text and then
// by its anchor id.
func LocateSection(tree *doctree.Tree, opts Options) (Boundary, error) {
	opts = opts.withDefaults()
	doc := tree.Document()

	var heading *html.Node
	doc.Find(sectionHeadings).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		if strings.Contains(doctree.TextContent(n), opts.HeadingText) {
			heading = n
			return false
		}
		return true
	})

	if heading == nil && opts.AnchorID != "" {
		anchor := doc.Find(`[id="` + escapeAttr(opts.AnchorID) + `"]`).First()
		if h := anchor.Closest(sectionHeadings); h.Length() > 0 {
			heading = h.Get(0)
		}
	}

	if heading == nil {
		return Boundary{}, ErrSectionNotFound
	}

	node := heading
	if p := heading.Parent; p != nil && doctree.HasClass(p, opts.HeadingWrapperClass) {
		node = p
	}
	return Boundary{Node: node, Depth: doctree.HeadingLevel(heading)}, nil
}

func escapeAttr(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
