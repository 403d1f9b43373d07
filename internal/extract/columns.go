package extract

import (
	"strings"

	"github.com/dgallion1/wikiroutes/internal/doctree"
	"golang.org/x/net/html"
)

// ColumnLayout holds logical column indices as declared by the header row.
type ColumnLayout struct {
	Airline     int
	Destination int
}

// DefaultLayout is used for any role the header row does not name.
var DefaultLayout = ColumnLayout{Airline: 0, Destination: 1}

// ClassifyColumns reads the first row's header cells. Later matches
// overwrite earlier ones.
func ClassifyColumns(table *html.Node) ColumnLayout {
	airline, destination := -1, -1

	rows := tableRows(table)
	if len(rows) > 0 {
		for i, th := range doctree.ChildElements(rows[0], "th") {
			text := strings.ToLower(doctree.TextContent(th))
			if strings.Contains(text, "destination") {
				destination = i
			}
			if strings.Contains(text, "airline") {
				airline = i
			}
		}
	}

	layout := DefaultLayout
	if airline >= 0 {
		layout.Airline = airline
	}
	if destination >= 0 {
		layout.Destination = destination
	}
	return layout
}

// tableRows returns the rows of table itself, looking through thead, tbody
// and tfoot but not into nested tables.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	for _, c := range doctree.ChildElements(table, "tr", "thead", "tbody", "tfoot") {
		if c.Data == "tr" {
			rows = append(rows, c)
			continue
		}
		rows = append(rows, doctree.ChildElements(c, "tr")...)
	}
	return rows
}
