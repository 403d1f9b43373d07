package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/wikiroutes/internal/doctree"
	"github.com/dgallion1/wikiroutes/internal/model"
	"golang.org/x/net/html"
)

// RowSpanState carries a row-spanned airline across the rows that omit its
// cell. Remaining is never negative.
type RowSpanState struct {
	Airline   string
	Remaining int
}

// Cell is the part of a data cell the span logic reads.
type Cell struct {
	Text    string // flattened text
	RowSpan string // raw rowspan attribute, empty when absent
}

// Advance consumes one row. It returns the state for the next row and the
// physical index of the destination cell, or ok=false when the row must be
// skipped.
func Advance(state RowSpanState, cells []Cell, layout ColumnLayout) (next RowSpanState, dest int, ok bool) {
	if len(cells) == 0 {
		return state, 0, false
	}

	if state.Remaining > 0 {
		// The airline cell is physically absent, so logical columns after
		// it sit one position to the left.
		dest = layout.Destination
		if layout.Destination > layout.Airline {
			dest--
		}
		dest = max(0, min(dest, len(cells)-1))
		state.Remaining--
	} else {
		if layout.Airline < 0 || layout.Airline >= len(cells) {
			return state, 0, false
		}
		airline := cells[layout.Airline]
		if n := parseRowSpan(airline.RowSpan); n > 1 {
			state.Remaining = n - 1
		}
		state.Airline = cleanAirline(airline.Text)

		dest = layout.Destination
		if dest < 0 || dest >= len(cells) {
			dest = len(cells) - 1
		}
	}

	if state.Airline == "" {
		return state, 0, false
	}
	return state, dest, true
}

var citationMarker = regexp.MustCompile(`\[.*?\]`)

func cleanAirline(s string) string {
	return strings.TrimSpace(citationMarker.ReplaceAllString(strings.TrimSpace(s), ""))
}

// parseRowSpan reads the leading digits of a rowspan value the way
// browsers do; anything unparseable is 0.
func parseRowSpan(v string) int {
	v = strings.TrimSpace(v)
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n > 65534 {
			return 65534
		}
	}
	return n
}

// DecodeRows walks the data rows of table and emits one FlightRecord per
// usable destination link, in document order.
func DecodeRows(tree *doctree.Tree, table *html.Node, layout ColumnLayout) []model.FlightRecord {
	doc := tree.Document()
	var flights []model.FlightRecord
	var state RowSpanState

	for _, row := range tableRows(table) {
		tds := doctree.ChildElements(row, "td")
		if len(tds) == 0 {
			// Header-only or empty row.
			continue
		}

		cells := make([]Cell, len(tds))
		for i, td := range tds {
			span, _ := doctree.Attr(td, "rowspan")
			cells[i] = Cell{Text: doctree.TextContent(td), RowSpan: span}
		}

		var dest int
		var ok bool
		state, dest, ok = Advance(state, cells, layout)
		if !ok {
			continue
		}

		for _, link := range destinationLinks(doc.FindNodes(tds[dest])) {
			flights = append(flights, model.FlightRecord{
				Airline:         state.Airline,
				DestinationName: link.name,
				DestinationKey:  link.key,
			})
		}
	}
	return flights
}

type destLink struct {
	name string
	key  string
}

var citationFragments = []string{"#cite_note", "#cite_ref"}

const footnoteContainers = ".reference, .mw-ref"

func destinationLinks(cell *goquery.Selection) []destLink {
	var out []destLink
	cell.Find("a").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		for _, frag := range citationFragments {
			if strings.Contains(href, frag) {
				return
			}
		}
		title := strings.TrimSpace(a.AttrOr("title", ""))
		if strings.Contains(title, "Edit section") {
			return
		}
		if a.Closest(footnoteContainers).Length() > 0 {
			return
		}
		name := strings.TrimSpace(a.Text())
		if name == "" || title == "" {
			return
		}
		out = append(out, destLink{name: name, key: title})
	})
	return out
}
