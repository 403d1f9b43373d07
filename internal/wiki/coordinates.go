package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgallion1/wikiroutes/internal/model"
)

type titleMapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type queryPage struct {
	Title       string `json:"title"`
	Coordinates []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coordinates"`
	PageProps struct {
		WikibaseItem string `json:"wikibase_item"`
	} `json:"pageprops"`
}

func (p queryPage) coordinate() *model.Coordinate {
	if len(p.Coordinates) == 0 {
		return nil
	}
	return &model.Coordinate{Lat: p.Coordinates[0].Lat, Lon: p.Coordinates[0].Lon}
}

type queryResponse struct {
	Query *struct {
		Normalized []titleMapping        `json:"normalized"`
		Redirects  []titleMapping        `json:"redirects"`
		Pages      map[string]queryPage `json:"pages"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

// MaxTitlesPerQuery is the API's limit on titles per request.
const MaxTitlesPerQuery = 50

// LookupPages asks for the coordinates and Wikidata item of each title in
// one request, following redirects.
func (c *Client) LookupPages(ctx context.Context, titles []string) (*model.PageBatch, error) {
	if len(titles) > MaxTitlesPerQuery {
		return nil, fmt.Errorf("lookup pages: %d titles exceeds limit %d", len(titles), MaxTitlesPerQuery)
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "coordinates|pageprops")
	params.Set("ppprop", "wikibase_item")
	params.Set("titles", strings.Join(titles, "|"))
	params.Set("redirects", "1")

	var resp queryResponse
	if err := c.getJSON(ctx, "query", c.apiURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("lookup pages: %w", resp.Error)
	}

	batch := &model.PageBatch{
		Normalized: map[string]string{},
		Redirects:  map[string]string{},
	}
	if resp.Query == nil {
		return batch, nil
	}
	for _, m := range resp.Query.Normalized {
		batch.Normalized[m.From] = m.To
	}
	for _, m := range resp.Query.Redirects {
		batch.Redirects[m.From] = m.To
	}
	for _, p := range resp.Query.Pages {
		batch.Pages = append(batch.Pages, model.PageCoordinates{
			Title:        p.Title,
			Coordinate:   p.coordinate(),
			WikibaseItem: p.PageProps.WikibaseItem,
		})
	}
	return batch, nil
}
