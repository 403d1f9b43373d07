package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgallion1/wikiroutes/internal/model"
)

// coordinateProperty is Wikidata's "coordinate location".
const coordinateProperty = "P625"

type claim struct {
	Mainsnak struct {
		Datavalue *struct {
			Value json.RawMessage `json:"value"`
		} `json:"datavalue"`
	} `json:"mainsnak"`
}

type entitiesResponse struct {
	Entities map[string]struct {
		ID string `json:"id"`
		// An object keyed by property, or [] for an entity with no claims.
		Claims json.RawMessage `json:"claims"`
	} `json:"entities"`
	Error *apiError `json:"error"`
}

// LookupEntities fetches coordinate claims for Wikidata item ids. Items
// without a coordinate are absent from the result.
func (c *Client) LookupEntities(ctx context.Context, ids []string) (map[string]model.Coordinate, error) {
	if len(ids) > MaxTitlesPerQuery {
		return nil, fmt.Errorf("lookup entities: %d ids exceeds limit %d", len(ids), MaxTitlesPerQuery)
	}
	params := url.Values{}
	params.Set("action", "wbgetentities")
	params.Set("ids", strings.Join(ids, "|"))
	params.Set("props", "claims")

	var resp entitiesResponse
	if err := c.getJSON(ctx, "wbgetentities", c.wikidataURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("lookup entities: %w", resp.Error)
	}

	out := make(map[string]model.Coordinate)
	for key, e := range resp.Entities {
		id := e.ID
		if id == "" {
			id = key
		}
		if coord, ok := entityCoordinate(e.Claims); ok {
			out[id] = coord
		}
	}
	return out, nil
}

func entityCoordinate(raw json.RawMessage) (model.Coordinate, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return model.Coordinate{}, false
	}
	var claims map[string][]claim
	if err := json.Unmarshal(raw, &claims); err != nil {
		return model.Coordinate{}, false
	}
	for _, cl := range claims[coordinateProperty] {
		if cl.Mainsnak.Datavalue == nil {
			continue
		}
		var v struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		if err := json.Unmarshal(cl.Mainsnak.Datavalue.Value, &v); err != nil || v.Latitude == nil || v.Longitude == nil {
			continue
		}
		return model.Coordinate{Lat: *v.Latitude, Lon: *v.Longitude}, true
	}
	return model.Coordinate{}, false
}
