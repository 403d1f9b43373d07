package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/patrickmn/go-cache"
)

// Search resolves a free-text query ("SYD", "Heathrow") to the title of the
// best matching article.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrNotFound
	}
	cacheKey := "search:" + strings.ToLower(query)
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(string), nil
	}

	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", "1")
	params.Set("namespace", "0")

	// [query, [titles], [descriptions], [urls]]
	var raw []json.RawMessage
	if err := c.getJSON(ctx, "opensearch", c.apiURL, params, &raw); err != nil {
		return "", err
	}
	if len(raw) < 2 {
		return "", fmt.Errorf("opensearch: unexpected response shape (%d elements)", len(raw))
	}
	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return "", fmt.Errorf("decode opensearch titles: %w", err)
	}
	if len(titles) == 0 || titles[0] == "" {
		return "", fmt.Errorf("search %q: %w", query, ErrNotFound)
	}

	c.cache.Set(cacheKey, titles[0], cache.DefaultExpiration)
	return titles[0], nil
}
