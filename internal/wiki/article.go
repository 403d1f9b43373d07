package wiki

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"

	"github.com/dgallion1/wikiroutes/internal/doctree"
	"github.com/dgallion1/wikiroutes/internal/model"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// Article is a fetched airport article.
type Article struct {
	Title      string // canonical title, after redirects
	Tree       *doctree.Tree
	Coordinate *model.Coordinate // nil when the article has none
}

type parseResponse struct {
	Parse *struct {
		Title string `json:"title"`
		Text  struct {
			HTML string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

// FetchArticle fetches the rendered HTML and the coordinate of title
// concurrently. A missing page is ErrNotFound.
func (c *Client) FetchArticle(ctx context.Context, title string) (*Article, error) {
	cacheKey := "article:" + title
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(*Article), nil
	}

	var parsed parseResponse
	var coords queryResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		params := url.Values{}
		params.Set("action", "parse")
		params.Set("page", title)
		params.Set("prop", "text")
		params.Set("disableeditsection", "1")
		params.Set("redirects", "1")
		return c.getJSON(gctx, "parse", c.apiURL, params, &parsed)
	})
	g.Go(func() error {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("titles", title)
		params.Set("prop", "coordinates")
		params.Set("redirects", "1")
		return c.getJSON(gctx, "query", c.apiURL, params, &coords)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch article %q: %w", title, err)
	}

	if parsed.Error != nil && parsed.Error.Code == "missingtitle" {
		return nil, fmt.Errorf("article %q: %w", title, ErrNotFound)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("parse %q: %w", title, parsed.Error)
	}
	if parsed.Parse == nil {
		return nil, fmt.Errorf("article %q: %w", title, ErrNotFound)
	}

	tree, err := doctree.ParseString(parsed.Parse.Text.HTML)
	if err != nil {
		return nil, fmt.Errorf("article %q: %w", title, err)
	}

	article := &Article{
		Title: parsed.Parse.Title,
		Tree:  tree,
	}
	if coords.Query != nil {
		for _, id := range slices.Sorted(maps.Keys(coords.Query.Pages)) {
			if pos := coords.Query.Pages[id].coordinate(); pos != nil {
				article.Coordinate = pos
				break
			}
		}
	}

	c.cache.Set(cacheKey, article, cache.DefaultExpiration)
	return article, nil
}
