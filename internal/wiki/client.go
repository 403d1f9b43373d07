// Package wiki talks to the MediaWiki action API (article search, parsed
// article HTML, page coordinates) and to the Wikidata entity API.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrNotFound means the requested topic does not exist upstream.
var ErrNotFound = errors.New("not found")

// Options configures a Client.
type Options struct {
	APIURL      string
	WikidataURL string
	UserAgent   string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// Client communicates with the MediaWiki and Wikidata HTTP APIs.
type Client struct {
	apiURL      string
	wikidataURL string
	userAgent   string
	httpClient  *http.Client
	cache       *cache.Cache

	Stats *LatencyStats
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	return &Client{
		apiURL:      opts.APIURL,
		wikidataURL: opts.WikidataURL,
		userAgent:   opts.UserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		cache: cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		Stats: NewLatencyStats(time.Hour),
	}
}

// StatusError is a non-200 answer from an upstream API.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, truncate(e.Message, 200))
}

// apiError is the MediaWiki in-band error object.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Info)
}

const maxResponseBytes = 32 << 20

// getJSON issues a GET against base with params and decodes the JSON body
// into out. endpoint names the call for latency stats.
func (c *Client) getJSON(ctx context.Context, endpoint, base string, params url.Values, out any) error {
	start := time.Now()
	defer func() { c.Stats.Record(endpoint, time.Since(start).Milliseconds()) }()

	params.Set("format", "json")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
