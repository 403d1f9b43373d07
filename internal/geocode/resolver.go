// Package geocode resolves article titles to coordinates: first from the
// articles themselves, then, for articles that only carry a Wikidata item,
// from Wikidata.
package geocode

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dgallion1/wikiroutes/internal/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

// PrimarySource answers coordinate and cross-reference lookups by title.
type PrimarySource interface {
	LookupPages(ctx context.Context, titles []string) (*model.PageBatch, error)
}

// SecondarySource answers coordinate lookups by cross-reference key.
type SecondarySource interface {
	LookupEntities(ctx context.Context, keys []string) (map[string]model.Coordinate, error)
}

// Config controls batching and caching.
type Config struct {
	BatchSize     int // at most 50
	MaxConcurrent int
	CacheSize     int // 0 disables the cache
	CacheTTL      time.Duration
}

// Resolver runs the primary-then-secondary lookup pipeline.
type Resolver struct {
	primary   PrimarySource
	secondary SecondarySource
	cfg       Config
	cache     *expirable.LRU[string, model.Coordinate]
	log       *slog.Logger
}

// NewResolver builds a Resolver. secondary may be nil.
func NewResolver(primary PrimarySource, secondary SecondarySource, cfg Config, log *slog.Logger) *Resolver {
	if cfg.BatchSize <= 0 || cfg.BatchSize > 50 {
		cfg.BatchSize = 50
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	r := &Resolver{
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		log:       log,
	}
	if cfg.CacheSize > 0 {
		r.cache = expirable.NewLRU[string, model.Coordinate](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return r
}

// Resolve maps each identifier to a coordinate where one can be found.
// The result is partial: failed batches and unknown places are simply
// absent. Primary results are never overwritten by secondary ones.
func (r *Resolver) Resolve(ctx context.Context, ids []string) map[string]model.Coordinate {
	result := make(map[string]model.Coordinate)

	var pending []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if r.cache != nil {
			if c, ok := r.cache.Get(id); ok {
				result[id] = c
				continue
			}
		}
		pending = append(pending, id)
	}
	if len(pending) == 0 {
		return result
	}

	primary, keyed := r.primaryStage(ctx, pending)
	maps.Copy(result, primary)

	fromSecondary := 0
	for key, coord := range r.secondaryStage(ctx, slices.Sorted(maps.Keys(keyed))) {
		for _, id := range keyed[key] {
			if _, ok := result[id]; !ok {
				result[id] = coord
				fromSecondary++
			}
		}
	}

	if r.cache != nil {
		for _, id := range pending {
			if c, ok := result[id]; ok {
				r.cache.Add(id, c)
			}
		}
	}

	r.log.Info("resolved coordinates",
		"requested", len(seen),
		"looked_up", len(pending),
		"primary", len(primary),
		"secondary", fromSecondary,
		"unresolved", len(seen)-len(result),
	)
	return result
}

// primaryStage looks up titles in batches. It returns coordinates by
// identifier, and identifiers without a coordinate grouped by their
// cross-reference key.
func (r *Resolver) primaryStage(ctx context.Context, ids []string) (map[string]model.Coordinate, map[string][]string) {
	batches := chunk(ids, r.cfg.BatchSize)
	answers := make([]*model.PageBatch, len(batches))

	var g errgroup.Group
	g.SetLimit(r.cfg.MaxConcurrent)
	for i, batch := range batches {
		g.Go(func() error {
			ans, err := r.primary.LookupPages(ctx, batch)
			if err != nil {
				r.log.Warn("primary coordinate batch failed", "titles", len(batch), "error", err)
				return nil
			}
			answers[i] = ans
			return nil
		})
	}
	g.Wait()

	coords := make(map[string]model.Coordinate)
	keys := make(map[string]string)
	for i, ans := range answers {
		if ans == nil {
			continue
		}
		attribute(batches[i], ans, coords, keys)
	}

	keyed := make(map[string][]string)
	for _, id := range ids {
		key, ok := keys[id]
		if !ok {
			continue
		}
		if _, resolved := coords[id]; resolved {
			continue
		}
		keyed[key] = append(keyed[key], id)
	}
	return coords, keyed
}

// attribute credits each page in ans to every queried identifier that
// normalized or redirected to it.
func attribute(queried []string, ans *model.PageBatch, coords map[string]model.Coordinate, keys map[string]string) {
	aliases := make(map[string][]string, len(queried))
	for _, q := range queried {
		canonical := q
		if to, ok := ans.Normalized[canonical]; ok {
			canonical = to
		}
		if to, ok := ans.Redirects[canonical]; ok {
			canonical = to
		}
		aliases[canonical] = append(aliases[canonical], q)
	}

	for _, page := range ans.Pages {
		for _, id := range aliases[page.Title] {
			switch {
			case page.Coordinate != nil:
				coords[id] = *page.Coordinate
			case page.WikibaseItem != "":
				keys[id] = page.WikibaseItem
			}
		}
	}
}

func (r *Resolver) secondaryStage(ctx context.Context, keys []string) map[string]model.Coordinate {
	out := make(map[string]model.Coordinate)
	if r.secondary == nil || len(keys) == 0 {
		return out
	}

	batches := chunk(keys, r.cfg.BatchSize)
	answers := make([]map[string]model.Coordinate, len(batches))

	var g errgroup.Group
	g.SetLimit(r.cfg.MaxConcurrent)
	for i, batch := range batches {
		g.Go(func() error {
			ans, err := r.secondary.LookupEntities(ctx, batch)
			if err != nil {
				r.log.Warn("secondary coordinate batch failed", "keys", len(batch), "error", err)
				return nil
			}
			answers[i] = ans
			return nil
		})
	}
	g.Wait()

	for _, ans := range answers {
		maps.Copy(out, ans)
	}
	return out
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
