package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/wikiroutes/internal/extract"
	"github.com/dgallion1/wikiroutes/internal/model"
	"github.com/dgallion1/wikiroutes/internal/routes"
	"github.com/dgallion1/wikiroutes/internal/wiki"
)

// ErrOriginUnlocated means the airport article exists but carries no
// coordinate to draw routes from.
var ErrOriginUnlocated = errors.New("origin has no coordinates")

// ArticleSource finds and fetches airport articles.
type ArticleSource interface {
	Search(ctx context.Context, query string) (string, error)
	FetchArticle(ctx context.Context, title string) (*wiki.Article, error)
}

// CoordinateResolver places destination keys on the map.
type CoordinateResolver interface {
	Resolve(ctx context.Context, ids []string) map[string]model.Coordinate
}

// Origin is the searched airport.
type Origin struct {
	Title      string           `json:"title"`
	Coordinate model.Coordinate `json:"coordinate"`
}

// Result is everything a renderer needs for one search.
type Result struct {
	Query   string `json:"query"`
	Origin  Origin `json:"origin"`
	Flights int    `json:"flights"`
	routes.Assembly
	Message string `json:"message"`
}

// PhaseFunc is told when a search enters a new phase. May be nil.
type PhaseFunc func(JobStatus)

// Service runs searches end to end.
type Service struct {
	articles ArticleSource
	resolver CoordinateResolver
	opts     extract.Options
	log      *slog.Logger
}

func NewService(articles ArticleSource, resolver CoordinateResolver, opts extract.Options, log *slog.Logger) *Service {
	return &Service{
		articles: articles,
		resolver: resolver,
		opts:     opts,
		log:      log,
	}
}

// Search finds the airport article for query and builds its routes.
func (s *Service) Search(ctx context.Context, query string, phase PhaseFunc) (*Result, error) {
	if phase == nil {
		phase = func(JobStatus) {}
	}

	phase(StatusSearching)
	title, err := s.articles.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	phase(StatusFetching)
	article, err := s.articles.FetchArticle(ctx, title)
	if err != nil {
		return nil, err
	}
	if article.Coordinate == nil {
		return nil, fmt.Errorf("%q: %w", article.Title, ErrOriginUnlocated)
	}

	res, err := s.Routes(ctx, article, phase)
	if err != nil {
		return nil, err
	}
	res.Query = query
	return res, nil
}

// Routes extracts the destination table of an already-fetched article and
// places every destination. An article without a destinations table gives
// an empty, non-error result.
func (s *Service) Routes(ctx context.Context, article *wiki.Article, phase PhaseFunc) (*Result, error) {
	if phase == nil {
		phase = func(JobStatus) {}
	}
	if article.Coordinate == nil {
		return nil, fmt.Errorf("%q: %w", article.Title, ErrOriginUnlocated)
	}
	log := s.log.With("title", article.Title)

	res := &Result{
		Origin:   Origin{Title: article.Title, Coordinate: *article.Coordinate},
		Assembly: routes.Assemble(*article.Coordinate, nil, nil),
	}

	phase(StatusExtracting)
	flights, err := extract.Flights(article.Tree, s.opts)
	switch {
	case errors.Is(err, extract.ErrSectionNotFound), errors.Is(err, extract.ErrTableNotFound):
		log.Warn("no destinations data", "reason", err)
		res.Message = noFlightsMessage
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("extract %q: %w", article.Title, err)
	}
	res.Flights = len(flights)
	log.Debug("extracted flights", "flights", len(flights))
	if len(flights) == 0 {
		res.Message = noFlightsMessage
		return res, nil
	}

	phase(StatusResolving)
	keys := routes.DestinationKeys(flights)
	coords := s.resolver.Resolve(ctx, keys)

	res.Assembly = routes.Assemble(*article.Coordinate, flights, coords)
	res.Message = fmt.Sprintf("Displayed %d routes from %s.", len(res.Routes), article.Title)
	if summary := res.Summary(); summary != "" {
		res.Message += " " + summary
	}
	log.Info("routes assembled",
		"flights", len(flights),
		"destinations", res.Destinations,
		"routes", len(res.Routes),
		"unlocated", len(res.Unlocated),
	)
	return res, nil
}

const noFlightsMessage = `No flights found (or could not parse "Airlines and destinations" table).`

// IsNotFound reports whether err is an expected, user-facing miss rather
// than a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, wiki.ErrNotFound) || errors.Is(err, ErrOriginUnlocated)
}

// StatusMessage turns a search error into the text shown to the user.
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOriginUnlocated):
		return "Could not find coordinates for the airport."
	case errors.Is(err, wiki.ErrNotFound):
		return "Airport not found on Wikipedia."
	case errors.Is(err, ErrSuperseded):
		return "Search replaced by a newer one."
	}
	return "An error occurred during processing."
}
