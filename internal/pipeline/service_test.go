package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/wikiroutes/internal/doctree"
	"github.com/dgallion1/wikiroutes/internal/extract"
	"github.com/dgallion1/wikiroutes/internal/model"
	"github.com/dgallion1/wikiroutes/internal/wiki"
)

const airportPage = `<div class="mw-parser-output">
<h2 id="Airlines_and_destinations">Airlines and destinations</h2>
<h3>Passenger</h3>
<table class="wikitable">
<tr><th>Airlines</th><th>Destinations</th></tr>
<tr><td rowspan="2">Alpha Air</td><td><a href="/wiki/X" title="X">X</a></td></tr>
<tr><td><a href="/wiki/Y" title="Y">Y</a>, <a href="/wiki/Lost" title="Lost">Lost</a></td></tr>
<tr><td>Beta Air</td><td><a href="/wiki/X" title="X">X</a></td></tr>
</table>
</div>`

type fakeArticles struct {
	title    string
	html     string
	coord    *model.Coordinate
	err      error
	block    chan struct{}
	searched []string
	mu       sync.Mutex
}

func (f *fakeArticles) Search(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.searched = append(f.searched, query)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.title, nil
}

func (f *fakeArticles) FetchArticle(_ context.Context, title string) (*wiki.Article, error) {
	tree, err := doctree.ParseString(f.html)
	if err != nil {
		return nil, err
	}
	return &wiki.Article{Title: title, Tree: tree, Coordinate: f.coord}, nil
}

type fakeResolver struct {
	coords map[string]model.Coordinate
	asked  []string
}

func (f *fakeResolver) Resolve(_ context.Context, ids []string) map[string]model.Coordinate {
	f.asked = append(f.asked, ids...)
	out := make(map[string]model.Coordinate)
	for _, id := range ids {
		if c, ok := f.coords[id]; ok {
			out[id] = c
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(articles ArticleSource) (*Service, *fakeResolver) {
	res := &fakeResolver{coords: map[string]model.Coordinate{
		"X": {Lat: 10, Lon: 20},
		"Y": {Lat: -5, Lon: 100},
	}}
	return NewService(articles, res, extract.DefaultOptions(), testLogger()), res
}

func TestService_Search(t *testing.T) {
	articles := &fakeArticles{title: "Test Airport", html: airportPage, coord: &model.Coordinate{Lat: 1, Lon: 2}}
	svc, resolver := newTestService(articles)

	var phases []JobStatus
	res, err := svc.Search(context.Background(), "TST", func(s JobStatus) { phases = append(phases, s) })
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	wantPhases := []JobStatus{StatusSearching, StatusFetching, StatusExtracting, StatusResolving}
	if len(phases) != len(wantPhases) {
		t.Fatalf("phases = %v, want %v", phases, wantPhases)
	}
	for i := range wantPhases {
		if phases[i] != wantPhases[i] {
			t.Errorf("phase[%d] = %q, want %q", i, phases[i], wantPhases[i])
		}
	}

	if res.Query != "TST" || res.Origin.Title != "Test Airport" {
		t.Errorf("query/origin = %q/%q", res.Query, res.Origin.Title)
	}
	if res.Flights != 4 {
		t.Errorf("flights = %d, want 4", res.Flights)
	}
	if len(resolver.asked) != 3 {
		t.Errorf("resolver asked for %v, want 3 distinct keys", resolver.asked)
	}
	if len(res.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(res.Routes))
	}
	if got := res.Routes[0].Label(); got != "Alpha Air, Beta Air: X" {
		t.Errorf("label = %q", got)
	}
	if len(res.Unlocated) != 1 || res.Unlocated[0] != "Lost" {
		t.Errorf("unlocated = %v, want [Lost]", res.Unlocated)
	}
	want := "Displayed 2 routes from Test Airport. 1 of 3 destinations could not be located."
	if res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
}

func TestService_OriginWithoutCoordinates(t *testing.T) {
	svc, _ := newTestService(&fakeArticles{title: "Nowhere", html: airportPage})

	_, err := svc.Search(context.Background(), "nowhere", nil)
	if !errors.Is(err, ErrOriginUnlocated) {
		t.Fatalf("err = %v, want ErrOriginUnlocated", err)
	}
	if !IsNotFound(err) {
		t.Error("expected unlocated origin to count as not found")
	}
}

func TestService_NoDestinationsTable(t *testing.T) {
	articles := &fakeArticles{
		title: "Tiny Strip",
		html:  `<h2>History</h2><p>No scheduled service.</p>`,
		coord: &model.Coordinate{Lat: 1, Lon: 2},
	}
	svc, resolver := newTestService(articles)

	res, err := svc.Search(context.Background(), "tiny", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Routes) != 0 || len(res.Unlocated) != 0 {
		t.Errorf("expected empty result, got %+v", res.Assembly)
	}
	if res.Message != noFlightsMessage {
		t.Errorf("message = %q", res.Message)
	}
	if len(resolver.asked) != 0 {
		t.Error("resolver should not be called without flights")
	}
}

func TestStatusMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{wiki.ErrNotFound, "Airport not found on Wikipedia."},
		{ErrOriginUnlocated, "Could not find coordinates for the airport."},
		{ErrSuperseded, "Search replaced by a newer one."},
		{errors.New("boom"), "An error occurred during processing."},
	}
	for _, tc := range cases {
		if got := StatusMessage(tc.err); got != tc.want {
			t.Errorf("StatusMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWorker_ProcessOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		articles *fakeArticles
		want     JobStatus
	}{
		{
			name:     "completed",
			articles: &fakeArticles{title: "Test Airport", html: airportPage, coord: &model.Coordinate{Lat: 1, Lon: 2}},
			want:     StatusCompleted,
		},
		{
			name:     "not found",
			articles: &fakeArticles{err: wiki.ErrNotFound},
			want:     StatusNotFound,
		},
		{
			name:     "failed",
			articles: &fakeArticles{err: &wiki.StatusError{Endpoint: "opensearch", StatusCode: 503}},
			want:     StatusFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(tc.articles)
			store := NewJobStore(time.Hour)
			job := store.NewJob("s", "q")

			NewWorker(svc, store, testLogger()).Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status != tc.want {
				t.Errorf("status = %q, want %q", snap.Status, tc.want)
			}
			if (snap.Result != nil) != (tc.want == StatusCompleted) {
				t.Errorf("result presence wrong for %q", snap.Status)
			}
		})
	}
}

func TestWorker_StaleSearchNeverPublishes(t *testing.T) {
	articles := &fakeArticles{
		title: "Test Airport",
		html:  airportPage,
		coord: &model.Coordinate{Lat: 1, Lon: 2},
		block: make(chan struct{}),
	}
	svc, _ := newTestService(articles)
	store := NewJobStore(time.Hour)
	worker := NewWorker(svc, store, testLogger())

	first := store.NewJob("s", "first")
	done := make(chan struct{})
	go func() {
		worker.Process(context.Background(), first)
		close(done)
	}()

	// Wait until the first search is in flight.
	deadline := time.Now().Add(2 * time.Second)
	for {
		articles.mu.Lock()
		n := len(articles.searched)
		articles.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first search never started")
		}
		time.Sleep(time.Millisecond)
	}

	second := store.NewJob("s", "second")
	<-done

	if got := first.Snapshot(); got.Status != StatusSuperseded || got.Result != nil {
		t.Errorf("first = %+v, want superseded without result", got)
	}

	close(articles.block)
	worker.Process(context.Background(), second)
	got := second.Snapshot()
	if got.Status != StatusCompleted || got.Result == nil {
		t.Fatalf("second = %+v, want completed", got)
	}
	if !strings.HasPrefix(got.Message, "Displayed 2 routes") {
		t.Errorf("message = %q", got.Message)
	}
}

func TestWorker_SkipsAlreadySupersededJob(t *testing.T) {
	articles := &fakeArticles{title: "Test Airport", html: airportPage, coord: &model.Coordinate{Lat: 1, Lon: 2}}
	svc, _ := newTestService(articles)
	store := NewJobStore(time.Hour)

	old := store.NewJob("s", "old")
	store.NewJob("s", "new")

	NewWorker(svc, store, testLogger()).Process(context.Background(), old)

	if got := old.Snapshot().Status; got != StatusSuperseded {
		t.Errorf("status = %q, want superseded", got)
	}
	if len(articles.searched) != 0 {
		t.Error("superseded job should not reach the article source")
	}
}
