package scraper_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/scraper"
	"github.com/city-guide/api-go/types"
)

// fakeActorAPI serves a scripted sequence of run statuses.
type fakeActorAPI struct {
	statuses []string
	dataset  string

	statusCalls  int32
	datasetCalls int32

	mu        sync.Mutex
	startBody string
	startPath string
	auth      string
}

func (f *fakeActorAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/runs"):
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.startBody = string(body)
			f.startPath = r.URL.Path
			f.auth = r.Header.Get("Authorization")
			f.mu.Unlock()
			w.Write([]byte(`{"data":{"id":"run-1","status":"READY"}}`))
		case strings.HasSuffix(r.URL.Path, "/dataset/items"):
			atomic.AddInt32(&f.datasetCalls, 1)
			w.Write([]byte(f.dataset))
		case strings.HasPrefix(r.URL.Path, "/actor-runs/run-1"):
			n := int(atomic.AddInt32(&f.statusCalls, 1))
			status := f.statuses[len(f.statuses)-1]
			if n <= len(f.statuses) {
				status = f.statuses[n-1]
			}
			json.NewEncoder(w).Encode(types.ActorRunEnvelope{Data: types.ActorRun{ID: "run-1", Status: status}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

type memoryLocations struct {
	mu      sync.Mutex
	byPlace map[string]models.Location
	writes  int
}

func (m *memoryLocations) UpsertByPlaceID(_ context.Context, loc *models.Location) (*models.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byPlace == nil {
		m.byPlace = map[string]models.Location{}
	}
	m.writes++
	prev, ok := m.byPlace[loc.PlaceID]
	m.byPlace[loc.PlaceID] = *loc
	if ok {
		return &prev, nil
	}
	return nil, nil
}

type memoryRuns struct {
	mu   sync.Mutex
	last models.ScrapeRun
}

func (m *memoryRuns) Create(_ context.Context, run *models.ScrapeRun) error {
	m.mu.Lock()
	m.last = *run
	m.mu.Unlock()
	return nil
}

func (m *memoryRuns) Update(_ context.Context, run *models.ScrapeRun) error {
	return m.Create(context.TODO(), run)
}

type countingObserver struct {
	started, finished int32
}

func (o *countingObserver) RunStarted()             { atomic.AddInt32(&o.started, 1) }
func (o *countingObserver) RunFinished(string, int) { atomic.AddInt32(&o.finished, 1) }

type harness struct {
	api       *fakeActorAPI
	poller    *scraper.Poller
	locations *memoryLocations
	runs      *memoryRuns
	observer  *countingObserver
	sleeps    int32
}

func newHarness(t *testing.T, statuses []string, dataset string) *harness {
	t.Helper()
	h := &harness{
		api:       &fakeActorAPI{statuses: statuses, dataset: dataset},
		locations: &memoryLocations{},
		runs:      &memoryRuns{},
		observer:  &countingObserver{},
	}
	srv := httptest.NewServer(h.api.handler(t))
	t.Cleanup(srv.Close)

	h.poller = scraper.NewPoller(scraper.NewClient(srv.URL), h.locations, scraper.Options{
		PollInterval:   10 * time.Second,
		MaxAttempts:    30,
		DefaultActorID: "apify/google-places-scraper",
		DefaultInput:   types.ScrapeSearchParams{Queries: "restaurants in Cluj-Napoca", Language: "en", MaxCrawledPlaces: 10},
		Runs:           h.runs,
		Observer:       h.observer,
	})
	h.poller.Sleep = func(ctx context.Context, d time.Duration) error {
		if d != 10*time.Second {
			t.Errorf("slept %s", d)
		}
		atomic.AddInt32(&h.sleeps, 1)
		return ctx.Err()
	}
	t.Cleanup(h.poller.Stop)
	return h
}

func (h *harness) run(t *testing.T) scraper.Outcome {
	t.Helper()
	run, err := h.poller.Submit(context.Background(), scraper.SubmitRequest{Token: "secret"})
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := h.poller.Wait(ctx, run.ID)
	if err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	return out
}

const twoPlaces = `[
	{"placeId":"p1","title":"Grand Hotel Italia","categories":["Hotel"],"address":"Trifoiului 2","location":{"lat":46.75,"lng":23.57},"totalScore":4.5,"price":"$$$"},
	{"placeId":"p2","title":"Roata","categories":["Romanian restaurant","restaurant"],"address":"Cardinal Iuliu Hossu 6","lat":46.77,"lng":23.59}
]`

func TestPollerSucceedsAfterRunning(t *testing.T) {
	h := newHarness(t, []string{"RUNNING", "RUNNING", "SUCCEEDED"}, twoPlaces)

	out := h.run(t)

	if out.Err != nil || out.Status != models.RunStatusSucceeded {
		t.Fatalf("outcome = %+v", out)
	}
	if got := atomic.LoadInt32(&h.api.statusCalls); got != 3 {
		t.Errorf("status checks = %d, want 3", got)
	}
	if got := atomic.LoadInt32(&h.api.datasetCalls); got != 1 {
		t.Errorf("dataset fetches = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&h.sleeps); got != 2 {
		t.Errorf("sleeps = %d, want 2", got)
	}
	if out.Processed != 2 || len(h.locations.byPlace) != 2 {
		t.Errorf("processed = %d, stored = %d", out.Processed, len(h.locations.byPlace))
	}

	hotel := h.locations.byPlace["p1"]
	if hotel.CategoryID != models.CategoryHotel || hotel.Slug != "grand-hotel-italia" || *hotel.PriceLevel != 3 {
		t.Errorf("hotel mapped to %+v", hotel)
	}
	if h.locations.byPlace["p2"].CategoryID != models.CategoryRestaurant {
		t.Errorf("restaurant mapped to %s", h.locations.byPlace["p2"].CategoryID)
	}

	if h.runs.last.Status != models.RunStatusSucceeded || h.runs.last.Processed != 2 || h.runs.last.FinishedAt == nil {
		t.Errorf("recorded run = %+v", h.runs.last)
	}
	if h.observer.started != 1 || h.observer.finished != 1 {
		t.Errorf("observer = %+v", h.observer)
	}

	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	if h.api.startPath != "/acts/apify~google-places-scraper/runs" || h.api.auth != "Bearer secret" {
		t.Errorf("start request %s auth=%q", h.api.startPath, h.api.auth)
	}
	if !strings.Contains(h.api.startBody, `"queries":"restaurants in Cluj-Napoca"`) {
		t.Errorf("default input not sent: %s", h.api.startBody)
	}
}

func TestPollerStopsOnFailure(t *testing.T) {
	h := newHarness(t, []string{"FAILED"}, twoPlaces)

	out := h.run(t)

	if !errors.Is(out.Err, scraper.ErrRunFailed) || out.Status != models.RunStatusFailed {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.Contains(out.Err.Error(), "FAILED") {
		t.Errorf("error does not name the status: %v", out.Err)
	}
	if got := atomic.LoadInt32(&h.api.statusCalls); got != 1 {
		t.Errorf("status checks = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&h.api.datasetCalls); got != 0 {
		t.Errorf("dataset fetched %d times after failure", got)
	}
	if h.runs.last.Error == "" {
		t.Error("failure not recorded")
	}
}

func TestPollerTimesOut(t *testing.T) {
	h := newHarness(t, []string{"RUNNING"}, "[]")

	out := h.run(t)

	if !errors.Is(out.Err, scraper.ErrRunTimeout) {
		t.Fatalf("outcome = %+v", out)
	}
	if got := atomic.LoadInt32(&h.api.statusCalls); got != 30 {
		t.Errorf("status checks = %d, want 30", got)
	}
	if out.Attempts != 30 {
		t.Errorf("attempts = %d", out.Attempts)
	}
	if got := atomic.LoadInt32(&h.api.datasetCalls); got != 0 {
		t.Errorf("dataset fetched after timeout")
	}
}

func TestPollerSkipsBadRecords(t *testing.T) {
	dataset := `[
		{"placeId":"p1","title":"Old","lat":46.7,"lng":23.5},
		{"placeId":"p2","title":"No coordinates"},
		{"placeId":"p1","title":"New","lat":46.7,"lng":23.5}
	]`
	h := newHarness(t, []string{"SUCCEEDED"}, dataset)

	out := h.run(t)

	if out.Processed != 2 {
		t.Errorf("processed = %d, want 2", out.Processed)
	}
	if len(h.locations.byPlace) != 1 || h.locations.byPlace["p1"].Name != "New" {
		t.Errorf("stored = %+v", h.locations.byPlace)
	}
}

func TestPollerCancel(t *testing.T) {
	h := newHarness(t, []string{"RUNNING"}, "[]")
	sleeping := make(chan struct{}, 1)
	h.poller.Sleep = func(ctx context.Context, _ time.Duration) error {
		sleeping <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}

	run, err := h.poller.Submit(context.Background(), scraper.SubmitRequest{Token: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	<-sleeping
	if !h.poller.Running(run.ID) {
		t.Error("run should still be followed")
	}
	if err := h.poller.Cancel(run.ID); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := h.poller.Wait(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(out.Err, scraper.ErrCancelled) || out.Status != models.RunStatusCancelled {
		t.Errorf("outcome = %+v", out)
	}
	if got := atomic.LoadInt32(&h.api.statusCalls); got != 1 {
		t.Errorf("status checks after cancel = %d", got)
	}
}

func TestSubmitRequiresToken(t *testing.T) {
	h := newHarness(t, []string{"SUCCEEDED"}, "[]")
	if _, err := h.poller.Submit(context.Background(), scraper.SubmitRequest{}); !errors.Is(err, scraper.ErrTokenRequired) {
		t.Fatalf("Submit() = %v", err)
	}
	if err := h.poller.Cancel("nope"); !errors.Is(err, scraper.ErrUnknownRun) {
		t.Errorf("Cancel(unknown) = %v", err)
	}
}

func TestStartRunAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"token-not-valid"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := scraper.NewClient(srv.URL).StartRun(context.Background(), "bad", "apify/x", map[string]interface{}{})
	var apiErr *scraper.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("StartRun() = %v", err)
	}
}
