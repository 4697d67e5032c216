package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/city-guide/api-go/config"
	"github.com/city-guide/api-go/maps"
	"github.com/city-guide/api-go/metrics"
	"github.com/city-guide/api-go/routes"
	"github.com/city-guide/api-go/scraper"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePoller struct {
	mu        sync.Mutex
	submitted []scraper.SubmitRequest
	cancelled []string
}

func (p *fakePoller) Submit(_ context.Context, req scraper.SubmitRequest) (*types.ActorRun, error) {
	if req.Token == "" {
		return nil, scraper.ErrTokenRequired
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, req)
	return &types.ActorRun{ID: "run-1", Status: "READY"}, nil
}

func (p *fakePoller) Cancel(runID string) error {
	if runID != "run-1" {
		return fmt.Errorf("%w: %s", scraper.ErrUnknownRun, runID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, runID)
	return nil
}

func (p *fakePoller) Running(string) bool { return false }

type testServer struct {
	router *gin.Engine
	store  *store.Store
	poller *fakePoller
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.New(newTestDB(t))
	poller := &fakePoller{}
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		R2: &config.R2Config{},
	}

	r := gin.New()
	routes.SetupRoutes(r, routes.Dependencies{
		Config:    cfg,
		Store:     st,
		Locations: store.NewCachedLocations(st.Locations, time.Minute, time.Minute),
		Maps:      maps.NewClient("", "http://maps.invalid"),
		Poller:    poller,
		Metrics:   metrics.New(false),
	})
	return &testServer{router: r, store: st, poller: poller}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, out
}

// signUp registers and signs in, returning the access and refresh tokens.
func (s *testServer) signUp(t *testing.T, email string) (string, string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/register", gin.H{"email": email, "password": "secret123"}, "")
	if code != http.StatusCreated {
		t.Fatalf("register = %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPost, "/api/login", gin.H{"email": email, "password": "secret123"}, "")
	if code != http.StatusOK {
		t.Fatalf("login = %d %v", code, body)
	}
	return body["access_token"].(string), body["refresh_token"].(string)
}

func (s *testServer) signUpAdmin(t *testing.T, email string) string {
	t.Helper()
	token, _ := s.signUp(t, email)
	p, err := s.store.Profiles.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.store.Profiles.SetAdmin(context.Background(), p.ID, true); err != nil {
		t.Fatal(err)
	}
	return token
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("no data object in %v", body)
	}
	return d
}

var hotel = gin.H{
	"name":      "Hotel Beyfin",
	"category":  "hotel",
	"address":   "Strada Memorandumului 2, Cluj-Napoca",
	"latitude":  46.7712,
	"longitude": 23.5869,
	"rating":    4.0,
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.signUp(t, "Ana@Example.com")

	if code, _ := s.do(t, http.MethodPost, "/api/register", gin.H{"email": "ana@example.com", "password": "another1"}, ""); code != http.StatusConflict {
		t.Errorf("duplicate register = %d", code)
	}
	if code, body := s.do(t, http.MethodPost, "/api/login", gin.H{"email": "ana@example.com", "password": "wrong"}, ""); code != http.StatusUnauthorized || body["error"] != "Invalid credentials" {
		t.Errorf("bad login = %d %v", code, body)
	}

	code, body := s.do(t, http.MethodGet, "/api/profile", nil, access)
	if code != http.StatusOK || data(t, body)["email"] != "ana@example.com" {
		t.Fatalf("profile = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/session", nil, access)
	if code != http.StatusOK || data(t, body)["state"] != "authenticated-unprivileged" {
		t.Errorf("session = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/refresh-token", gin.H{"refresh_token": refresh}, "")
	if code != http.StatusOK || body["refresh_token"] == refresh {
		t.Fatalf("refresh = %d %v", code, body)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/refresh-token", gin.H{"refresh_token": refresh}, ""); code != http.StatusUnauthorized {
		t.Errorf("reused refresh token = %d", code)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/logout", gin.H{"refresh_token": body["refresh_token"]}, access); code != http.StatusOK {
		t.Errorf("logout = %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/profile", nil, ""); code != http.StatusUnauthorized {
		t.Errorf("anonymous profile = %d", code)
	}
}

func TestAdminRoutesRequirePrivilege(t *testing.T) {
	s := newTestServer(t)
	user, _ := s.signUp(t, "user@example.com")

	if code, _ := s.do(t, http.MethodPost, "/api/admin/locations", hotel, ""); code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d", code)
	}
	code, body := s.do(t, http.MethodPost, "/api/admin/locations", hotel, user)
	if code != http.StatusForbidden || body["error"] != "access denied" {
		t.Errorf("unprivileged = %d %v", code, body)
	}

	admin := s.signUpAdmin(t, "admin@example.com")
	if code, body := s.do(t, http.MethodPost, "/api/admin/locations", hotel, admin); code != http.StatusCreated {
		t.Errorf("privileged = %d %v", code, body)
	}
}

func TestLocationLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")

	code, body := s.do(t, http.MethodPost, "/api/admin/locations", hotel, admin)
	if code != http.StatusCreated {
		t.Fatalf("create = %d %v", code, body)
	}
	created := data(t, body)
	if created["slug"] != "hotel-beyfin" || !strings.HasPrefix(created["placeId"].(string), "manual-") {
		t.Errorf("created = %v", created)
	}
	id := int(created["id"].(float64))

	// populate the caches before writing
	if code, _ := s.do(t, http.MethodGet, "/api/locations?category=hotel", nil, ""); code != http.StatusOK {
		t.Fatalf("list = %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/locations/slug/hotel-beyfin", nil, ""); code != http.StatusOK {
		t.Fatalf("by slug = %d", code)
	}

	code, body = s.do(t, http.MethodGet, "/api/admin/locations/slug-check/hotel-beyfin", nil, admin)
	if code != http.StatusOK || data(t, body)["available"] != false {
		t.Errorf("slug check = %d %v", code, body)
	}

	update := gin.H{}
	for k, v := range hotel {
		update[k] = v
	}
	update["name"] = "Hotel Beyfin Central"
	update["slug"] = "beyfin-central"
	code, body = s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/locations/%d", id), update, admin)
	if code != http.StatusOK {
		t.Fatalf("update = %d %v", code, body)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/locations/slug/hotel-beyfin", nil, ""); code != http.StatusNotFound {
		t.Errorf("old slug served after update: %d", code)
	}
	code, body = s.do(t, http.MethodGet, "/api/locations?category=hotel", nil, "")
	list := body["data"].([]interface{})
	if code != http.StatusOK || len(list) != 1 || list[0].(map[string]interface{})["name"] != "Hotel Beyfin Central" {
		t.Errorf("list after update = %d %v", code, body)
	}

	if code, _ := s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/locations/%d", id), nil, admin); code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, fmt.Sprintf("/api/locations/%d", id), nil, ""); code != http.StatusNotFound {
		t.Errorf("deleted location still served: %d", code)
	}
}

func TestCreateLocationValidation(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")

	bad := gin.H{}
	for k, v := range hotel {
		bad[k] = v
	}
	bad["category"] = "museum"
	code, body := s.do(t, http.MethodPost, "/api/admin/locations", bad, admin)
	if code != http.StatusBadRequest || !strings.Contains(body["error"].(string), "category") {
		t.Errorf("bad category = %d %v", code, body)
	}

	delete(bad, "latitude")
	code, body = s.do(t, http.MethodPost, "/api/admin/locations", bad, admin)
	if code != http.StatusBadRequest || body["error"] != "latitude is required" {
		t.Errorf("missing latitude = %d %v", code, body)
	}
}

func TestPlaceInfoSummary(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")

	_, body := s.do(t, http.MethodPost, "/api/admin/locations", hotel, admin)
	id := int(data(t, body)["id"].(float64))

	code, body := s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/locations/%d/place-info", id), gin.H{
		"source":    "booking",
		"rating":    9.0,
		"amenities": []string{"wifi", "parking"},
	}, admin)
	if code != http.StatusOK {
		t.Fatalf("upsert = %d %v", code, body)
	}
	s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/locations/%d/place-info", id), gin.H{
		"source":    "google",
		"rating":    4.0,
		"amenities": []string{"wifi", "breakfast"},
	}, admin)

	code, body = s.do(t, http.MethodGet, fmt.Sprintf("/api/locations/%d/place-info", id), nil, "")
	if code != http.StatusOK {
		t.Fatalf("summary = %d %v", code, body)
	}
	summary := data(t, body)
	// booking 9/10 -> 4.5, google 4.0
	if summary["compositeScore"] != 4.3 {
		t.Errorf("composite = %v", summary["compositeScore"])
	}
	amenities := summary["amenities"].([]interface{})
	if len(amenities) != 3 || amenities[0] != "breakfast" {
		t.Errorf("amenities = %v", amenities)
	}

	if code, _ := s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/locations/%d/place-info", id), gin.H{"source": "yelp"}, admin); code != http.StatusBadRequest {
		t.Errorf("unknown source = %d", code)
	}
}

func TestFavorites(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")
	user, _ := s.signUp(t, "user@example.com")

	_, body := s.do(t, http.MethodPost, "/api/admin/locations", hotel, admin)
	id := int(data(t, body)["id"].(float64))
	path := fmt.Sprintf("/api/favorites/%d", id)

	if code, _ := s.do(t, http.MethodPost, path, nil, ""); code != http.StatusUnauthorized {
		t.Errorf("anonymous toggle = %d", code)
	}
	code, body := s.do(t, http.MethodPost, path, nil, user)
	if code != http.StatusOK || data(t, body)["isFavorite"] != true {
		t.Fatalf("toggle on = %d %v", code, body)
	}
	_, body = s.do(t, http.MethodGet, "/api/favorites", nil, user)
	if favs := body["data"].([]interface{}); len(favs) != 1 {
		t.Errorf("favorites = %v", favs)
	}
	_, body = s.do(t, http.MethodPost, path, nil, user)
	if data(t, body)["isFavorite"] != false {
		t.Errorf("toggle off = %v", body)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/favorites/9999", nil, user); code != http.StatusNotFound {
		t.Errorf("unknown location = %d", code)
	}
}

func TestIngest(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/ingest/locations", gin.H{"test": true}, "")
	if code != http.StatusOK || body["message"] != "Test successful" {
		t.Errorf("test request = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/ingest/locations", gin.H{"category_id": "bar"}, "")
	if code != http.StatusBadRequest || body["error"] != "Missing required field: name" || body["details"] != "Please make sure your payload includes all required fields" {
		t.Errorf("missing field = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/ingest/locations", gin.H{
		"name":        "Casa Tiberiu",
		"category_id": "restaurant",
		"address":     "Strada Avram Iancu 6, Cluj-Napoca",
		"latitude":    46.7685,
		"longitude":   23.5942,
	}, "")
	if code != http.StatusOK {
		t.Fatalf("ingest = %d %v", code, body)
	}
	rows := body["data"].([]interface{})
	loc := rows[0].(map[string]interface{})
	if loc["slug"] != "casa-tiberiu" || !strings.HasPrefix(loc["placeId"].(string), "auto-") {
		t.Errorf("ingested = %v", loc)
	}

	record := gin.H{
		"name":        "Baracca",
		"category_id": "restaurant",
		"address":     "Strada Napoca 8, Cluj-Napoca",
		"latitude":    46.7697,
		"longitude":   23.5862,
		"place_id":    "ChIJ-baracca",
	}
	if code, body := s.do(t, http.MethodPost, "/api/ingest/locations", record, ""); code != http.StatusOK {
		t.Fatalf("first ingest = %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPost, "/api/ingest/locations", record, "")
	if code != http.StatusBadRequest || !strings.Contains(body["error"].(string), "place_id") || body["details"] == nil {
		t.Errorf("duplicate place_id = %d %v", code, body)
	}
}

func TestScrapeRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")

	code, body := s.do(t, http.MethodPost, "/api/admin/scrape", gin.H{"actorId": "apify/google-places-scraper"}, admin)
	if code != http.StatusBadRequest || body["error"] != "Apify token is required" {
		t.Errorf("missing token = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/admin/scrape", gin.H{
		"token":        "apify_api_x",
		"searchParams": gin.H{"queries": "bars in Cluj-Napoca"},
	}, admin)
	if code != http.StatusAccepted {
		t.Fatalf("start = %d %v", code, body)
	}
	if body["success"] != true || body["runId"] != "run-1" || body["status"] != "PENDING" || body["message"] != "Apify job started successfully" {
		t.Errorf("accepted body = %v", body)
	}
	s.poller.mu.Lock()
	if len(s.poller.submitted) != 1 || s.poller.submitted[0].StartedBy == 0 || s.poller.submitted[0].Input["queries"] != "bars in Cluj-Napoca" {
		t.Errorf("submitted = %+v", s.poller.submitted)
	}
	s.poller.mu.Unlock()

	if code, _ := s.do(t, http.MethodDelete, "/api/admin/scrape/runs/run-9", nil, admin); code != http.StatusNotFound {
		t.Errorf("cancel unknown = %d", code)
	}
	if code, _ := s.do(t, http.MethodDelete, "/api/admin/scrape/runs/run-1", nil, admin); code != http.StatusOK {
		t.Errorf("cancel = %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/admin/scrape/runs/run-9", nil, admin); code != http.StatusNotFound {
		t.Errorf("get unknown run = %d", code)
	}
}

func TestPublicReads(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")
	s.do(t, http.MethodPost, "/api/admin/locations", hotel, admin)

	code, body := s.do(t, http.MethodGet, "/api/categories", nil, "")
	if cats := body["data"].([]interface{}); code != http.StatusOK || len(cats) != 5 {
		t.Errorf("categories = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/locations/search?q=beyfin", nil, "")
	if code != http.StatusOK || len(body["data"].([]interface{})) != 1 {
		t.Errorf("search = %d %v", code, body)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/locations/search", nil, ""); code != http.StatusBadRequest {
		t.Errorf("empty search = %d", code)
	}

	code, body = s.do(t, http.MethodGet, "/api/locations/nearby?latitude=46.77&longitude=23.59&limit=3", nil, "")
	if code != http.StatusOK || len(body["data"].([]interface{})) != 1 {
		t.Errorf("nearby = %d %v", code, body)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/locations/nearby?longitude=23.59", nil, ""); code != http.StatusBadRequest {
		t.Errorf("nearby without latitude = %d", code)
	}

	code, body = s.do(t, http.MethodGet, "/api/locations?page=1&pageSize=10", nil, "")
	if code != http.StatusOK || body["pagination"].(map[string]interface{})["totalItems"] != 1.0 {
		t.Errorf("paginated list = %d %v", code, body)
	}
}

func TestMapsProxyWithoutKey(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")

	code, _ := s.do(t, http.MethodPost, "/api/admin/maps", gin.H{"action": "geocode", "params": gin.H{"address": "Cluj"}}, admin)
	if code != http.StatusServiceUnavailable {
		t.Errorf("geocode without key = %d", code)
	}
	code, _ = s.do(t, http.MethodPost, "/api/admin/maps", gin.H{"action": "teleport"}, admin)
	if code != http.StatusBadRequest {
		t.Errorf("unknown action = %d", code)
	}
}

func TestSetAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.signUpAdmin(t, "admin@example.com")
	user, _ := s.signUp(t, "user@example.com")
	p, _ := s.store.Profiles.GetByEmail(context.Background(), "user@example.com")

	code, body := s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/admin", p.ID), gin.H{"isAdmin": true}, admin)
	if code != http.StatusOK || data(t, body)["isAdmin"] != true {
		t.Fatalf("set admin = %d %v", code, body)
	}
	code, body = s.do(t, http.MethodGet, "/api/session", nil, user)
	if data(t, body)["state"] != "authenticated-privileged" {
		t.Errorf("promoted session = %d %v", code, body)
	}
}
