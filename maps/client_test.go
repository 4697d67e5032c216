package maps_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/city-guide/api-go/maps"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
)

func newServer(t *testing.T, handler http.HandlerFunc) *maps.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return maps.NewClient("test-key", srv.URL)
}

func TestGeocode(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" || r.URL.Query().Get("address") != "Strada Memorandumului 2" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Strada Memorandumului 2, Cluj-Napoca","place_id":"abc","geometry":{"location":{"lat":46.77,"lng":23.59}}}]}`))
	})

	out, err := client.Geocode(context.Background(), "Strada Memorandumului 2")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 || out.Results[0].Geometry.Location.Lat != 46.77 {
		t.Errorf("unexpected result %+v", out)
	}
}

func TestBadStatusIsServiceError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`))
	})

	_, err := client.Geocode(context.Background(), "x")
	var serr *maps.ServiceError
	if !errors.As(err, &serr) || serr.Status != "REQUEST_DENIED" {
		t.Fatalf("Geocode() = %v, want REQUEST_DENIED service error", err)
	}
}

func TestZeroResultsIsNotAnError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	out, err := client.SearchNearby(context.Background(), maps.NearbyParams{Lat: 1, Lng: 2, Radius: 100})
	if err != nil || len(out.Results) != 0 {
		t.Fatalf("SearchNearby() = %+v, %v", out, err)
	}
}

func TestHTTPErrorIsServiceError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.PlaceDetails(context.Background(), "abc")
	var serr *maps.ServiceError
	if !errors.As(err, &serr) || serr.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("PlaceDetails() = %v", err)
	}
}

func TestMissingKey(t *testing.T) {
	client := maps.NewClient("", "http://127.0.0.1:1")
	if _, err := client.Geocode(context.Background(), "x"); !errors.Is(err, maps.ErrNotConfigured) {
		t.Fatalf("Geocode() = %v", err)
	}
}

func TestDispatch(t *testing.T) {
	var gotQuery string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("location") + "|" + r.URL.Query().Get("radius") + "|" + r.URL.Query().Get("type")
		w.Write([]byte(`{"status":"OK","results":[{"name":"Joben","place_id":"p1","types":["bar"]}]}`))
	})

	tests := []struct {
		name   string
		params string
		want   string
	}{
		{"object location", `{"location":{"lat":46.77,"lng":23.6},"radius":500,"type":"bar"}`, "46.77,23.6|500|bar"},
		{"string location", `{"location":"46.77, 23.6","type":"bar"}`, "46.77,23.6|1500|bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := maps.Dispatch(context.Background(), client, maps.Request{Action: maps.ActionSearchNearby, Params: json.RawMessage(tt.params)})
			if err != nil {
				t.Fatal(err)
			}
			if res.Nearby == nil || res.Nearby.Results[0].PlaceID != "p1" {
				t.Errorf("result = %+v", res)
			}
			if gotQuery != tt.want {
				t.Errorf("query = %s, want %s", gotQuery, tt.want)
			}
		})
	}
}

func TestDispatchRejectsBadRequests(t *testing.T) {
	client := maps.NewClient("key", "http://127.0.0.1:1")

	_, err := maps.Dispatch(context.Background(), client, maps.Request{Action: "textSearch", Params: json.RawMessage(`{}`)})
	if !errors.Is(err, maps.ErrUnknownAction) {
		t.Errorf("unknown action: %v", err)
	}

	var verr *types.ValidationError
	_, err = maps.Dispatch(context.Background(), client, maps.Request{Action: maps.ActionGetPlaceDetails, Params: json.RawMessage(`{}`)})
	if !errors.As(err, &verr) || verr.Field != "placeId" {
		t.Errorf("missing placeId: %v", err)
	}
	_, err = maps.Dispatch(context.Background(), client, maps.Request{Action: maps.ActionSearchNearby, Params: json.RawMessage(`{"location":"nowhere"}`)})
	if !errors.As(err, &verr) || verr.Field != "location" {
		t.Errorf("bad location: %v", err)
	}
}

func TestToLocation(t *testing.T) {
	var resp types.PlaceDetailsResponse
	raw := `{"status":"OK","result":{
		"place_id":"ChIJ1","name":"Hotel Melody Central","formatted_address":"Piața Unirii 29",
		"geometry":{"location":{"lat":46.769,"lng":23.589}},
		"types":["lodging","point_of_interest"],"rating":4.1,"price_level":2,
		"opening_hours":{"open_now":true},
		"photos":[{"photo_reference":"ref1","width":800,"height":600,"html_attributions":["A"]}],
		"reviews":[{"author_name":"Ioana","rating":5,"text":"Great","time":1700000000}],
		"editorial_summary":{"overview":"Central hotel"}}}`
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}

	loc := maps.ToLocation(resp.Result)

	if loc.CategoryID != models.CategoryHotel || loc.Slug != "hotel-melody-central" {
		t.Errorf("category/slug = %s/%s", loc.CategoryID, loc.Slug)
	}
	if loc.OpenNow == nil || !*loc.OpenNow || *loc.PriceLevel != 2 || loc.EditorialSummary != "Central hotel" {
		t.Errorf("unexpected listing %+v", loc)
	}
	if len(loc.Photos) != 1 || loc.Photos[0].Attribution != "A" || len(loc.Reviews) != 1 {
		t.Errorf("children = %+v / %+v", loc.Photos, loc.Reviews)
	}
}

func TestCategoryFromTypes(t *testing.T) {
	tests := map[string]struct {
		in   []string
		want models.LocationCategory
	}{
		"restaurant": {[]string{"food", "restaurant"}, models.CategoryRestaurant},
		"night club": {[]string{"night_club"}, models.CategoryNightClub},
		"fallback":   {[]string{"museum"}, models.CategoryTouristAttraction},
		"empty":      {nil, models.DefaultCategory},
	}
	for name, tt := range tests {
		if got := maps.CategoryFromTypes(tt.in); got != tt.want {
			t.Errorf("%s: got %s, want %s", name, got, tt.want)
		}
	}
}
