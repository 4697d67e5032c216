package store_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/city-guide/api-go/config"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func newLocation(name string, category models.LocationCategory) *models.Location {
	return &models.Location{
		Name:       name,
		CategoryID: category,
		Address:    "Piața Unirii 1, Cluj-Napoca",
		Latitude:   46.7694,
		Longitude:  23.5899,
	}
}

func TestCreateGeneratesUniqueSlugAndPlaceID(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()

	first := newLocation("Grand Hotel", models.CategoryHotel)
	second := newLocation("Grand Hotel", models.CategoryHotel)
	if err := s.Locations.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := s.Locations.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	if first.Slug != "grand-hotel" || second.Slug != "grand-hotel-2" {
		t.Errorf("slugs = %q, %q", first.Slug, second.Slug)
	}
	if first.PlaceID == "" || first.PlaceID == second.PlaceID {
		t.Errorf("place ids = %q, %q", first.PlaceID, second.PlaceID)
	}
}

func TestCreateRejectsTakenExplicitSlug(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()

	if err := s.Locations.Create(ctx, newLocation("Casa Boema", models.CategoryRestaurant)); err != nil {
		t.Fatal(err)
	}
	dup := newLocation("Another", models.CategoryRestaurant)
	dup.Slug = "casa-boema"

	if err := s.Locations.Create(ctx, dup); !errors.Is(err, store.ErrSlugTaken) {
		t.Fatalf("Create() = %v, want ErrSlugTaken", err)
	}
	ok, err := s.Locations.SlugAvailable(ctx, "casa-boema", 0)
	if err != nil || ok {
		t.Errorf("SlugAvailable() = %v, %v", ok, err)
	}
}

func TestCreateValidates(t *testing.T) {
	s := store.New(newTestDB(t))

	tests := []struct {
		name  string
		mod   func(*models.Location)
		field string
	}{
		{"unknown category", func(l *models.Location) { l.CategoryID = "museum" }, "category"},
		{"latitude out of range", func(l *models.Location) { l.Latitude = 91 }, "latitude"},
		{"longitude out of range", func(l *models.Location) { l.Longitude = -181 }, "longitude"},
		{"missing name", func(l *models.Location) { l.Name = " " }, "name"},
		{"price level", func(l *models.Location) { l.PriceLevel = intPtr(5) }, "priceLevel"},
		{"website", func(l *models.Location) { l.Website = "ftp://example.com" }, "website"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := newLocation("Test", models.CategoryBar)
			tt.mod(loc)
			err := s.Locations.Create(context.Background(), loc)
			var verr *types.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("Create() = %v, want validation error on %s", err, tt.field)
			}
		})
	}
}

func TestCreateRejectsDuplicatePlaceID(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()

	first := newLocation("Baracca", models.CategoryRestaurant)
	first.PlaceID = "ChIJ-dup"
	if err := s.Locations.Create(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := newLocation("Baracca Bis", models.CategoryRestaurant)
	second.PlaceID = "ChIJ-dup"
	err := s.Locations.Create(ctx, second)
	var verr *types.ValidationError
	if !errors.As(err, &verr) || verr.Field != "place_id" {
		t.Fatalf("Create(duplicate place id) = %v, want validation error on place_id", err)
	}
}

func TestUpsertByPlaceIDKeepsOneRecord(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	loc := newLocation("Old Name", models.CategoryRestaurant)
	loc.PlaceID = "ChIJ-test"
	loc.Rating = floatPtr(3.9)
	loc.Photos = []models.LocationPhoto{{PhotoReference: "p1"}}
	if _, err := s.Locations.UpsertByPlaceID(ctx, loc); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	firstID := loc.ID

	again := newLocation("New Name", models.CategoryBar)
	again.PlaceID = "ChIJ-test"
	again.Rating = floatPtr(4.6)
	again.Photos = []models.LocationPhoto{{PhotoReference: "p2"}, {PhotoReference: "p3"}}
	previous, err := s.Locations.UpsertByPlaceID(ctx, again)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if previous == nil || previous.Name != "Old Name" {
		t.Errorf("previous = %+v", previous)
	}

	var count int64
	db.Model(&models.Location{}).Where("place_id = ?", "ChIJ-test").Count(&count)
	if count != 1 {
		t.Fatalf("stored %d records, want 1", count)
	}

	got, err := s.Locations.GetByPlaceID(ctx, "ChIJ-test")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != firstID || got.Name != "New Name" || got.CategoryID != models.CategoryBar || *got.Rating != 4.6 {
		t.Errorf("second write did not win: %+v", got)
	}
	if got.Slug != "old-name" {
		t.Errorf("slug = %q, want the existing slug kept", got.Slug)
	}

	full, _ := s.Locations.GetByID(ctx, firstID)
	if len(full.Photos) != 2 {
		t.Errorf("photos = %d, want replaced with 2", len(full.Photos))
	}
}

func TestNearbyOrdersByDistance(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()

	far := newLocation("Far", models.CategoryBar)
	far.Latitude, far.Longitude = 47.1585, 27.6014 // Iasi
	near := newLocation("Near", models.CategoryBar)
	near.Latitude, near.Longitude = 46.7712, 23.6236
	for _, l := range []*models.Location{far, near} {
		if err := s.Locations.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Locations.Nearby(ctx, 46.7700, 23.6000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Near" {
		t.Fatalf("Nearby() = %+v", got)
	}
	if got[0].Distance <= 0 || got[0].Distance > 5 {
		t.Errorf("distance = %f km", got[0].Distance)
	}
}

func TestHaversine(t *testing.T) {
	// Cluj-Napoca to Bucharest is roughly 324 km
	d := store.Haversine(46.7712, 23.6236, 44.4268, 26.1025)
	if d < 315 || d > 335 {
		t.Errorf("Haversine() = %f", d)
	}
	if store.Haversine(1, 1, 1, 1) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestDeleteRemovesChildren(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	loc := newLocation("Gone", models.CategoryHotel)
	loc.PlaceID = "gone"
	loc.Photos = []models.LocationPhoto{{PhotoReference: "p"}}
	if _, err := s.Locations.UpsertByPlaceID(ctx, loc); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Favorites.Toggle(ctx, 1, loc.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Locations.Delete(ctx, loc.ID); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if _, err := s.Locations.GetByID(ctx, loc.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByID() after delete = %v", err)
	}
	var photos, favs int64
	db.Model(&models.LocationPhoto{}).Count(&photos)
	db.Model(&models.UserFavorite{}).Count(&favs)
	if photos != 0 || favs != 0 {
		t.Errorf("children left behind: photos=%d favorites=%d", photos, favs)
	}
	if _, err := s.Locations.Delete(ctx, loc.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete() = %v", err)
	}
}

func TestCategoriesAreSeeded(t *testing.T) {
	s := store.New(newTestDB(t))

	got, err := s.Locations.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(models.AllCategories) {
		t.Fatalf("got %d categories", len(got))
	}
	if got[0].ID != models.CategoryHotel || got[0].Name != "Hotels" {
		t.Errorf("first category = %+v", got[0])
	}
}

func TestSearchMatchesNameAndAddress(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()

	a := newLocation("Roata", models.CategoryRestaurant)
	b := newLocation("Joben Bistro", models.CategoryBar)
	b.Address = "Avram Iancu 8"
	for _, l := range []*models.Location{a, b} {
		if err := s.Locations.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Locations.Search(ctx, "iancu", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Joben Bistro" {
		t.Errorf("Search() = %+v", got)
	}
	got, _ = s.Locations.Search(ctx, "o", models.CategoryRestaurant, 10)
	if len(got) != 1 || got[0].Name != "Roata" {
		t.Errorf("Search() with category = %+v", got)
	}
}

func TestScrapeRunsListNewestFirst(t *testing.T) {
	s := store.New(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b"} {
		run := &models.ScrapeRun{RunID: id, ActorID: "actor", Status: models.RunStatusPending, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.ScrapeRuns.Create(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ScrapeRuns.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].RunID != "run-b" {
		t.Errorf("List() = %+v", runs)
	}

	runs[0].Status = models.RunStatusSucceeded
	runs[0].Processed = 4
	if err := s.ScrapeRuns.Update(ctx, &runs[0]); err != nil {
		t.Fatal(err)
	}
	got, err := s.ScrapeRuns.Get(ctx, "run-b")
	if err != nil || got.Status != models.RunStatusSucceeded || got.Processed != 4 {
		t.Errorf("Get() = %+v, %v", got, err)
	}
	if _, err := s.ScrapeRuns.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}
}
