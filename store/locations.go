package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
	"github.com/city-guide/api-go/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxSlugSuffix = 100

type Locations struct {
	db *gorm.DB
}

func NewLocations(db *gorm.DB) *Locations {
	return &Locations{db: db}
}

func (s *Locations) withChildren(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("time DESC") })
}

func (s *Locations) List(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := s.withChildren(ctx).Order("name").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (s *Locations) ListByCategory(ctx context.Context, category models.LocationCategory) ([]models.Location, error) {
	if !category.Valid() {
		return nil, types.NewValidationError("category", "unknown category %q", category)
	}
	var locations []models.Location
	err := s.withChildren(ctx).Where("category_id = ?", category).Order("name").Find(&locations).Error
	if err != nil {
		return nil, fmt.Errorf("list locations by category: %w", err)
	}
	return locations, nil
}

func (s *Locations) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	var loc models.Location
	if err := s.withChildren(ctx).First(&loc, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}

func (s *Locations) GetBySlug(ctx context.Context, slug string) (*models.Location, error) {
	var loc models.Location
	if err := s.withChildren(ctx).Where("slug = ?", slug).First(&loc).Error; err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}

func (s *Locations) GetByPlaceID(ctx context.Context, placeID string) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).Where("place_id = ?", placeID).First(&loc).Error; err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}

// ListByIDs loads the given listings in the order of ids. Unknown ids are
// skipped.
func (s *Locations) ListByIDs(ctx context.Context, ids []uint) ([]models.Location, error) {
	if len(ids) == 0 {
		return []models.Location{}, nil
	}
	var found []models.Location
	if err := s.withChildren(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("list locations by id: %w", err)
	}
	byID := make(map[uint]models.Location, len(found))
	for _, loc := range found {
		byID[loc.ID] = loc
	}
	locations := make([]models.Location, 0, len(ids))
	for _, id := range ids {
		if loc, ok := byID[id]; ok {
			locations = append(locations, loc)
		}
	}
	return locations, nil
}

// Search matches name, address and summary case-insensitively.
func (s *Locations) Search(ctx context.Context, query string, category models.LocationCategory, limit int) ([]models.Location, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	db := s.withChildren(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(editorial_summary) LIKE ?", pattern, pattern, pattern)
	if category != "" {
		db = db.Where("category_id = ?", category)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}

	var locations []models.Location
	if err := db.Order("name").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	return locations, nil
}

// Nearby returns the closest listings ordered by great-circle distance in km.
func (s *Locations) Nearby(ctx context.Context, lat, lng float64, limit int) ([]types.NearbyLocation, error) {
	var locations []models.Location
	if err := s.db.WithContext(ctx).Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("nearby locations: %w", err)
	}

	nearby := make([]types.NearbyLocation, 0, len(locations))
	for _, loc := range locations {
		nearby = append(nearby, types.NearbyLocation{
			Location: loc,
			Distance: Haversine(lat, lng, loc.Latitude, loc.Longitude),
		})
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].Distance < nearby[j].Distance })

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

func (s *Locations) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	order := make(map[models.LocationCategory]int, len(models.AllCategories))
	for i, c := range models.AllCategories {
		order[c] = i
	}
	sort.SliceStable(categories, func(i, j int) bool { return order[categories[i].ID] < order[categories[j].ID] })
	return categories, nil
}

// SlugAvailable reports whether slug is free, ignoring the listing excludeID.
func (s *Locations) SlugAvailable(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return slugAvailable(s.db.WithContext(ctx), slug, excludeID)
}

// Create inserts a new listing. A missing slug is derived from the name and
// made unique; an explicit slug that is already used fails with ErrSlugTaken.
// A missing place id is generated.
func (s *Locations) Create(ctx context.Context, loc *models.Location) error {
	if err := ValidateLocation(loc); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := assignSlug(tx, loc, 0); err != nil {
			return err
		}
		if loc.PlaceID == "" {
			loc.PlaceID = "manual-" + uuid.NewString()
		} else {
			var count int64
			if err := tx.Model(&models.Location{}).Where("place_id = ?", loc.PlaceID).Count(&count).Error; err != nil {
				return fmt.Errorf("check place id: %w", err)
			}
			if count > 0 {
				return types.NewValidationError("place_id", "%s already exists", loc.PlaceID)
			}
		}
		if err := tx.Create(loc).Error; err != nil {
			return fmt.Errorf("create location: %w", err)
		}
		return refreshComposite(tx, loc)
	})
}

// Update saves every column of an existing listing. Child collections are
// left untouched.
func (s *Locations) Update(ctx context.Context, loc *models.Location) error {
	if loc.ID == 0 {
		return ErrNotFound
	}
	if err := ValidateLocation(loc); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Location{}).Where("id = ?", loc.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := assignSlug(tx, loc, loc.ID); err != nil {
			return err
		}
		loc.UpdatedAt = time.Now()
		if err := tx.Omit(clause.Associations).Save(loc).Error; err != nil {
			return fmt.Errorf("update location: %w", err)
		}
		return refreshComposite(tx, loc)
	})
}

// Delete removes a listing together with its photos, reviews, source info
// and favorites.
func (s *Locations) Delete(ctx context.Context, id uint) (*models.Location, error) {
	var deleted models.Location
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			return notFound(err)
		}
		for _, child := range []interface{}{&models.LocationPhoto{}, &models.LocationReview{}, &models.PlaceInfo{}, &models.UserFavorite{}} {
			if err := tx.Where("location_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("delete location children: %w", err)
			}
		}
		return tx.Delete(&models.Location{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// UpsertByPlaceID inserts loc, or overwrites the listing that already has
// the same place id. The stored row keeps its id and creation time; every
// other field takes the incoming value. Photos and reviews are replaced when
// the incoming listing carries any. The previous version is returned when
// one existed.
func (s *Locations) UpsertByPlaceID(ctx context.Context, loc *models.Location) (*models.Location, error) {
	if strings.TrimSpace(loc.PlaceID) == "" {
		return nil, types.NewValidationError("place_id", "is required for upsert")
	}
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}

	photos, reviews := loc.Photos, loc.Reviews
	var previous *models.Location

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Location
		err := tx.Where("place_id = ?", loc.PlaceID).First(&existing).Error
		switch {
		case err == nil:
			previous = &existing
			loc.ID = existing.ID
			loc.CreatedAt = existing.CreatedAt
			if loc.Slug == "" {
				loc.Slug = existing.Slug
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			loc.ID = 0
		default:
			return fmt.Errorf("find location by place id: %w", err)
		}

		if err := assignGeneratedSlug(tx, loc, loc.ID); err != nil {
			return err
		}

		if previous != nil {
			loc.UpdatedAt = time.Now()
			if err := tx.Omit(clause.Associations).Save(loc).Error; err != nil {
				return fmt.Errorf("update location %s: %w", loc.PlaceID, err)
			}
		} else {
			if err := tx.Omit(clause.Associations).Create(loc).Error; err != nil {
				return fmt.Errorf("insert location %s: %w", loc.PlaceID, err)
			}
		}

		if len(photos) > 0 {
			if err := tx.Where("location_id = ?", loc.ID).Delete(&models.LocationPhoto{}).Error; err != nil {
				return err
			}
			for i := range photos {
				photos[i].ID = 0
				photos[i].LocationID = loc.ID
			}
			if err := tx.Create(&photos).Error; err != nil {
				return fmt.Errorf("insert photos: %w", err)
			}
		}
		if len(reviews) > 0 {
			if err := tx.Where("location_id = ?", loc.ID).Delete(&models.LocationReview{}).Error; err != nil {
				return err
			}
			for i := range reviews {
				reviews[i].ID = 0
				reviews[i].LocationID = loc.ID
			}
			if err := tx.Create(&reviews).Error; err != nil {
				return fmt.Errorf("insert reviews: %w", err)
			}
		}
		return refreshComposite(tx, loc)
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

func (s *Locations) AddPhoto(ctx context.Context, photo *models.LocationPhoto) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", photo.LocationID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return s.db.WithContext(ctx).Create(photo).Error
}

func (s *Locations) DeletePhoto(ctx context.Context, id uint) (*models.LocationPhoto, error) {
	var photo models.LocationPhoto
	if err := s.db.WithContext(ctx).First(&photo, id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := s.db.WithContext(ctx).Delete(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// assignSlug fills an empty slug from the name. Explicit slugs must be free.
func assignSlug(tx *gorm.DB, loc *models.Location, excludeID uint) error {
	if loc.Slug == "" {
		return assignGeneratedSlug(tx, loc, excludeID)
	}
	loc.Slug = utils.GenerateSlug(loc.Slug)
	if loc.Slug == "" {
		return types.NewValidationError("slug", "must contain letters or digits")
	}
	ok, err := slugAvailable(tx, loc.Slug, excludeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSlugTaken
	}
	return nil
}

// assignGeneratedSlug derives a slug when empty and appends -2, -3, ... until
// it no longer collides with another listing.
func assignGeneratedSlug(tx *gorm.DB, loc *models.Location, excludeID uint) error {
	base := loc.Slug
	if base == "" {
		base = utils.GenerateSlug(loc.Name)
	}
	if base == "" {
		base = "location"
	}

	candidate := base
	for i := 2; i <= maxSlugSuffix+1; i++ {
		ok, err := slugAvailable(tx, candidate, excludeID)
		if err != nil {
			return err
		}
		if ok {
			loc.Slug = candidate
			return nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return ErrSlugTaken
}

func slugAvailable(db *gorm.DB, slug string, excludeID uint) (bool, error) {
	var count int64
	q := db.Model(&models.Location{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count == 0, nil
}

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
