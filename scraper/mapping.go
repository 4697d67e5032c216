package scraper

import (
	"strings"

	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
	"github.com/city-guide/api-go/utils"
	"github.com/google/uuid"
)

// categoryKeywords is checked in order; the first keyword found among the
// raw categories wins.
var categoryKeywords = []struct {
	keyword  string
	category models.LocationCategory
}{
	{"hotel", models.CategoryHotel},
	{"lodging", models.CategoryHotel},
	{"restaurant", models.CategoryRestaurant},
	{"bar", models.CategoryBar},
	{"night_club", models.CategoryNightClub},
}

// InferCategory maps raw scraper categories to a listing category. Entries
// are compared whole and case-insensitively, with spaces read as
// underscores. Nothing matching yields the default category.
func InferCategory(raw []string) models.LocationCategory {
	normalized := make(map[string]bool, len(raw))
	for _, r := range raw {
		normalized[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(r)), " ", "_")] = true
	}
	for _, k := range categoryKeywords {
		if normalized[k.keyword] {
			return k.category
		}
	}
	return models.DefaultCategory
}

// PriceLevel counts the currency symbols of a "$$"-style price string.
func PriceLevel(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n := strings.Count(s, "$")
	if n == 0 {
		n = strings.Count(s, "€")
	}
	if n < 1 || n > 4 {
		return nil
	}
	return &n
}

// ToLocation maps one dataset item to an unsaved listing. Items without a
// title or coordinates cannot be stored and are rejected.
func ToLocation(item types.ScrapedPlace) (*models.Location, error) {
	if strings.TrimSpace(item.Title) == "" {
		return nil, types.NewValidationError("title", "is required")
	}
	lat, lng, ok := item.Coordinates()
	if !ok {
		return nil, types.NewValidationError("location", "item %q has no coordinates", item.Title)
	}

	placeID := item.PlaceID
	if placeID == "" {
		placeID = item.ID
	}
	if placeID == "" {
		placeID = "apify_" + uuid.NewString()
	}

	raw := item.Categories
	if len(raw) == 0 && item.CategoryName != "" {
		raw = []string{item.CategoryName}
	}
	category := InferCategory(raw)

	price := item.PriceLevel
	if price == "" {
		price = item.Price
	}

	return &models.Location{
		PlaceID:          placeID,
		Name:             strings.TrimSpace(item.Title),
		Slug:             utils.GenerateSlug(item.Title),
		CategoryID:       category,
		Address:          item.Address,
		Latitude:         lat,
		Longitude:        lng,
		Phone:            item.Phone,
		Website:          item.Website,
		Rating:           item.TotalScore,
		CompositeScore:   item.TotalScore,
		UserRatingsTotal: item.ReviewsCount,
		PriceLevel:       PriceLevel(price),
		Types:            models.StringArray{string(category)},
	}, nil
}
