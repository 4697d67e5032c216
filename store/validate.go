package store

import (
	"net/url"
	"strings"

	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
)

// ValidateLocation checks the listing invariants enforced on every write.
func ValidateLocation(loc *models.Location) error {
	if strings.TrimSpace(loc.Name) == "" {
		return types.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(loc.Address) == "" {
		return types.NewValidationError("address", "is required")
	}
	if !loc.CategoryID.Valid() {
		return types.NewValidationError("category", "must be one of hotel, restaurant, bar, night_club, tourist_attraction (got %q)", loc.CategoryID)
	}
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return types.NewValidationError("latitude", "must be between -90 and 90")
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return types.NewValidationError("longitude", "must be between -180 and 180")
	}
	if loc.PriceLevel != nil && (*loc.PriceLevel < 1 || *loc.PriceLevel > 4) {
		return types.NewValidationError("priceLevel", "must be between 1 and 4")
	}
	if loc.Rating != nil && (*loc.Rating < 0 || *loc.Rating > 5) {
		return types.NewValidationError("rating", "must be between 0 and 5")
	}
	if loc.Website != "" {
		if err := ValidateURL(loc.Website); err != nil {
			return types.NewValidationError("website", "%v", err)
		}
	}
	return nil
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return types.NewValidationError("", "malformed URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return types.NewValidationError("", "must be an absolute http or https URL")
	}
	return nil
}
