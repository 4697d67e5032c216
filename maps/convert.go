package maps

import (
	"encoding/json"

	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
	"github.com/city-guide/api-go/utils"
)

// CategoryFromTypes picks the first listing category whose place type occurs
// in googleTypes.
func CategoryFromTypes(googleTypes []string) models.LocationCategory {
	present := make(map[string]bool, len(googleTypes))
	for _, t := range googleTypes {
		present[t] = true
	}
	for _, c := range models.AllCategories {
		if present[types.CategoryGoogleTypes[c]] || present[string(c)] {
			return c
		}
	}
	return models.DefaultCategory
}

// ToLocation converts place details into an unsaved listing.
func ToLocation(d types.PlaceDetails) *models.Location {
	loc := &models.Location{
		PlaceID:          d.PlaceID,
		Name:             d.Name,
		Slug:             utils.GenerateSlug(d.Name),
		CategoryID:       CategoryFromTypes(d.Types),
		Address:          d.FormattedAddress,
		Latitude:         d.Geometry.Location.Lat,
		Longitude:        d.Geometry.Location.Lng,
		Phone:            d.FormattedPhoneNumber,
		Website:          d.Website,
		Rating:           d.Rating,
		CompositeScore:   d.Rating,
		UserRatingsTotal: d.UserRatingsTotal,
		Types:            d.Types,
	}
	if loc.Address == "" && d.Vicinity != nil {
		loc.Address = *d.Vicinity
	}
	if d.PriceLevel != nil && *d.PriceLevel >= 1 && *d.PriceLevel <= 4 {
		loc.PriceLevel = d.PriceLevel
	}
	if d.EditorialSummary != nil {
		loc.EditorialSummary = d.EditorialSummary.Overview
	}
	if d.OpeningHours != nil {
		open := d.OpeningHours.OpenNow
		loc.OpenNow = &open
		if raw, err := json.Marshal(d.OpeningHours); err == nil {
			loc.OpeningHours = raw
		}
	}

	for _, p := range d.Photos {
		photo := models.LocationPhoto{PhotoReference: p.PhotoReference, Width: p.Width, Height: p.Height}
		if len(p.HTMLAttributions) > 0 {
			photo.Attribution = p.HTMLAttributions[0]
		}
		loc.Photos = append(loc.Photos, photo)
	}
	for _, r := range d.Reviews {
		loc.Reviews = append(loc.Reviews, models.LocationReview{
			AuthorName:      r.AuthorName,
			Rating:          r.Rating,
			Text:            r.Text,
			Time:            r.Time,
			ProfilePhotoURL: r.ProfilePhotoURL,
		})
	}
	return loc
}
