package types

import "github.com/city-guide/api-go/models"

// NearbyLocationsQuery uses pointers so that the equator and the prime
// meridian are valid coordinates.
type NearbyLocationsQuery struct {
	Latitude  *float64 `form:"latitude" binding:"required"`
	Longitude *float64 `form:"longitude" binding:"required"`
	Limit     int      `form:"limit,default=5" binding:"min=1,max=50"`
}

type NearbyLocation struct {
	models.Location
	Distance float64 `json:"distance"`
}

// PlaceInfoSummary is the aggregated view of a listing's external sources.
type PlaceInfoSummary struct {
	LocationID     uint               `json:"locationId"`
	CompositeScore float64            `json:"compositeScore"`
	Amenities      []string           `json:"amenities"`
	Sources        []models.PlaceInfo `json:"sources"`
}
