package models

import "time"

// Review sources aggregated into the composite score.
const (
	SourceGoogle      = "google"
	SourceBooking     = "booking"
	SourceTripadvisor = "tripadvisor"
)

var PlaceSources = []string{SourceGoogle, SourceBooking, SourceTripadvisor}

type PlaceInfo struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	LocationID   uint        `json:"locationId" gorm:"not null;uniqueIndex:idx_place_info_source"`
	Source       string      `json:"source" gorm:"type:varchar(32);not null;uniqueIndex:idx_place_info_source"`
	Rating       *float64    `json:"rating"`
	ReviewCount  *int        `json:"reviewCount"`
	PriceLevel   *int        `json:"priceLevel"`
	Amenities    StringArray `json:"amenities"`
	CheckInTime  *string     `json:"checkInTime"`
	CheckOutTime *string     `json:"checkOutTime"`
	Neighborhood *string     `json:"neighborhood"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (PlaceInfo) TableName() string {
	return "place_info"
}
