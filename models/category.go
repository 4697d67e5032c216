package models

import "time"

// LocationCategory is one of the fixed listing categories.
type LocationCategory string

const (
	CategoryHotel             LocationCategory = "hotel"
	CategoryRestaurant        LocationCategory = "restaurant"
	CategoryBar               LocationCategory = "bar"
	CategoryNightClub         LocationCategory = "night_club"
	CategoryTouristAttraction LocationCategory = "tourist_attraction"

	// DefaultCategory is the catch-all used when nothing else matches.
	DefaultCategory = CategoryTouristAttraction
)

// AllCategories lists the categories in display order.
var AllCategories = []LocationCategory{
	CategoryHotel,
	CategoryRestaurant,
	CategoryBar,
	CategoryNightClub,
	CategoryTouristAttraction,
}

func (c LocationCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Category struct {
	ID          LocationCategory `json:"id" gorm:"primaryKey;type:varchar(32)"`
	Name        string           `json:"name" gorm:"not null"`
	Slug        string           `json:"slug" gorm:"uniqueIndex;not null"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
