package models

import (
	"time"

	"gorm.io/datatypes"
)

type Location struct {
	ID               uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaceID          string           `json:"placeId" gorm:"uniqueIndex;not null"`
	Name             string           `json:"name" gorm:"not null"`
	Slug             string           `json:"slug" gorm:"uniqueIndex;not null"`
	CategoryID       LocationCategory `json:"category" gorm:"type:varchar(32);not null;index"`
	Address          string           `json:"address" gorm:"not null"`
	Latitude         float64          `json:"latitude" gorm:"not null;type:decimal(10,8)"`
	Longitude        float64          `json:"longitude" gorm:"not null;type:decimal(11,8)"`
	Phone            string           `json:"phone,omitempty"`
	Website          string           `json:"website,omitempty"`
	Rating           *float64         `json:"rating,omitempty" gorm:"type:decimal(3,2)"`
	UserRatingsTotal *int             `json:"userRatingsTotal,omitempty"`
	PriceLevel       *int             `json:"priceLevel,omitempty" gorm:"check:price_level between 1 and 4"`
	OpenNow          *bool            `json:"openNow,omitempty"`
	EditorialSummary string           `json:"editorialSummary,omitempty" gorm:"type:text"`
	CompositeScore   *float64         `json:"compositeScore,omitempty"`
	Featured         bool             `json:"featured" gorm:"default:false"`
	Types            StringArray      `json:"types"`
	OpeningHours     datatypes.JSON   `json:"openingHours,omitempty"`
	Photos           []LocationPhoto  `json:"photos" gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	Reviews          []LocationReview `json:"reviews" gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	PlaceInfo        []PlaceInfo      `json:"placeInfo,omitempty" gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"lastUpdated"`
}

type LocationPhoto struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	LocationID     uint      `json:"locationId" gorm:"not null;index"`
	PhotoReference string    `json:"photoReference" gorm:"not null"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Attribution    string    `json:"attribution,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type LocationReview struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	LocationID      uint      `json:"locationId" gorm:"not null;index"`
	AuthorName      string    `json:"authorName" gorm:"not null"`
	Rating          float64   `json:"rating"`
	Text            string    `json:"text" gorm:"type:text"`
	Time            int64     `json:"time"`
	ProfilePhotoURL string    `json:"profilePhotoUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
