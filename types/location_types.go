package types

import (
	"fmt"
	"strings"

	"github.com/city-guide/api-go/models"
)

// ValidationError is reported to the caller as a 400 and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// LocationInput is the admin create/update payload.
type LocationInput struct {
	Name             string                  `json:"name"`
	Slug             string                  `json:"slug"`
	Category         models.LocationCategory `json:"category"`
	Address          string                  `json:"address"`
	Latitude         *float64                `json:"latitude"`
	Longitude        *float64                `json:"longitude"`
	Phone            string                  `json:"phone"`
	Website          string                  `json:"website"`
	PlaceID          string                  `json:"placeId"`
	Rating           *float64                `json:"rating"`
	UserRatingsTotal *int                    `json:"userRatingsTotal"`
	PriceLevel       *int                    `json:"priceLevel"`
	OpenNow          *bool                   `json:"openNow"`
	EditorialSummary string                  `json:"editorialSummary"`
	Featured         bool                    `json:"featured"`
	Types            []string                `json:"types"`
}

// Apply copies the input onto loc. Empty slug and place id are left for the
// store to generate.
func (in LocationInput) Apply(loc *models.Location) {
	loc.Name = strings.TrimSpace(in.Name)
	if in.Slug != "" {
		loc.Slug = in.Slug
	}
	if in.PlaceID != "" {
		loc.PlaceID = in.PlaceID
	}
	loc.CategoryID = in.Category
	loc.Address = strings.TrimSpace(in.Address)
	if in.Latitude != nil {
		loc.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		loc.Longitude = *in.Longitude
	}
	loc.Phone = in.Phone
	loc.Website = in.Website
	loc.Rating = in.Rating
	loc.UserRatingsTotal = in.UserRatingsTotal
	loc.PriceLevel = in.PriceLevel
	loc.OpenNow = in.OpenNow
	loc.EditorialSummary = in.EditorialSummary
	loc.Featured = in.Featured
	if len(in.Types) > 0 {
		loc.Types = in.Types
	} else if len(loc.Types) == 0 && in.Category != "" {
		loc.Types = models.StringArray{string(in.Category)}
	}
}

// Missing returns the first required field absent from the input.
func (in LocationInput) Missing() string {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return "name"
	case in.Category == "":
		return "category"
	case strings.TrimSpace(in.Address) == "":
		return "address"
	case in.Latitude == nil:
		return "latitude"
	case in.Longitude == nil:
		return "longitude"
	}
	return ""
}

// IngestRecord is the flat listing record accepted by the ingestion webhook.
type IngestRecord struct {
	Test             bool     `json:"test"`
	Message          string   `json:"message,omitempty"`
	Name             string   `json:"name"`
	CategoryID       string   `json:"category_id"`
	Slug             string   `json:"slug"`
	Address          string   `json:"address"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Phone            string   `json:"phone"`
	Website          string   `json:"website"`
	PlaceID          string   `json:"place_id"`
	Rating           *float64 `json:"rating"`
	PriceLevel       *int     `json:"price_level"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	OpenNow          *bool    `json:"open_now"`
	EditorialSummary string   `json:"editorial_summary"`
}

// RequiredIngestFields are checked in order; the first absent one is reported.
var RequiredIngestFields = []string{"name", "category_id", "address", "latitude", "longitude"}

func (r IngestRecord) Missing() string {
	present := map[string]bool{
		"name":        strings.TrimSpace(r.Name) != "",
		"category_id": strings.TrimSpace(r.CategoryID) != "",
		"address":     strings.TrimSpace(r.Address) != "",
		"latitude":    r.Latitude != nil,
		"longitude":   r.Longitude != nil,
	}
	for _, field := range RequiredIngestFields {
		if !present[field] {
			return field
		}
	}
	return ""
}

func (r IngestRecord) ToInput() LocationInput {
	return LocationInput{
		Name:             r.Name,
		Slug:             r.Slug,
		Category:         models.LocationCategory(strings.TrimSpace(r.CategoryID)),
		Address:          r.Address,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		Phone:            r.Phone,
		Website:          r.Website,
		PlaceID:          r.PlaceID,
		Rating:           r.Rating,
		PriceLevel:       r.PriceLevel,
		UserRatingsTotal: r.UserRatingsTotal,
		OpenNow:          r.OpenNow,
		EditorialSummary: r.EditorialSummary,
	}
}

type PlaceInfoInput struct {
	Source       string   `json:"source" binding:"required,oneof=google booking tripadvisor"`
	Rating       *float64 `json:"rating"`
	ReviewCount  *int     `json:"reviewCount"`
	PriceLevel   *int     `json:"priceLevel"`
	Amenities    []string `json:"amenities"`
	CheckInTime  *string  `json:"checkInTime"`
	CheckOutTime *string  `json:"checkOutTime"`
	Neighborhood *string  `json:"neighborhood"`
}

type ScrapeRequest struct {
	Token        string                 `json:"token"`
	ActorID      string                 `json:"actorId"`
	SearchParams map[string]interface{} `json:"searchParams"`
}

type ScrapeAccepted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RunID   string `json:"runId"`
	Status  string `json:"status"`
}

type WebhookTestRequest struct {
	WebhookURL string `json:"webhookUrl" binding:"required"`
}
