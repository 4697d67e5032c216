package types

// ActorRun is the "data" member of the run-management API responses.
type ActorRun struct {
	ID               string `json:"id"`
	ActID            string `json:"actId"`
	Status           string `json:"status"`
	StatusMessage    string `json:"statusMessage,omitempty"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

type ActorRunEnvelope struct {
	Data ActorRun `json:"data"`
}

// ScrapedPlace is one dataset item produced by a places scraping actor.
// Older actor versions put coordinates at the top level, newer ones nest them
// under location; both are accepted.
type ScrapedPlace struct {
	ID           string   `json:"id"`
	PlaceID      string   `json:"placeId"`
	Title        string   `json:"title"`
	Categories   []string `json:"categories"`
	CategoryName string   `json:"categoryName"`
	Address      string   `json:"address"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Location     *LatLng  `json:"location"`
	Phone        string   `json:"phone"`
	Website      string   `json:"website"`
	TotalScore   *float64 `json:"totalScore"`
	ReviewsCount *int     `json:"reviewsCount"`
	PriceLevel   string   `json:"priceLevel"`
	Price        string   `json:"price"`
}

// Coordinates returns the item's position and whether it had one.
func (p ScrapedPlace) Coordinates() (float64, float64, bool) {
	if p.Lat != nil && p.Lng != nil {
		return *p.Lat, *p.Lng, true
	}
	if p.Location != nil {
		return p.Location.Lat, p.Location.Lng, true
	}
	return 0, 0, false
}

// ScrapeSearchParams is the actor input used when a request supplies none.
type ScrapeSearchParams struct {
	Queries          string `json:"queries"`
	Language         string `json:"language"`
	MaxCrawledPlaces int    `json:"maxCrawledPlaces"`
}
