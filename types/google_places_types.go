package types

// Maps web-service statuses that are not errors.
const (
	GoogleStatusOK          = "OK"
	GoogleStatusZeroResults = "ZERO_RESULTS"
)

type GeocodeResponse struct {
	Results      []GeocodeResult `json:"results"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

type GeocodeResult struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          Geometry           `json:"geometry"`
	PlaceID           string             `json:"place_id"`
	Types             []string           `json:"types"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type NearbySearchResponse struct {
	HTMLAttributions []string      `json:"html_attributions"`
	NextPageToken    string        `json:"next_page_token,omitempty"`
	Results          []PlaceResult `json:"results"`
	Status           string        `json:"status"`
	ErrorMessage     string        `json:"error_message,omitempty"`
}

type PlaceResult struct {
	BusinessStatus   *string       `json:"business_status,omitempty"`
	Geometry         Geometry      `json:"geometry"`
	Icon             string        `json:"icon"`
	Name             string        `json:"name"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	Photos           []Photo       `json:"photos,omitempty"`
	PlaceID          string        `json:"place_id"`
	PriceLevel       *int          `json:"price_level,omitempty"`
	Rating           *float64      `json:"rating,omitempty"`
	Types            []string      `json:"types"`
	UserRatingsTotal *int          `json:"user_ratings_total,omitempty"`
	Vicinity         *string       `json:"vicinity,omitempty"`
}

type PlaceDetailsResponse struct {
	HTMLAttributions []string     `json:"html_attributions"`
	Result           PlaceDetails `json:"result"`
	Status           string       `json:"status"`
	ErrorMessage     string       `json:"error_message,omitempty"`
}

type PlaceDetails struct {
	PlaceResult
	FormattedAddress         string            `json:"formatted_address"`
	FormattedPhoneNumber     string            `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string            `json:"international_phone_number,omitempty"`
	Website                  string            `json:"website,omitempty"`
	Reviews                  []PlaceReview     `json:"reviews,omitempty"`
	EditorialSummary         *EditorialSummary `json:"editorial_summary,omitempty"`
}

type PlaceReview struct {
	AuthorName      string  `json:"author_name"`
	ProfilePhotoURL string  `json:"profile_photo_url,omitempty"`
	Rating          float64 `json:"rating"`
	Text            string  `json:"text"`
	Time            int64   `json:"time"`
}

type EditorialSummary struct {
	Overview string `json:"overview"`
}

type Geometry struct {
	Location LatLng    `json:"location"`
	Viewport *Viewport `json:"viewport,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Viewport struct {
	Northeast LatLng `json:"northeast"`
	Southwest LatLng `json:"southwest"`
}

type OpeningHours struct {
	OpenNow     bool            `json:"open_now"`
	Periods     []OpeningPeriod `json:"periods,omitempty"`
	WeekdayText []string        `json:"weekday_text,omitempty"`
}

type OpeningPeriod struct {
	Open  DayTime  `json:"open"`
	Close *DayTime `json:"close,omitempty"`
}

type DayTime struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

type Photo struct {
	Height           int      `json:"height"`
	HTMLAttributions []string `json:"html_attributions"`
	PhotoReference   string   `json:"photo_reference"`
	Width            int      `json:"width"`
}
