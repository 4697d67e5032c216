package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/city-guide/api-go/types"
)

const (
	ActionGeocode         = "geocode"
	ActionSearchNearby    = "searchNearby"
	ActionGetPlaceDetails = "getPlaceDetails"

	defaultRadius = 1500
)

var ErrUnknownAction = errors.New("invalid action")

// Request is the proxy envelope accepted from admin clients.
type Request struct {
	Action string          `json:"action" binding:"required"`
	Params json.RawMessage `json:"params"`
}

// Result carries exactly one of the typed responses, selected by Action.
type Result struct {
	Action  string                      `json:"action"`
	Geocode *types.GeocodeResponse      `json:"geocode,omitempty"`
	Nearby  *types.NearbySearchResponse `json:"nearby,omitempty"`
	Details *types.PlaceDetailsResponse `json:"details,omitempty"`
}

type nearbyRequest struct {
	Location json.RawMessage `json:"location"`
	Radius   int             `json:"radius"`
	Type     string          `json:"type"`
}

// Dispatch routes a proxy request to the matching client call. Parameter
// problems are reported as *types.ValidationError.
func Dispatch(ctx context.Context, c *Client, req Request) (*Result, error) {
	res := &Result{Action: req.Action}

	switch req.Action {
	case ActionGeocode:
		var p struct {
			Address string `json:"address"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.Address) == "" {
			return nil, types.NewValidationError("address", "is required")
		}
		out, err := c.Geocode(ctx, p.Address)
		if err != nil {
			return nil, err
		}
		res.Geocode = out

	case ActionSearchNearby:
		var p nearbyRequest
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		lat, lng, err := parseLocation(p.Location)
		if err != nil {
			return nil, err
		}
		if p.Radius <= 0 {
			p.Radius = defaultRadius
		}
		out, err := c.SearchNearby(ctx, NearbyParams{Lat: lat, Lng: lng, Radius: p.Radius, Type: p.Type})
		if err != nil {
			return nil, err
		}
		res.Nearby = out

	case ActionGetPlaceDetails:
		var p struct {
			PlaceID string `json:"placeId"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		if p.PlaceID == "" {
			return nil, types.NewValidationError("placeId", "is required")
		}
		out, err := c.PlaceDetails(ctx, p.PlaceID)
		if err != nil {
			return nil, err
		}
		res.Details = out

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	return res, nil
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return types.NewValidationError("params", "is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return types.NewValidationError("params", "%v", err)
	}
	return nil
}

// parseLocation accepts {"lat":..,"lng":..} or the "lat,lng" string form.
func parseLocation(raw json.RawMessage) (float64, float64, error) {
	if len(raw) == 0 {
		return 0, 0, types.NewValidationError("location", "is required")
	}

	var ll types.LatLng
	if err := json.Unmarshal(raw, &ll); err == nil {
		return ll.Lat, ll.Lng, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, 0, types.NewValidationError("location", "must be an object or \"lat,lng\"")
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, types.NewValidationError("location", "must be \"lat,lng\"")
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, types.NewValidationError("location", "must be \"lat,lng\"")
	}
	return lat, lng, nil
}
