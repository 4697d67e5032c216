// Package maps is a small client for the Google Maps web services used by
// the admin tools: geocoding, nearby search and place details.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/types"
	"github.com/rs/zerolog"
)

var ErrNotConfigured = errors.New("maps api key is not configured")

// ServiceError is returned when the maps API answers with an HTTP error or
// a status other than OK or ZERO_RESULTS.
type ServiceError struct {
	Endpoint   string
	HTTPStatus int
	Status     string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Status != "" {
		msg := fmt.Sprintf("maps %s: %s", e.Endpoint, e.Status)
		if e.Message != "" {
			msg += ": " + e.Message
		}
		return msg
	}
	return fmt.Sprintf("maps %s: http %d", e.Endpoint, e.HTTPStatus)
}

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client

	logger zerolog.Logger
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewPackageLogger("maps"),
	}
}

type NearbyParams struct {
	Lat    float64
	Lng    float64
	Radius int
	Type   string
}

func (c *Client) Geocode(ctx context.Context, address string) (*types.GeocodeResponse, error) {
	var out types.GeocodeResponse
	err := c.get(ctx, "geocode/json", url.Values{"address": {address}}, &out, func() (string, string) {
		return out.Status, out.ErrorMessage
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("address", address).Int("results", len(out.Results)).Msg("geocoded")
	return &out, nil
}

func (c *Client) SearchNearby(ctx context.Context, p NearbyParams) (*types.NearbySearchResponse, error) {
	q := url.Values{
		"location": {strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)},
		"radius":   {strconv.Itoa(p.Radius)},
	}
	if p.Type != "" {
		q.Set("type", p.Type)
	}

	var out types.NearbySearchResponse
	err := c.get(ctx, "place/nearbysearch/json", q, &out, func() (string, string) {
		return out.Status, out.ErrorMessage
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("location", q.Get("location")).Int("results", len(out.Results)).Msg("nearby search")
	return &out, nil
}

func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetailsResponse, error) {
	var out types.PlaceDetailsResponse
	err := c.get(ctx, "place/details/json", url.Values{"place_id": {placeID}}, &out, func() (string, string) {
		return out.Status, out.ErrorMessage
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out interface{}, status func() (string, string)) error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	query.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("maps %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &ServiceError{Endpoint: endpoint, HTTPStatus: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("maps %s: failed to decode response: %w", endpoint, err)
	}

	st, msg := status()
	if st != types.GoogleStatusOK && st != types.GoogleStatusZeroResults {
		return &ServiceError{Endpoint: endpoint, HTTPStatus: resp.StatusCode, Status: st, Message: msg}
	}
	return nil
}
