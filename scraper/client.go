// Package scraper starts places-scraping actor runs, follows them to a
// terminal status and imports their datasets as listings.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/city-guide/api-go/types"
)

// APIError is a non-2xx answer from the run-management API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d - %s", e.Op, e.StatusCode, e.Body)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StartRun submits a run of actorID with input as the actor input.
func (c *Client) StartRun(ctx context.Context, token, actorID string, input interface{}) (*types.ActorRun, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode actor input: %w", err)
	}

	// actor ids are "user/name"; the path form is "user~name"
	endpoint := c.BaseURL + "/acts/" + url.PathEscape(strings.ReplaceAll(actorID, "/", "~")) + "/runs"

	var env types.ActorRunEnvelope
	if err := c.do(ctx, "start run", http.MethodPost, endpoint, token, body, &env); err != nil {
		return nil, err
	}
	if env.Data.ID == "" {
		return nil, fmt.Errorf("start run: response carried no run id")
	}
	return &env.Data, nil
}

func (c *Client) RunStatus(ctx context.Context, token, runID string) (*types.ActorRun, error) {
	var env types.ActorRunEnvelope
	endpoint := c.BaseURL + "/actor-runs/" + url.PathEscape(runID)
	if err := c.do(ctx, "check run status", http.MethodGet, endpoint, token, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) DatasetItems(ctx context.Context, token, runID string) ([]types.ScrapedPlace, error) {
	var items []types.ScrapedPlace
	endpoint := c.BaseURL + "/actor-runs/" + url.PathEscape(runID) + "/dataset/items?format=json&clean=true"
	if err := c.do(ctx, "get dataset", http.MethodGet, endpoint, token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint, token string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
