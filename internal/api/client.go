// internal/api/client.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iotlog/fleetengine/pkg/core"
)

// Client handles communication with the fleet history backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the history backend is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// FetchRouteHistory loads the position history of a single vessel
// between two moments, both in epoch seconds. Points come back ordered
// by timestamp.
func (c *Client) FetchRouteHistory(ctx context.Context, vesselID string, from, to int64) ([]core.HistoryPoint, error) {
	q := url.Values{}
	q.Set("vessel", vesselID)
	q.Set("from", strconv.FormatInt(from, 10))
	q.Set("to", strconv.FormatInt(to, 10))

	var history []core.HistoryPoint
	if err := c.getJSON(ctx, "/v1/history/route?"+q.Encode(), &history); err != nil {
		return nil, fmt.Errorf("fetching route history for %s: %w", vesselID, err)
	}
	return history, nil
}

// FetchRegionSlices loads the aggregated fleet snapshots of a region
// between two moments, both in epoch seconds. Slices come back ordered
// by timestamp.
func (c *Client) FetchRegionSlices(ctx context.Context, regionID string, from, to int64) ([]core.RegionTimeSlice, error) {
	q := url.Values{}
	q.Set("region", regionID)
	q.Set("from", strconv.FormatInt(from, 10))
	q.Set("to", strconv.FormatInt(to, 10))

	var slices []core.RegionTimeSlice
	if err := c.getJSON(ctx, "/v1/history/region?"+q.Encode(), &slices); err != nil {
		return nil, fmt.Errorf("fetching region slices for %s: %w", regionID, err)
	}
	return slices, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
