// README: HTTP client for the external driver directory. The directory is
// the sole source of truth for driver state; this client only reads and
// conditionally writes status through the directory's update contract.
package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

var (
	ErrNotFound     = errors.New("driver not found")
	ErrUpdateFailed = errors.New("driver status update rejected")
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type nearbyResponse struct {
	Drivers []Driver `json:"Drivers"`
}

type getResponse struct {
	Driver *Driver `json:"Driver"`
}

type updateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Nearby returns drivers near the restaurant ranked by ascending distance.
// The sort is stable so ties keep the directory-returned order.
func (c *Client) Nearby(ctx context.Context, restaurantID string) ([]Driver, error) {
	u := fmt.Sprintf("%s/drivers/nearby?restaurantId=%s", c.baseURL, url.QueryEscape(restaurantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("driver directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("driver directory: nearby returned %d", resp.StatusCode)
	}
	var body nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("driver directory: decode nearby: %w", err)
	}
	drivers := body.Drivers
	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].Distance < drivers[j].Distance
	})
	return drivers, nil
}

// Get fetches a single driver's full profile.
func (c *Client) Get(ctx context.Context, id int64) (*Driver, error) {
	u := fmt.Sprintf("%s/getDriversById?Id=%s", c.baseURL, strconv.FormatInt(id, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("driver directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("driver directory: get returned %d", resp.StatusCode)
	}
	var body getResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("driver directory: decode get: %w", err)
	}
	if body.Driver == nil {
		return nil, ErrNotFound
	}
	return body.Driver, nil
}

// UpdateStatus writes the driver's status carrying the full profile, as the
// directory's PUT contract demands. A non-success envelope is surfaced as
// ErrUpdateFailed; callers must not retry the same driver.
func (c *Client) UpdateStatus(ctx context.Context, d Driver, status Status) error {
	d.Status = string(status)
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	u := c.baseURL + "/drivers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("driver directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: directory returned %d", ErrUpdateFailed, resp.StatusCode)
	}
	var body updateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("driver directory: decode update: %w", err)
	}
	if body.Status != "success" {
		return fmt.Errorf("%w: %s", ErrUpdateFailed, body.Message)
	}
	return nil
}
