package plausible

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AggregateResponse is the stats/aggregate payload.
type AggregateResponse struct {
	Results map[string]struct {
		Value float64 `json:"value"`
	} `json:"results"`
}

// Client reads aggregate site statistics.
type Client struct {
	httpClient *http.Client
	baseURL    string
	siteID     string
	apiKey     string
}

// NewClient constructs a stats client.
func NewClient(baseURL, siteID, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		siteID:     siteID,
		apiKey:     apiKey,
	}
}

// Pageviews returns the aggregate pageview count for the site.
func (c *Client) Pageviews(ctx context.Context) (int64, error) {
	q := url.Values{}
	q.Set("site_id", c.siteID)
	q.Set("metrics", "pageviews")
	endpoint := c.baseURL + "/api/v1/stats/aggregate?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("stats request failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var out AggregateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	pv, ok := out.Results["pageviews"]
	if !ok {
		return 0, fmt.Errorf("pageviews missing from response")
	}
	return int64(pv.Value), nil
}
