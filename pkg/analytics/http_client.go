package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPConfig configures the HTTP snapshot client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient pulls dashboard data from a remote reporting API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client capable of hitting a live reporting API.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// FetchSnapshot implements SnapshotClient by calling the remote snapshot endpoint.
func (c *HTTPClient) FetchSnapshot(ctx context.Context, query SnapshotQuery) (Snapshot, error) {
	req := snapshotRequest{Channel: query.Channel, Range: query.DateRange}
	var resp snapshotResponse
	if err := c.do(ctx, http.MethodPost, "/snapshots/query", req, &resp); err != nil {
		return Snapshot{}, err
	}
	return resp.toSnapshot()
}

// FetchFixtures implements FixtureClient via the fixtures endpoint.
func (c *HTTPClient) FetchFixtures(ctx context.Context) (Fixtures, error) {
	var resp Fixtures
	if err := c.do(ctx, http.MethodGet, "/fixtures", nil, &resp); err != nil {
		return Fixtures{}, err
	}
	return resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("analytics: encode payload: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("analytics: remote error %d: %s", resp.StatusCode, buf.String())
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("analytics: decode response: %w", err)
	}
	return nil
}

type snapshotRequest struct {
	Channel string `json:"channel,omitempty"`
	Range   string `json:"range,omitempty"`
}

type snapshotResponse struct {
	Metrics  []Metric             `json:"metrics"`
	Channels []ChannelPerformance `json:"channel_performance"`
	Rivals   []Competitor         `json:"competitors"`
	History  []historyBucket      `json:"history"`
}

type historyBucket struct {
	Day         string  `json:"day"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
}

func (r snapshotResponse) toSnapshot() (Snapshot, error) {
	history := make([]HistoricalPoint, len(r.History))
	for i, bucket := range r.History {
		day, err := time.Parse(time.DateOnly, bucket.Day)
		if err != nil {
			return Snapshot{}, fmt.Errorf("analytics: parse history day %q: %w", bucket.Day, err)
		}
		history[i] = HistoricalPoint{
			Date:        day.Format(time.DateOnly),
			Spend:       bucket.Spend,
			Conversions: bucket.Conversions,
		}
	}
	return Snapshot{
		Metrics:            r.Metrics,
		ChannelPerformance: r.Channels,
		Competitors:        r.Rivals,
		HistoricalData:     history,
	}, nil
}
