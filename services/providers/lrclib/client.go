package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "https://lrclib.net"
	defaultTimeout = 10 * time.Second
	userAgent      = "lyrics-sync-go/1.0 (https://github.com/lyrics-sync-go)"
)

// Client talks to the LRCLIB HTTP API
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL and a
// nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// Get looks up the exact signature. A 404 is not an error: it returns nil, nil.
func (c *Client) Get(ctx context.Context, title, artist string, durationSeconds float64) (*Track, error) {
	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)
	if durationSeconds > 0 {
		params.Set("duration", strconv.Itoa(int(durationSeconds+0.5)))
	}

	var track Track
	found, err := c.getJSON(ctx, "/api/get?"+params.Encode(), &track)
	if err != nil || !found {
		return nil, err
	}
	return &track, nil
}

// Search returns every record matching the title and artist
func (c *Client) Search(ctx context.Context, title, artist string) ([]Track, error) {
	params := url.Values{}
	params.Set("track_name", title)
	if artist != "" {
		params.Set("artist_name", artist)
	}

	var tracks []Track
	if _, err := c.getJSON(ctx, "/api/search?"+params.Encode(), &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return true, nil
}
