package netease

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
	DefaultBaseURL = "https://music.163.com"
	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client talks to the NetEase Cloud Music web API
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
}

// NewClient creates a client. The cookie is optional and only widens
// what the API is willing to return.
func NewClient(baseURL, cookie string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, cookie: cookie}
}

// SearchSongs searches songs by keyword
func (c *Client) SearchSongs(ctx context.Context, keyword string, limit int) ([]Song, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("s", keyword)
	params.Set("type", "1")
	params.Set("limit", strconv.Itoa(limit))

	var resp SearchResponse
	if err := c.getJSON(ctx, "/api/search/get/web?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 && resp.Code != http.StatusOK {
		return nil, fmt.Errorf("API error: code %d", resp.Code)
	}
	return resp.Result.Songs, nil
}

// GetLyrics downloads every lyric variant of a song
func (c *Client) GetLyrics(ctx context.Context, songID int) (*LyricResponse, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(songID))
	params.Set("lv", "-1")
	params.Set("yv", "-1")
	params.Set("tv", "-1")

	var resp LyricResponse
	if err := c.getJSON(ctx, "/api/song/lyric?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 && resp.Code != http.StatusOK {
		return nil, fmt.Errorf("API error: code %d", resp.Code)
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", DefaultBaseURL)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
