package kugou

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
	DefaultSongSearchURL = "http://msearchcdn.kugou.com"
	DefaultLyricsURL     = "https://krcs.kugou.com"

	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client talks to the Kugou song search and lyrics endpoints, which live
// on different hosts
type Client struct {
	httpClient    *http.Client
	songSearchURL string
	lyricsURL     string
}

// NewClient creates a client; empty URLs fall back to the public hosts
func NewClient(songSearchURL, lyricsURL string, httpClient *http.Client) *Client {
	if songSearchURL == "" {
		songSearchURL = DefaultSongSearchURL
	}
	if lyricsURL == "" {
		lyricsURL = DefaultLyricsURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, songSearchURL: songSearchURL, lyricsURL: lyricsURL}
}

// SearchSongs searches songs by keyword. The lyrics search needs a song
// hash to return anything useful.
func (c *Client) SearchSongs(ctx context.Context, keyword string, pageSize int) ([]SongInfo, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("pagesize", strconv.Itoa(pageSize))
	params.Set("page", "1")
	params.Set("plat", "0")
	params.Set("version", "9108")

	var resp SongSearchResponse
	if err := c.getJSON(ctx, c.songSearchURL+"/api/v3/search/song?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != 1 {
		return nil, fmt.Errorf("API error: status %d, errcode %d", resp.Status, resp.ErrCode)
	}
	return resp.Data.Info, nil
}

// SearchLyrics lists lyrics candidates for a song hash
func (c *Client) SearchLyrics(ctx context.Context, keyword string, durationMs int, hash string) ([]LyricsCandidate, error) {
	params := url.Values{}
	params.Set("ver", "1")
	params.Set("man", "yes")
	params.Set("client", "mobi")
	params.Set("keyword", keyword)
	if durationMs > 0 {
		params.Set("duration", strconv.Itoa(durationMs))
	}
	if hash != "" {
		params.Set("hash", hash)
	}

	var resp LyricsSearchResponse
	if err := c.getJSON(ctx, c.lyricsURL+"/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, fmt.Errorf("API error: %s (code: %d)", resp.ErrMsg, resp.ErrCode)
	}
	return resp.Candidates, nil
}

// DownloadLyrics fetches and decodes one candidate's LRC text
func (c *Client) DownloadLyrics(ctx context.Context, id, accessKey string) (string, error) {
	params := url.Values{}
	params.Set("ver", "1")
	params.Set("client", "pc")
	params.Set("id", id)
	params.Set("accesskey", accessKey)
	params.Set("fmt", "lrc")
	params.Set("charset", "utf8")

	var resp DownloadResponse
	if err := c.getJSON(ctx, c.lyricsURL+"/download?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", fmt.Errorf("API error: %s (code: %d)", resp.Info, resp.ErrorCode)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("lyrics content is empty")
	}

	lrc, err := DecodeBase64Content(resp.Content)
	if err != nil {
		return "", fmt.Errorf("failed to decode lyrics content: %w", err)
	}
	return lrc, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

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
