package lyricsovh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"

	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for the lyrics.ovh provider
	ProviderName = "lyricsovh"

	DefaultBaseURL = "https://api.lyrics.ovh"
	defaultTimeout = 10 * time.Second
)

// Response is the /v1/{artist}/{title} payload
type Response struct {
	Lyrics string `json:"lyrics"`
	Error  string `json:"error"`
}

// Provider implements providers.Provider for lyrics.ovh, which only
// serves untimed text
type Provider struct {
	httpClient *http.Client
	baseURL    string
}

// NewProvider creates a new lyrics.ovh provider
func NewProvider(baseURL string, httpClient *http.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Provider{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// FetchLyrics fetches plain lyrics. The API needs an artist.
func (p *Provider) FetchLyrics(ctx context.Context, track lyrics.TrackIdentity) ([]lyrics.SourceResult, error) {
	if track.Artist == "" {
		return nil, nil
	}

	text, err := p.fetch(ctx, track.Artist, track.Title)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lyrics request failed", err)
	}
	if text == "" {
		log.Debugf("%s %s %s", logcolors.Provider(ProviderName), logcolors.LogNotFound, track)
		return nil, nil
	}
	return []lyrics.SourceResult{{Provider: ProviderName, RawText: text, Format: lyrics.FormatPlain}}, nil
}

func (p *Provider) fetch(ctx context.Context, artist, title string) (string, error) {
	requestURL := p.baseURL + "/v1/" + url.PathEscape(artist) + "/" + url.PathEscape(title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	// lyrics.ovh uses \r\n and sometimes a "Paroles de la chanson" header
	text := strings.ReplaceAll(body.Lyrics, "\r\n", "\n")
	if i := strings.Index(text, "\n"); i >= 0 && strings.HasPrefix(text, "Paroles de la chanson") {
		text = text[i+1:]
	}
	return strings.TrimSpace(text), nil
}
