package netease

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"

	log "github.com/sirupsen/logrus"
)

// ProviderName is the identifier for the NetEase provider
const ProviderName = "netease"

// Config configures the provider
type Config struct {
	BaseURL         string
	Cookie          string
	HTTPClient      *http.Client
	SearchLimit     int
	DurationDeltaMs int
	MinMatchScore   float64
}

// Provider implements providers.Provider for NetEase Cloud Music
type Provider struct {
	client   *Client
	limit    int
	deltaMs  int
	minScore float64
}

// NewProvider creates a new NetEase provider
func NewProvider(cfg Config) *Provider {
	if cfg.DurationDeltaMs <= 0 {
		cfg.DurationDeltaMs = 2000
	}
	return &Provider{
		client:   NewClient(cfg.BaseURL, cfg.Cookie, cfg.HTTPClient),
		limit:    cfg.SearchLimit,
		deltaMs:  cfg.DurationDeltaMs,
		minScore: cfg.MinMatchScore,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// FetchLyrics searches for the song, picks the best match and returns
// both its word-timed (yrc) and line-timed (lrc) lyrics when available.
func (p *Provider) FetchLyrics(ctx context.Context, track lyrics.TrackIdentity) ([]lyrics.SourceResult, error) {
	prefix := logcolors.Provider(ProviderName)

	keyword := strings.TrimSpace(track.Title + " " + track.Artist)
	log.Debugf("%s %s %s", prefix, logcolors.LogSearch, keyword)

	songs, err := p.client.SearchSongs(ctx, keyword, p.limit)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "song search failed", err)
	}
	if len(songs) == 0 {
		return nil, nil
	}

	cands := make([]providers.Candidate, len(songs))
	for i, s := range songs {
		cands[i] = providers.Candidate{
			ID:         strconv.Itoa(s.ID),
			Title:      s.Name,
			Artists:    s.ArtistNames(),
			DurationMs: s.Duration,
		}
	}

	if track.DurationSeconds > 0 {
		filtered := providers.FilterByDuration(cands, int(track.DurationSeconds*1000), p.deltaMs)
		log.Debugf("%s %s %d/%d songs within %dms", prefix, logcolors.LogDurationFilter, len(filtered), len(cands), p.deltaMs)
		cands = filtered
	}

	best, score := providers.SelectBest(cands, track)
	if best == nil || score < p.minScore {
		log.Debugf("%s %s No song above %.2f for %s", prefix, logcolors.LogNotFound, p.minScore, track)
		return nil, nil
	}
	log.Debugf("%s %s %s - %s (id %s, score %.2f)",
		prefix, logcolors.LogMatch, best.Title, strings.Join(best.Artists, ", "), best.ID, score)

	id, _ := strconv.Atoi(best.ID)
	resp, err := p.client.GetLyrics(ctx, id)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lyric download failed", err)
	}

	var results []lyrics.SourceResult
	if strings.TrimSpace(resp.Yrc.Lyric) != "" {
		results = append(results, lyrics.SourceResult{Provider: ProviderName, RawText: resp.Yrc.Lyric, Format: lyrics.FormatYRC})
	}
	if strings.TrimSpace(resp.Lrc.Lyric) != "" {
		results = append(results, lyrics.SourceResult{Provider: ProviderName, RawText: resp.Lrc.Lyric, Format: lyrics.FormatLRC})
	}
	return results, nil
}
