package lrclib

import (
	"context"
	"net/http"
	"strconv"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"

	log "github.com/sirupsen/logrus"
)

// ProviderName is the identifier for the LRCLIB provider
const ProviderName = "lrclib"

// Config configures the provider
type Config struct {
	BaseURL         string
	HTTPClient      *http.Client
	DurationDeltaMs int     // search results further off are dropped
	MinMatchScore   float64 // search results scoring lower are dropped
}

// Provider implements providers.Provider for lrclib.net
type Provider struct {
	client   *Client
	deltaMs  int
	minScore float64
}

// NewProvider creates a new LRCLIB provider
func NewProvider(cfg Config) *Provider {
	if cfg.DurationDeltaMs <= 0 {
		cfg.DurationDeltaMs = 2000
	}
	return &Provider{
		client:   NewClient(cfg.BaseURL, cfg.HTTPClient),
		deltaMs:  cfg.DurationDeltaMs,
		minScore: cfg.MinMatchScore,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// FetchLyrics tries the exact signature first and falls back to a
// search when the exact lookup misses.
func (p *Provider) FetchLyrics(ctx context.Context, track lyrics.TrackIdentity) ([]lyrics.SourceResult, error) {
	prefix := logcolors.Provider(ProviderName)

	exact, err := p.client.Get(ctx, track.Title, track.Artist, track.DurationSeconds)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "exact lookup failed", err)
	}
	if exact != nil && exact.HasLyrics() {
		log.Debugf("%s %s Exact match for %s (id %d)", prefix, logcolors.LogMatch, track, exact.ID)
		return toResults(exact), nil
	}

	log.Debugf("%s %s No exact match for %s, searching", prefix, logcolors.LogSearch, track)
	tracks, err := p.client.Search(ctx, track.Title, track.Artist)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "search failed", err)
	}

	best := p.selectTrack(tracks, track)
	if best == nil {
		log.Debugf("%s %s Nothing usable for %s", prefix, logcolors.LogNotFound, track)
		return nil, nil
	}
	return toResults(best), nil
}

func (p *Provider) selectTrack(tracks []Track, track lyrics.TrackIdentity) *Track {
	byID := make(map[string]*Track, len(tracks))
	cands := make([]providers.Candidate, 0, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		if !t.HasLyrics() {
			continue
		}
		id := strconv.Itoa(t.ID)
		byID[id] = t
		cands = append(cands, providers.Candidate{
			ID:         id,
			Title:      t.TrackName,
			Artists:    []string{t.ArtistName},
			DurationMs: int(t.Duration * 1000),
		})
	}

	if track.DurationSeconds > 0 {
		filtered := providers.FilterByDuration(cands, int(track.DurationSeconds*1000), p.deltaMs)
		log.Debugf("%s %s %d/%d results within %dms",
			logcolors.Provider(ProviderName), logcolors.LogDurationFilter, len(filtered), len(cands), p.deltaMs)
		cands = filtered
	}

	best, score := providers.SelectBest(cands, track)
	if best == nil || score < p.minScore {
		return nil
	}
	log.Debugf("%s %s %s - %s (score %.2f)",
		logcolors.Provider(ProviderName), logcolors.LogMatch, best.Title, best.Artists[0], score)
	return byID[best.ID]
}

// toResults returns the synced text when present and the plain text
// otherwise. Instrumentals have neither.
func toResults(t *Track) []lyrics.SourceResult {
	switch {
	case t.SyncedLyrics != "":
		return []lyrics.SourceResult{{Provider: ProviderName, RawText: t.SyncedLyrics, Format: lyrics.FormatLRC}}
	case t.PlainLyrics != "":
		return []lyrics.SourceResult{{Provider: ProviderName, RawText: t.PlainLyrics, Format: lyrics.FormatPlain}}
	}
	return nil
}
