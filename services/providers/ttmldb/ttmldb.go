package ttmldb

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"
	"lyrics-sync-go/utils"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ProviderName is the identifier for the TTML database provider
const ProviderName = "ttmldb"

// titlePrefilter drops index entries whose title is clearly unrelated
// before the full candidate scoring
const titlePrefilter = 0.6

// Config configures the provider
type Config struct {
	Mirrors         []string
	Platform        string
	HTTPClient      *http.Client
	RefreshInterval time.Duration
	DurationDeltaMs int
	MinMatchScore   float64
	Now             func() time.Time
}

// Provider implements providers.Provider over an indexed TTML database.
// The index is held in memory and reloaded once it is older than the
// refresh interval.
type Provider struct {
	client   *Client
	refresh  time.Duration
	deltaMs  int
	minScore float64
	now      func() time.Time

	mu        sync.RWMutex
	index     []Entry
	fetchedAt time.Time
	loads     singleflight.Group
}

// NewProvider creates a new TTML database provider
func NewProvider(cfg Config) *Provider {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.DurationDeltaMs <= 0 {
		cfg.DurationDeltaMs = 2000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{
		client:   NewClient(cfg.Mirrors, cfg.Platform, cfg.HTTPClient),
		refresh:  cfg.RefreshInterval,
		deltaMs:  cfg.DurationDeltaMs,
		minScore: cfg.MinMatchScore,
		now:      cfg.Now,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// FetchLyrics matches the track against the index and downloads the
// best entry's TTML document
func (p *Provider) FetchLyrics(ctx context.Context, track lyrics.TrackIdentity) ([]lyrics.SourceResult, error) {
	prefix := logcolors.Provider(ProviderName)

	index, err := p.Index(ctx)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "index unavailable", err)
	}

	entry, score := p.match(index, track)
	if entry == nil {
		log.Debugf("%s %s %s not in index (%d entries)", prefix, logcolors.LogNotFound, track, len(index))
		return nil, nil
	}
	log.Debugf("%s %s %s - %s (file %s, score %.2f)",
		prefix, logcolors.LogMatch, entry.Title, strings.Join(entry.Artists, ", "), entry.RawLyricFile, score)

	raw, err := p.client.FetchRaw(ctx, entry.RawLyricFile)
	if errors.Is(err, errNotFound) {
		log.Warnf("%s %s Indexed file %s is missing", prefix, logcolors.LogWarning, entry.RawLyricFile)
		return nil, nil
	}
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lyric download failed", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return []lyrics.SourceResult{{Provider: ProviderName, RawText: raw, Format: lyrics.FormatTTML}}, nil
}

// Index returns the in-memory index, reloading it when stale. Concurrent
// callers share one download; each waits only as long as its own ctx
// allows. A failed reload keeps serving the old index when there is one.
func (p *Provider) Index(ctx context.Context) ([]Entry, error) {
	p.mu.RLock()
	index, fetchedAt := p.index, p.fetchedAt
	p.mu.RUnlock()

	if index != nil && p.now().Sub(fetchedAt) < p.refresh {
		return index, nil
	}

	ch := p.loads.DoChan("index", func() (any, error) {
		start := p.now()
		// shared by every waiter, so one caller's cancel must not abort it
		entries, err := p.client.FetchIndex(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.index, p.fetchedAt = entries, p.now()
		p.mu.Unlock()
		log.Infof("%s Loaded %d entries in %v", logcolors.LogIndex, len(entries), p.now().Sub(start))
		return entries, nil
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		// the shared load keeps running and fills the index for later calls
		return nil, ctx.Err()
	}
	if err := res.Err; err != nil {
		if index != nil {
			log.Warnf("%s Refresh failed, serving stale index: %v", logcolors.LogIndex, err)
			return index, nil
		}
		return nil, err
	}
	return res.Val.([]Entry), nil
}

func (p *Provider) match(index []Entry, track lyrics.TrackIdentity) (*Entry, float64) {
	var cands []providers.Candidate
	byID := make(map[string]*Entry)
	for i := range index {
		e := &index[i]
		if utils.Similarity(track.Title, e.Title) < titlePrefilter {
			continue
		}
		byID[e.ID] = e
		cands = append(cands, providers.Candidate{
			ID:         e.ID,
			Title:      e.Title,
			Artists:    e.Artists,
			DurationMs: e.DurationMs,
		})
	}

	if track.DurationSeconds > 0 {
		cands = providers.FilterByDuration(cands, int(track.DurationSeconds*1000), p.deltaMs)
	}

	best, score := providers.SelectBest(cands, track)
	if best == nil || score < p.minScore {
		return nil, 0
	}
	return byID[best.ID], score
}
