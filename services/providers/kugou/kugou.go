package kugou

import (
	"context"
	"net/http"
	"strings"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"

	log "github.com/sirupsen/logrus"
)

// ProviderName is the identifier for the Kugou provider
const ProviderName = "kugou"

// Config configures the provider
type Config struct {
	SongSearchURL   string
	LyricsURL       string
	HTTPClient      *http.Client
	DurationDeltaMs int
	MinMatchScore   float64
}

// Provider implements providers.Provider for Kugou. A lookup takes three
// requests: song search for a hash, lyrics search by hash, then download.
type Provider struct {
	client   *Client
	deltaMs  int
	minScore float64
}

// NewProvider creates a new Kugou provider
func NewProvider(cfg Config) *Provider {
	if cfg.DurationDeltaMs <= 0 {
		cfg.DurationDeltaMs = 2000
	}
	return &Provider{
		client:   NewClient(cfg.SongSearchURL, cfg.LyricsURL, cfg.HTTPClient),
		deltaMs:  cfg.DurationDeltaMs,
		minScore: cfg.MinMatchScore,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// FetchLyrics returns the best matching LRC with credit lines trimmed.
// Instrumentals count as not found.
func (p *Provider) FetchLyrics(ctx context.Context, track lyrics.TrackIdentity) ([]lyrics.SourceResult, error) {
	prefix := logcolors.Provider(ProviderName)
	keyword := strings.TrimSpace(track.Title + " " + track.Artist)
	durationMs := int(track.DurationSeconds * 1000)

	songs, err := p.client.SearchSongs(ctx, keyword, 10)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "song search failed", err)
	}

	song := p.selectSong(songs, track)
	if song == nil {
		log.Debugf("%s %s No song match for %s", prefix, logcolors.LogNotFound, track)
		return nil, nil
	}

	cands, err := p.client.SearchLyrics(ctx, keyword, durationMs, song.Hash)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lyrics search failed", err)
	}
	best := bestLyricsCandidate(cands, durationMs)
	if best == nil {
		log.Debugf("%s %s No lyrics for %s (hash %s)", prefix, logcolors.LogNotFound, track, song.Hash)
		return nil, nil
	}

	lrc, err := p.client.DownloadLyrics(ctx, best.ID, best.AccessKey)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "download failed", err)
	}
	if IsInstrumental(lrc) {
		log.Debugf("%s %s %s is instrumental", prefix, logcolors.LogNotFound, track)
		return nil, nil
	}

	lrc = NormalizeLyrics(lrc)
	if strings.TrimSpace(lrc) == "" {
		return nil, nil
	}
	return []lyrics.SourceResult{{Provider: ProviderName, RawText: lrc, Format: lyrics.FormatLRC}}, nil
}

func (p *Provider) selectSong(songs []SongInfo, track lyrics.TrackIdentity) *SongInfo {
	byHash := make(map[string]*SongInfo, len(songs))
	cands := make([]providers.Candidate, 0, len(songs))
	for i := range songs {
		s := &songs[i]
		if s.Hash == "" {
			continue
		}
		byHash[s.Hash] = s
		cands = append(cands, providers.Candidate{
			ID:         s.Hash,
			Title:      s.SongName,
			Artists:    splitSingers(s.SingerName),
			DurationMs: s.Duration * 1000,
		})
	}

	if track.DurationSeconds > 0 {
		filtered := providers.FilterByDuration(cands, int(track.DurationSeconds*1000), p.deltaMs)
		log.Debugf("%s %s %d/%d songs within %dms",
			logcolors.Provider(ProviderName), logcolors.LogDurationFilter, len(filtered), len(cands), p.deltaMs)
		cands = filtered
	}

	best, score := providers.SelectBest(cands, track)
	if best == nil || score < p.minScore {
		return nil
	}
	log.Debugf("%s %s %s - %s (score %.2f)",
		logcolors.Provider(ProviderName), logcolors.LogMatch, best.Title, strings.Join(best.Artists, ", "), score)
	return byHash[best.ID]
}

// splitSingers splits Kugou's "A、B" singer lists
func splitSingers(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '、' || r == '/' })
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// bestLyricsCandidate ranks by the API's own score, preferring synced and
// official files and those close to the requested duration
func bestLyricsCandidate(cands []LyricsCandidate, durationMs int) *LyricsCandidate {
	var best *LyricsCandidate
	bestScore := -1
	for i := range cands {
		c := &cands[i]
		if c.ID == "" || c.AccessKey == "" {
			continue
		}
		score := c.Score
		if c.KRCType == 1 {
			score += 20
		}
		if strings.Contains(c.ProductFrom, "官方") {
			score += 5
		}
		if durationMs > 0 && c.Duration > 0 {
			diff := c.Duration - durationMs
			if diff < 0 {
				diff = -diff
			}
			switch {
			case diff < 3000:
				score += 20
			case diff < 5000:
				score += 10
			case diff < 10000:
				score += 5
			}
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}
