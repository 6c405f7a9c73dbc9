package main

import (
	"time"

	"lyrics-sync-go/circuitbreaker"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/orchestrator"
	"lyrics-sync-go/services/playback"
)

// LyricsResponse is returned by GET /lyrics
type LyricsResponse struct {
	Track  lyrics.TrackIdentity `json:"track"`
	Lyrics *lyrics.LyricSet     `json:"lyrics"`
}

// CurrentResponse is returned by GET /lyrics/current
type CurrentResponse struct {
	Status orchestrator.Status  `json:"status"`
	Track  lyrics.TrackIdentity `json:"track"`
	Lyrics *lyrics.LyricSet     `json:"lyrics,omitempty"`
	At     time.Time            `json:"at"`
	Sync   playback.State       `json:"sync"`
}

// PreloadResponse is returned by POST /preload
type PreloadResponse struct {
	Queued int `json:"queued"`
}

// CacheEntrySummary describes one cached set without its lines
type CacheEntrySummary struct {
	Provider  string        `json:"provider"`
	Format    lyrics.Format `json:"format"`
	Lines     int           `json:"lines"`
	Score     float64       `json:"score"`
	WordSync  bool          `json:"wordSync"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Expired   bool          `json:"expired"`
}

// CachePerformance holds cache hit/miss statistics
type CachePerformance struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hitRate"`
}

// CacheDumpResponse is returned by GET /cache
type CacheDumpResponse struct {
	NumberOfKeys int                          `json:"numberOfKeys"`
	SizeInKB     int                          `json:"sizeInKB"`
	TTLSeconds   float64                      `json:"ttlSeconds"`
	Performance  CachePerformance             `json:"performance"`
	Entries      map[string]CacheEntrySummary `json:"entries"`
}

// CircuitBreakerResponse is returned by GET /circuit-breaker
type CircuitBreakerResponse struct {
	Breakers []circuitbreaker.Snapshot `json:"breakers"`
	Config   map[string]int            `json:"config"`
}
