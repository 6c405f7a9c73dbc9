package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lyrics-sync-go/cache"
	"lyrics-sync-go/circuitbreaker"
	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/middleware"
	"lyrics-sync-go/services/orchestrator"
	"lyrics-sync-go/services/providers"
	"lyrics-sync-go/stats"

	log "github.com/sirupsen/logrus"
)

// maxPreloadBody bounds the POST /preload payload
const maxPreloadBody = 1 << 20

func (s *server) getLyrics(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)

	track, err := parseTrack(r)
	if err != nil {
		resp.Error(http.StatusBadRequest, err.Error())
		return
	}
	refresh := parseBool(r, "refresh", false)

	_, cached := s.cache.Get(track.Key())
	cacheStatus := "MISS"
	switch {
	case refresh:
		cacheStatus = "REFRESH"
	case cached:
		cacheStatus = "HIT"
	}
	resp.SetCacheStatus(cacheStatus)

	// the cached rate-limit tier may only be served from memory
	if middleware.CacheOnly(r.Context()) && cacheStatus != "HIT" {
		stats.Get().RecordRateLimit("exceeded")
		log.Warnf("%s Cache-only tier but nothing cached for %s", logcolors.LogRateLimit, track)
		w.Header().Set("Retry-After", "60")
		resp.Status(http.StatusTooManyRequests, map[string]string{
			"error":   "Rate limit exceeded and no cached lyrics for this track",
			"message": "Please try again later or reduce your request rate.",
		})
		return
	}

	set, err := s.orch.Resolve(r.Context(), track, refresh)
	switch {
	case errors.Is(err, orchestrator.ErrInvalidTrack):
		resp.Error(http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, lyrics.ErrNotFound):
		resp.Error(http.StatusNotFound, "Lyrics not available for this track")
		return
	case errors.Is(err, orchestrator.ErrSuperseded):
		resp.Error(http.StatusConflict, "A newer track replaced this one while it was loading")
		return
	case err != nil:
		log.Errorf("%s Resolve %s: %v", logcolors.LogServer, track, err)
		resp.Error(http.StatusInternalServerError, err.Error())
		return
	}

	resp.SetProvider(set.Provider).JSON(LyricsResponse{Track: track, Lyrics: set})
}

func (s *server) getCurrent(w http.ResponseWriter, r *http.Request) {
	u := s.orch.Current()
	Respond(w, r).JSON(CurrentResponse{
		Status: u.Status,
		Track:  u.Track,
		Lyrics: u.Set,
		At:     u.At,
		Sync:   s.tracker.State(),
	})
}

// postPlaybackPosition feeds a player position (seconds) into the clock and
// the tracker and returns the resulting sync state
func (s *server) postPlaybackPosition(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)

	raw := firstParam(r, "position", "p")
	position, err := strconv.ParseFloat(raw, 64)
	if err != nil || position < 0 {
		resp.Error(http.StatusBadRequest, fmt.Sprintf("invalid position %q", raw))
		return
	}

	s.clock.Report(position, parseBool(r, "playing", true))
	resp.JSON(s.tracker.Update(position))
}

// postPreload accepts a JSON array of track identities and warms the cache
// for them in the background
func (s *server) postPreload(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)

	var tracks []lyrics.TrackIdentity
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPreloadBody)).Decode(&tracks); err != nil {
		resp.Error(http.StatusBadRequest, "body must be a JSON array of {title, artist, duration}")
		return
	}

	queued := 0
	for _, t := range tracks {
		if !t.IsZero() {
			queued++
		}
	}
	if queued > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.orch.Preload(s.ctx, tracks)
		}()
	}

	resp.Status(http.StatusAccepted, PreloadResponse{Queued: queued})
}

func (s *server) getStats(w http.ResponseWriter, r *http.Request) {
	snapshot := stats.Get().Snapshot()

	numKeys, sizeInKB := s.cache.Stats()
	snapshot["cache_storage"] = map[string]interface{}{
		"keys":      numKeys,
		"size_kb":   sizeInKB,
		"evictions": s.cache.Evictions(),
	}
	snapshot["circuit_breakers"] = s.breakerSnapshots()
	snapshot["strategy"] = s.orch.Strategy()

	Respond(w, r).JSON(snapshot)
}

func (s *server) getHealth(w http.ResponseWriter, r *http.Request) {
	var open []string
	for _, cb := range s.registry.Breakers() {
		if cb.IsOpen() {
			open = append(open, cb.Name())
		}
	}

	health := map[string]interface{}{
		"status":    "ok",
		"providers": s.registry.List(),
		"current":   s.orch.Current().Status,
	}
	switch {
	case s.registry.Len() == 0:
		health["status"] = "unhealthy"
		health["error"] = "no providers configured"
	case len(open) == s.registry.Len():
		health["status"] = "unhealthy"
		health["open_circuits"] = open
	case len(open) > 0:
		health["status"] = "degraded"
		health["open_circuits"] = open
	}

	Respond(w, r).JSON(health)
}

func (s *server) breakerSnapshots() []circuitbreaker.Snapshot {
	breakers := s.registry.Breakers()
	out := make([]circuitbreaker.Snapshot, 0, len(breakers))
	for _, cb := range breakers {
		out = append(out, cb.Snapshot())
	}
	return out
}

func (s *server) getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(CircuitBreakerResponse{
		Breakers: s.breakerSnapshots(),
		Config: map[string]int{
			"threshold":    s.cfg.Configuration.CircuitBreakerThreshold,
			"cooldown_sec": s.cfg.Configuration.CircuitBreakerCooldownSecs,
		},
	})
}

// resetCircuitBreaker closes one breaker (?provider=name) or all of them
func (s *server) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)
	name := firstParam(r, "provider")

	reset := 0
	if name == "" {
		for _, cb := range s.registry.Breakers() {
			cb.Reset()
			reset++
		}
	} else {
		p, err := s.registry.Get(name)
		g, guarded := p.(*providers.Guarded)
		if err != nil || !guarded {
			resp.Error(http.StatusNotFound, fmt.Sprintf("no circuit breaker for provider %q", name))
			return
		}
		g.Breaker.Reset()
		reset = 1
	}

	log.Infof("%s Reset %d circuit breaker(s)", logcolors.LogServer, reset)
	resp.JSON(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
		"reset":   reset,
	})
}

func (s *server) getCacheDump(w http.ResponseWriter, r *http.Request) {
	st := stats.Get()
	ttl := s.cache.TTL()
	now := time.Now()

	entries := make(map[string]CacheEntrySummary)
	s.cache.Range(func(key string, entry cache.CacheEntry) bool {
		entries[key] = CacheEntrySummary{
			Provider:  entry.Set.Provider,
			Format:    entry.Set.Format,
			Lines:     len(entry.Set.RealLines()),
			Score:     entry.Set.Score,
			WordSync:  entry.Set.HasWordSync(),
			FetchedAt: entry.FetchedAt,
			Expired:   entry.Expired(now, ttl),
		}
		return true
	})

	numKeys, sizeInKB := s.cache.Stats()
	Respond(w, r).JSON(CacheDumpResponse{
		NumberOfKeys: numKeys,
		SizeInKB:     sizeInKB,
		TTLSeconds:   ttl.Seconds(),
		Performance: CachePerformance{
			Hits:      st.CacheHits.Load(),
			Misses:    st.CacheMisses.Load(),
			Evictions: s.cache.Evictions(),
			HitRate:   st.CacheHitRate(),
		},
		Entries: entries,
	})
}

func (s *server) clearCache(w http.ResponseWriter, r *http.Request) {
	numKeys, _ := s.cache.Stats()
	s.cache.Clear()

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Cache cleared",
		"cleared": numKeys,
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"endpoints": []string{
			"GET /lyrics?title=&artist=&duration=[&refresh=true] resolves time-synced lyrics for a track",
			"GET /lyrics/current returns the current track status, lyrics and sync state",
			"POST /playback/position?position=[&playing=false] reports the player position in seconds",
			"POST /preload warms the cache for a JSON array of upcoming tracks",
			"GET /health",
			"GET /stats (API key)",
			"GET /cache (API key)",
			"POST /cache/clear (API key)",
			"GET /circuit-breaker (API key)",
			"POST /circuit-breaker/reset[?provider=] (API key)",
		},
	})
}
