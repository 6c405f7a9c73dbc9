package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Stats holds all server and resolver statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests    atomic.Int64
	LyricsRequests   atomic.Int64
	PlaybackRequests atomic.Int64
	PreloadRequests  atomic.Int64
	AdminRequests    atomic.Int64
	OtherRequests    atomic.Int64

	// Resolver
	Resolutions  atomic.Int64 // Resolve calls
	CacheHits    atomic.Int64
	CacheMisses  atomic.Int64
	Refreshes    atomic.Int64 // forced refreshes that bypassed the cache
	NotFound     atomic.Int64
	Superseded   atomic.Int64 // results discarded because a newer track started
	SharedFlight atomic.Int64 // callers that joined an in-flight acquisition

	// Preload
	PreloadFetched atomic.Int64
	PreloadSkipped atomic.Int64

	// Rate limiting
	RateLimitNormal   atomic.Int64
	RateLimitCached   atomic.Int64 // requests served from the cache-only tier
	RateLimitBypass   atomic.Int64
	RateLimitExceeded atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	// Resolve latency (microseconds), cache misses only
	resolveTime  atomic.Int64
	resolveCount atomic.Int64

	// Per-provider counters (name -> *ProviderCounters)
	providers sync.Map
}

// ProviderCounters tracks outcomes for one provider
type ProviderCounters struct {
	Success      atomic.Int64 // answered with at least one payload
	Empty        atomic.Int64 // answered, but had nothing
	Failure      atomic.Int64
	Selected     atomic.Int64 // won candidate selection
	BreakerTrips atomic.Int64
}

// New creates an empty Stats instance
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(maxInt64)
	return s
}

// Global stats instance
var global = New()

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request to a specific endpoint
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch endpoint {
	case "/lyrics", "/lyrics/current":
		s.LyricsRequests.Add(1)
	case "/playback/position":
		s.PlaybackRequests.Add(1)
	case "/preload":
		s.PreloadRequests.Add(1)
	case "/stats", "/cache", "/cache/clear", "/circuit-breaker", "/circuit-breaker/reset":
		s.AdminRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordCacheHit records a cache hit
func (s *Stats) RecordCacheHit() {
	s.CacheHits.Add(1)
}

// RecordCacheMiss records a cache miss
func (s *Stats) RecordCacheMiss() {
	s.CacheMisses.Add(1)
}

// RecordRateLimit records which limiter tier admitted a request:
// "normal", "cached", "bypass" or "exceeded"
func (s *Stats) RecordRateLimit(tier string) {
	switch tier {
	case "normal":
		s.RateLimitNormal.Add(1)
	case "cached":
		s.RateLimitCached.Add(1)
	case "bypass":
		s.RateLimitBypass.Add(1)
	case "exceeded":
		s.RateLimitExceeded.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records an HTTP response time
func (s *Stats) RecordResponseTime(duration time.Duration) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	// Update min/max atomically
	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
}

// RecordResolveTime records how long a provider acquisition took
func (s *Stats) RecordResolveTime(duration time.Duration) {
	s.resolveTime.Add(duration.Microseconds())
	s.resolveCount.Add(1)
}

// Provider returns the counters for a provider, creating them on first use
func (s *Stats) Provider(name string) *ProviderCounters {
	if c, ok := s.providers.Load(name); ok {
		return c.(*ProviderCounters)
	}
	c, _ := s.providers.LoadOrStore(name, &ProviderCounters{})
	return c.(*ProviderCounters)
}

// ProviderNames returns every provider seen so far, sorted
func (s *Stats) ProviderNames() []string {
	var names []string
	s.providers.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load()
	misses := s.CacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == maxInt64 {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgResolveTime returns the average acquisition time on cache misses
func (s *Stats) AvgResolveTime() time.Duration {
	count := s.resolveCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.resolveTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	providers := make(map[string]interface{})
	for _, name := range s.ProviderNames() {
		c := s.Provider(name)
		providers[name] = map[string]interface{}{
			"success":       c.Success.Load(),
			"empty":         c.Empty.Load(),
			"failure":       c.Failure.Load(),
			"selected":      c.Selected.Load(),
			"breaker_trips": c.BreakerTrips.Load(),
		}
	}

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":    s.TotalRequests.Load(),
			"lyrics":   s.LyricsRequests.Load(),
			"playback": s.PlaybackRequests.Load(),
			"preload":  s.PreloadRequests.Load(),
			"admin":    s.AdminRequests.Load(),
			"other":    s.OtherRequests.Load(),
		},
		"resolver": map[string]interface{}{
			"resolutions":   s.Resolutions.Load(),
			"refreshes":     s.Refreshes.Load(),
			"not_found":     s.NotFound.Load(),
			"superseded":    s.Superseded.Load(),
			"shared_flight": s.SharedFlight.Load(),
			"avg_fetch":     s.AvgResolveTime().String(),
		},
		"cache": map[string]interface{}{
			"hits":     s.CacheHits.Load(),
			"misses":   s.CacheMisses.Load(),
			"hit_rate": s.CacheHitRate(),
		},
		"preload": map[string]interface{}{
			"fetched": s.PreloadFetched.Load(),
			"skipped": s.PreloadSkipped.Load(),
		},
		"providers": providers,
		"rate_limiting": map[string]interface{}{
			"normal":   s.RateLimitNormal.Load(),
			"cached":   s.RateLimitCached.Load(),
			"bypass":   s.RateLimitBypass.Load(),
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg": s.AvgResponseTime().String(),
			"min": s.MinResponseTime().String(),
			"max": s.MaxResponseTime().String(),
		},
	}
}
