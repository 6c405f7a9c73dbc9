package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	cacheOnlyKey     contextKey = "cacheOnly"
	rateLimitTypeKey contextKey = "rateLimitType"
)

// CacheOnly reports whether the request was admitted by the cached tier and
// must be answered without contacting providers
func CacheOnly(ctx context.Context) bool {
	v, _ := ctx.Value(cacheOnlyKey).(bool)
	return v
}

// RateLimitType returns the tier that admitted the request, if any
func RateLimitType(ctx context.Context) string {
	v, _ := ctx.Value(rateLimitTypeKey).(string)
	return v
}

// LimiterPair holds both normal and cached tier limiters for an IP
type LimiterPair struct {
	Normal *rate.Limiter
	Cached *rate.Limiter

	lastSeen time.Time
}

// GetNormalTokens returns the number of tokens available in the normal tier
func (lp *LimiterPair) GetNormalTokens() int {
	return int(math.Floor(lp.Normal.Tokens()))
}

// GetCachedTokens returns the number of tokens available in the cached tier
func (lp *LimiterPair) GetCachedTokens() int {
	return int(math.Floor(lp.Cached.Tokens()))
}

// IPRateLimiter manages two-tier rate limiting per client IP. The normal
// tier admits any request; once it is spent, the cached tier still admits
// requests that can be answered from the lyrics cache.
type IPRateLimiter struct {
	ips         map[string]*LimiterPair
	mu          sync.Mutex
	normalRate  rate.Limit
	normalBurst int
	cachedRate  rate.Limit
	cachedBurst int
}

// NewIPRateLimiter creates a new two-tier rate limiter
func NewIPRateLimiter(normalRate rate.Limit, normalBurst int, cachedRate rate.Limit, cachedBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:         make(map[string]*LimiterPair),
		normalRate:  normalRate,
		normalBurst: normalBurst,
		cachedRate:  cachedRate,
		cachedBurst: cachedBurst,
	}
}

// GetNormalLimit returns the normal tier burst limit
func (i *IPRateLimiter) GetNormalLimit() int {
	return i.normalBurst
}

// GetCachedLimit returns the cached tier burst limit
func (i *IPRateLimiter) GetCachedLimit() int {
	return i.cachedBurst
}

// GetLimiter returns the limiter pair for ip, creating it on first use
func (i *IPRateLimiter) GetLimiter(ip string) *LimiterPair {
	i.mu.Lock()
	defer i.mu.Unlock()

	pair, ok := i.ips[ip]
	if !ok {
		pair = &LimiterPair{
			Normal: rate.NewLimiter(i.normalRate, i.normalBurst),
			Cached: rate.NewLimiter(i.cachedRate, i.cachedBurst),
		}
		i.ips[ip] = pair
	}
	pair.lastSeen = time.Now()
	return pair
}

// Len returns the number of tracked clients
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// Cleanup forgets clients not seen for maxIdle and returns how many were removed
func (i *IPRateLimiter) Cleanup(maxIdle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for ip, pair := range i.ips {
		if pair.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := i.Cleanup(maxIdle); n > 0 {
					log.Debugf("%s Forgot %d idle clients", logcolors.LogRateLimit, n)
				}
			}
		}
	}()
}

// clientIP strips the port from RemoteAddr so reconnects share a limiter
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware applies the two-tier limiter. A request carrying
// bypassKey in X-API-Key skips limiting entirely.
func RateLimitMiddleware(limiter *IPRateLimiter, bypassKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get("X-API-Key"); key != "" && bypassKey != "" && key == bypassKey {
				stats.Get().RecordRateLimit("bypass")
				w.Header().Set("X-RateLimit-Bypass", "true")
				ctx := context.WithValue(r.Context(), rateLimitTypeKey, "bypass")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ip := clientIP(r)
			limiters := limiter.GetLimiter(ip)

			if limiters.Normal.Allow() {
				stats.Get().RecordRateLimit("normal")
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.GetNormalLimit()))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiters.GetNormalTokens()))
				w.Header().Set("X-RateLimit-Type", "normal")
				ctx := context.WithValue(r.Context(), rateLimitTypeKey, "normal")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if limiters.Cached.Allow() {
				stats.Get().RecordRateLimit("cached")
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.GetCachedLimit()))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiters.GetCachedTokens()))
				w.Header().Set("X-RateLimit-Type", "cached")
				log.Debugf("%s IP %s exceeded normal tier, using cached tier", logcolors.LogRateLimit, ip)
				ctx := context.WithValue(r.Context(), cacheOnlyKey, true)
				ctx = context.WithValue(ctx, rateLimitTypeKey, "cached")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			stats.Get().RecordRateLimit("exceeded")
			log.Warnf("%s IP %s exceeded both rate limit tiers", logcolors.LogRateLimit, ip)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.GetCachedLimit()))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Type", "exceeded")
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
}
