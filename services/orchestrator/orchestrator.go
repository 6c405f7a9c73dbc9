// Package orchestrator resolves lyrics for the playing track: it checks
// the cache, queries providers with the configured strategy, selects the
// best candidate and publishes the result to subscribers.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"lyrics-sync-go/cache"
	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/providers"
	"lyrics-sync-go/services/scorer"
	"lyrics-sync-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultPreloadDelay = 500 * time.Millisecond
)

var (
	// ErrSuperseded is returned to a caller whose track was replaced by a
	// newer one while its lyrics were being fetched
	ErrSuperseded = errors.New("superseded by a newer track")
	// ErrInvalidTrack is returned for an identity without a title
	ErrInvalidTrack = errors.New("track title is required")
)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithStrategy sets the fetch strategy (default parallel)
func WithStrategy(s Strategy) Option {
	return func(o *Orchestrator) { o.strategy = s }
}

// WithTimeout sets the per-provider timeout (default 10s)
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithScorer replaces the default scorer
func WithScorer(s *scorer.Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// WithStats records resolver counters into s instead of a private instance
func WithStats(s *stats.Stats) Option {
	return func(o *Orchestrator) { o.stats = s }
}

// WithPreloadDelay sets the minimum spacing between preload fetches
func WithPreloadDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.preloadDelay = d
		}
	}
}

// WithClock overrides the clock used to stamp updates
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator owns the resolve pipeline and the published state
type Orchestrator struct {
	registry     *providers.Registry
	cache        *cache.LyricsCache
	scorer       *scorer.Scorer
	stats        *stats.Stats
	strategy     Strategy
	timeout      time.Duration
	preloadDelay time.Duration
	now          func() time.Time

	flights singleflight.Group

	mu sync.RWMutex
	// generation advances whenever the foreground track changes
	generation uint64
	currentKey string
	// attemptedKey is the last track a resolve finished for
	attemptedKey string
	current      Update
	subs         map[int]chan Update
	nextSub      int
}

// New creates an orchestrator over the registry's providers and the cache
func New(registry *providers.Registry, c *cache.LyricsCache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:     registry,
		cache:        c,
		scorer:       scorer.New(nil),
		stats:        stats.New(),
		strategy:     StrategyParallel,
		timeout:      DefaultTimeout,
		preloadDelay: DefaultPreloadDelay,
		now:          time.Now,
		subs:         make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.current = Update{Status: StatusIdle, At: o.now()}
	return o
}

// Resolve returns lyrics for track, making it the foreground track.
//
// A fresh cache entry is returned without network activity unless
// forceRefresh is set. Otherwise providers are queried; concurrent
// resolves of the same track share one acquisition. If another track
// became the foreground while this one was being fetched, the result is
// cached but not published and ErrSuperseded is returned. lyrics.ErrNotFound
// means no provider had usable lyrics.
func (o *Orchestrator) Resolve(ctx context.Context, track lyrics.TrackIdentity, forceRefresh bool) (*lyrics.LyricSet, error) {
	if track.IsZero() {
		return nil, ErrInvalidTrack
	}
	key := track.Key()
	o.stats.Resolutions.Add(1)

	if forceRefresh {
		o.stats.Refreshes.Add(1)
	} else if entry, ok := o.cache.Get(key); ok {
		o.stats.RecordCacheHit()
		gen := o.begin(track, false)
		log.Debugf("%s Cache hit for %s", logcolors.LogOrchestrator, track)
		if err := o.finish(gen, track, entry.Set); err != nil {
			return nil, err
		}
		return entry.Set, nil
	} else {
		o.stats.RecordCacheMiss()
	}

	gen := o.begin(track, true)
	log.Infof("%s Resolving %s (strategy %s, refresh %v)", logcolors.LogOrchestrator, track, o.strategy, forceRefresh)

	v, err, shared := o.flights.Do(key, func() (any, error) {
		// the acquisition is shared, so it outlives any single caller
		return o.acquire(context.WithoutCancel(ctx), track)
	})
	if shared {
		o.stats.SharedFlight.Add(1)
	}

	var set *lyrics.LyricSet
	if err == nil {
		set = v.(*lyrics.LyricSet)
	}
	if err := o.finish(gen, track, set); err != nil {
		return nil, err
	}
	if set == nil {
		return nil, lyrics.ErrNotFound
	}
	return set, nil
}

// begin makes track the foreground track and returns its generation.
// Re-resolving the current track keeps the generation so concurrent
// callers for the same song are not superseded by each other.
func (o *Orchestrator) begin(track lyrics.TrackIdentity, loading bool) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := track.Key()
	if key != o.currentKey {
		o.generation++
		o.currentKey = key
	}
	if loading {
		u := Update{Status: StatusLoading, Track: track}
		if o.current.Track.Key() == key {
			u.Set = o.current.Set
		}
		o.publishLocked(u)
	}
	return o.generation
}

// finish publishes the outcome if gen is still the foreground generation.
// A nil set publishes NotFound.
func (o *Orchestrator) finish(gen uint64, track lyrics.TrackIdentity, set *lyrics.LyricSet) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		o.stats.Superseded.Add(1)
		log.Debugf("%s %s Dropping result for %s, foreground moved on", logcolors.LogOrchestrator, logcolors.LogStale, track)
		return ErrSuperseded
	}

	key := track.Key()
	firstAttempt := o.attemptedKey != key
	o.attemptedKey = key

	if set != nil {
		o.publishLocked(Update{Status: StatusReady, Track: track, Set: set})
		return nil
	}

	o.stats.NotFound.Add(1)
	log.Infof("%s %s No lyrics for %s", logcolors.LogOrchestrator, logcolors.LogNotFound, track)

	u := Update{Status: StatusNotFound, Track: track}
	if !firstAttempt && o.current.Track.Key() == key {
		// keep showing what we had for this song
		u.Set = o.current.Set
	}
	o.publishLocked(u)
	return nil
}

// acquire fetches, selects and caches lyrics for track. It never touches
// the published state, so preload can share it.
func (o *Orchestrator) acquire(ctx context.Context, track lyrics.TrackIdentity) (*lyrics.LyricSet, error) {
	start := time.Now()

	var cands []scorer.Candidate
	switch o.strategy {
	case StrategyPriority:
		cands = o.fetchPriority(ctx, track)
	default:
		cands = o.fetchParallel(ctx, track)
	}
	o.stats.RecordResolveTime(time.Since(start))

	best, ok := scorer.Select(cands)
	if !ok {
		return nil, lyrics.ErrNotFound
	}

	set := lyrics.NewSet(best.Lines, best.Provider, best.Format)
	set.Score = best.Score
	set.Valid = best.Report.Valid

	o.cache.Put(track.Key(), set)
	o.stats.Provider(best.Provider).Selected.Add(1)

	log.Infof("%s %s Selected %s/%s for %s (score %.1f, %d lines, %d candidates) in %v",
		logcolors.LogOrchestrator, logcolors.LogSelect, best.Provider, best.Format, track,
		best.Score, len(set.RealLines()), len(cands), time.Since(start).Round(time.Millisecond))
	return set, nil
}

// Strategy returns the configured fetch strategy
func (o *Orchestrator) Strategy() Strategy {
	return o.strategy
}
