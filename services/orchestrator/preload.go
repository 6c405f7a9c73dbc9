package orchestrator

import (
	"context"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Preload warms the cache for upcoming tracks, one at a time with at
// least the preload delay between network fetches. Tracks already cached
// are skipped without waiting. Preloading never changes the foreground
// track or the published state. It returns how many tracks were fetched
// and stops early when ctx is done.
func (o *Orchestrator) Preload(ctx context.Context, tracks []lyrics.TrackIdentity) int {
	limiter := rate.NewLimiter(rate.Every(o.preloadDelay), 1)
	fetched := 0

	for _, track := range tracks {
		if ctx.Err() != nil {
			break
		}
		if track.IsZero() {
			continue
		}
		key := track.Key()
		if _, ok := o.cache.Get(key); ok {
			o.stats.PreloadSkipped.Add(1)
			log.Debugf("%s Already cached: %s", logcolors.LogPreload, track)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			break
		}

		_, err, _ := o.flights.Do(key, func() (any, error) {
			return o.acquire(context.WithoutCancel(ctx), track)
		})
		fetched++
		o.stats.PreloadFetched.Add(1)
		if err != nil {
			log.Debugf("%s Nothing for %s: %v", logcolors.LogPreload, track, err)
			continue
		}
		log.Debugf("%s Warmed %s", logcolors.LogPreload, track)
	}

	log.Infof("%s Done: %d fetched, %d requested", logcolors.LogPreload, fetched, len(tracks))
	return fetched
}
