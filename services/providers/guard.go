package providers

import (
	"context"
	"errors"

	"lyrics-sync-go/circuitbreaker"
	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"

	log "github.com/sirupsen/logrus"
)

// Guarded wraps a provider with a circuit breaker. An open breaker
// short-circuits FetchLyrics with circuitbreaker.ErrCircuitOpen.
type Guarded struct {
	Provider
	Breaker *circuitbreaker.CircuitBreaker
}

// Guard wraps p with a new breaker named after the provider
func Guard(p Provider, cfg circuitbreaker.Config) *Guarded {
	cfg.Name = p.Name()
	return &Guarded{Provider: p, Breaker: circuitbreaker.New(cfg)}
}

// FetchLyrics asks the breaker before delegating. Not-found (empty, nil)
// counts as a success; a cancellation by the caller counts as neither.
func (g *Guarded) FetchLyrics(ctx context.Context, track lyrics.TrackIdentity) ([]lyrics.SourceResult, error) {
	if !g.Breaker.Allow() {
		log.Debugf("%s Skipping request, retry in %v",
			logcolors.CircuitBreakerPrefix(g.Name()), g.Breaker.TimeUntilRetry())
		return nil, NewProviderError(g.Name(), "circuit open", circuitbreaker.ErrCircuitOpen)
	}

	results, err := g.Provider.FetchLyrics(ctx, track)
	switch {
	case err == nil:
		g.Breaker.RecordSuccess()
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
	default:
		g.Breaker.RecordFailure()
	}
	return results, err
}

// Breakers collects the breakers of every guarded provider in the registry
func (r *Registry) Breakers() []*circuitbreaker.CircuitBreaker {
	var out []*circuitbreaker.CircuitBreaker
	for _, p := range r.Providers() {
		if g, ok := p.(*Guarded); ok {
			out = append(out, g.Breaker)
		}
	}
	return out
}
