package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lyrics-sync-go/circuitbreaker"
	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/services/parser"
	"lyrics-sync-go/services/providers"
	"lyrics-sync-go/services/scorer"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Strategy selects how providers are queried on a cache miss
type Strategy string

const (
	// StrategyParallel queries every provider at once and keeps the best
	// scoring candidate
	StrategyParallel Strategy = "parallel"
	// StrategyPriority walks providers in registry order and stops at the
	// first one that yields lyrics
	StrategyPriority Strategy = "priority"
)

// ParseStrategy parses a strategy name, case-insensitively
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyParallel, "":
		return StrategyParallel, nil
	case StrategyPriority:
		return StrategyPriority, nil
	}
	return "", fmt.Errorf("unknown fetch strategy %q", s)
}

// fetchParallel fans out to every provider, each under its own timeout.
// Failed providers contribute nothing.
func (o *Orchestrator) fetchParallel(ctx context.Context, track lyrics.TrackIdentity) []scorer.Candidate {
	ps := o.registry.Providers()
	results := make([][]lyrics.SourceResult, len(ps))

	var g errgroup.Group
	for i, p := range ps {
		i, p := i, p
		g.Go(func() error {
			results[i] = o.query(ctx, p, track)
			return nil
		})
	}
	g.Wait()

	var cands []scorer.Candidate
	for _, rs := range results {
		cands = append(cands, o.candidates(rs, track)...)
	}
	return cands
}

// fetchPriority returns the candidates of the first provider whose
// payloads parse to at least one line
func (o *Orchestrator) fetchPriority(ctx context.Context, track lyrics.TrackIdentity) []scorer.Candidate {
	for _, p := range o.registry.Providers() {
		if ctx.Err() != nil {
			return nil
		}
		if cands := o.candidates(o.query(ctx, p, track), track); len(cands) > 0 {
			return cands
		}
	}
	return nil
}

func (o *Orchestrator) query(ctx context.Context, p providers.Provider, track lyrics.TrackIdentity) []lyrics.SourceResult {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prefix := logcolors.Provider(p.Name())
	counters := o.stats.Provider(p.Name())

	results, err := p.FetchLyrics(ctx, track)
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		log.Debugf("%s Skipped, circuit open", prefix)
		return nil
	case err != nil:
		counters.Failure.Add(1)
		log.Warnf("%s %v", prefix, err)
		return nil
	case len(results) == 0:
		counters.Empty.Add(1)
		log.Debugf("%s %s %s", prefix, logcolors.LogNotFound, track)
		return nil
	}
	counters.Success.Add(1)
	log.Debugf("%s Returned %d payload(s) for %s", prefix, len(results), track)
	return results
}

// candidates parses, strips leading credits and scores payloads, so the
// quality analysis only sees lines that will be shown. Payloads that parse
// to nothing are dropped; payloads that are nothing but credits keep them.
func (o *Orchestrator) candidates(results []lyrics.SourceResult, track lyrics.TrackIdentity) []scorer.Candidate {
	var cands []scorer.Candidate
	for _, r := range results {
		lines := parser.Parse(r, track.DurationSeconds)
		if len(lines) == 0 {
			log.Debugf("%s %s %s payload had no usable lines", logcolors.LogParser, r.Provider, r.Format)
			continue
		}
		if stripped := lyrics.StripMetadata(lines); len(stripped) > 0 {
			lines = stripped
		}
		cands = append(cands, o.scorer.Evaluate(lines, track.DurationSeconds, r.Provider, r.Format))
	}
	return cands
}
