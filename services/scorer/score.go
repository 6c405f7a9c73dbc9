// Package scorer ranks parsed lyric candidates by timing quality, sync
// granularity, coverage and provider reliability.
package scorer

import (
	"sort"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"

	log "github.com/sirupsen/logrus"
)

const (
	wordSyncWeight     = 30.0
	qualityWeight      = 30.0
	lineCountPerLine   = 0.5
	lineCountMax       = 15.0
	timeCoverageWeight = 15.0
	maxProviderBonus   = 10.0
)

// DefaultProviderBonus rewards sources with richer timing
var DefaultProviderBonus = map[string]float64{
	"ttmldb":    10,
	"netease":   8,
	"kugou":     6,
	"lrclib":    5,
	"lyricsovh": 0,
}

// Candidate is one parsed provider result with its score
type Candidate struct {
	Lines    []lyrics.LyricLine
	Provider string
	Format   lyrics.Format
	Score    float64
	Report   QualityReport
}

// Scorer scores candidates with a fixed provider bonus table
type Scorer struct {
	bonus map[string]float64
}

// New creates a Scorer. A nil table uses DefaultProviderBonus.
func New(bonus map[string]float64) *Scorer {
	if bonus == nil {
		bonus = DefaultProviderBonus
	}
	return &Scorer{bonus: bonus}
}

// Bonus returns the provider reliability bonus, capped at 10.
func (s *Scorer) Bonus(provider string) float64 {
	return min(max(s.bonus[provider], 0), maxProviderBonus)
}

// Score rates lines against the song duration. A best-case candidate
// scores 100. An unknown duration (<= 0) gives no time coverage credit.
func (s *Scorer) Score(lines []lyrics.LyricLine, durationSeconds float64, provider string) (float64, QualityReport) {
	report := Analyze(lines)
	if report.Total == 0 {
		return 0, report
	}

	var synced int
	var lastEnd float64
	for _, l := range lines {
		if l.IsPlaceholder {
			continue
		}
		if l.HasWordSync() {
			synced++
		}
		lastEnd = l.EndTime
	}

	score := float64(synced) / float64(report.Total) * wordSyncWeight
	score += report.Score / 100 * qualityWeight
	score += min(float64(report.Total)*lineCountPerLine, lineCountMax)
	if durationSeconds > 0 {
		score += min(lastEnd/durationSeconds, 1) * timeCoverageWeight
	}
	score += s.Bonus(provider)
	return score, report
}

// Evaluate scores lines and wraps them as a Candidate.
func (s *Scorer) Evaluate(lines []lyrics.LyricLine, durationSeconds float64, provider string, format lyrics.Format) Candidate {
	score, report := s.Score(lines, durationSeconds, provider)
	return Candidate{Lines: lines, Provider: provider, Format: format, Score: score, Report: report}
}

// Select orders candidates by score and returns the best valid one, or the
// best overall when none pass the quality thresholds. It only fails on an
// empty input.
func Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	for _, c := range sorted {
		log.Debugf("%s %s (%s): %.1f valid=%v", logcolors.LogSelect, c.Provider, c.Format, c.Score, c.Report.Valid)
	}

	for _, c := range sorted {
		if c.Report.Valid {
			return c, true
		}
	}
	log.Warnf("%s No candidate passed quality checks, using %s (%.1f): %v",
		logcolors.LogSelect, sorted[0].Provider, sorted[0].Score, sorted[0].Report.Issues)
	return sorted[0], true
}
