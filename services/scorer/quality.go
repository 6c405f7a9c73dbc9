package scorer

import (
	"fmt"

	"lyrics-sync-go/lyrics"
)

const (
	// Lines shorter than this are almost always timing mistakes
	shortLineSeconds = 0.5

	// Lenient on purpose: repeated choruses and harmonies trip these checks
	maxReverseRatio = 0.25
	maxOverlapRatio = 0.20
	maxShortRatio   = 0.30
)

// QualityReport holds the timing anomaly counts of a set of lines
type QualityReport struct {
	Total        int      `json:"total"`
	Reversed     int      `json:"reversed"`
	Overlapping  int      `json:"overlapping"`
	Short        int      `json:"short"`
	ReverseRatio float64  `json:"reverseRatio"`
	OverlapRatio float64  `json:"overlapRatio"`
	ShortRatio   float64  `json:"shortRatio"`
	Score        float64  `json:"score"`
	Valid        bool     `json:"valid"`
	Issues       []string `json:"issues,omitempty"`
}

// Analyze counts timing anomalies over the real lines (the placeholder is
// ignored). Callers are expected to strip leading metadata first.
func Analyze(lines []lyrics.LyricLine) QualityReport {
	var real []lyrics.LyricLine
	for _, l := range lines {
		if !l.IsPlaceholder {
			real = append(real, l)
		}
	}

	r := QualityReport{Total: len(real)}
	if r.Total == 0 {
		r.Issues = append(r.Issues, "no lines")
		return r
	}

	for i, l := range real {
		if l.Duration() < shortLineSeconds {
			r.Short++
		}
		if i == 0 {
			continue
		}
		prev := real[i-1]
		if l.StartTime < prev.StartTime {
			r.Reversed++
		}
		if l.StartTime < prev.EndTime {
			r.Overlapping++
		}
	}

	n := float64(r.Total)
	r.ReverseRatio = float64(r.Reversed) / n
	r.OverlapRatio = float64(r.Overlapping) / n
	r.ShortRatio = float64(r.Short) / n
	r.Score = max(0, 100-r.ReverseRatio*300-r.OverlapRatio*200-r.ShortRatio*100)

	r.Valid = true
	if r.ReverseRatio > maxReverseRatio {
		r.Valid = false
		r.Issues = append(r.Issues, fmt.Sprintf("%.0f%% of lines go back in time", r.ReverseRatio*100))
	}
	if r.OverlapRatio > maxOverlapRatio {
		r.Valid = false
		r.Issues = append(r.Issues, fmt.Sprintf("%.0f%% of lines overlap", r.OverlapRatio*100))
	}
	if r.ShortRatio > maxShortRatio {
		r.Valid = false
		r.Issues = append(r.Issues, fmt.Sprintf("%.0f%% of lines are shorter than %.1fs", r.ShortRatio*100, shortLineSeconds))
	}
	return r
}
