package parser

import (
	"strings"

	"lyrics-sync-go/lyrics"
)

// fallbackSecondsPerLine spreads untimed text when the song length is unknown.
const fallbackSecondsPerLine = 4.0

// ParsePlain turns untimed text into evenly spaced lines covering the song:
// line i spans [i*d/n, (i+1)*d/n). No line carries word timing.
func ParsePlain(raw string, durationSeconds float64) []lyrics.LyricLine {
	var texts []string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			texts = append(texts, l)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	n := float64(len(texts))
	if durationSeconds <= 0 {
		durationSeconds = n * fallbackSecondsPerLine
	}
	step := durationSeconds / n

	lines := make([]lyrics.LyricLine, len(texts))
	for i, text := range texts {
		lines[i] = lyrics.LyricLine{
			Text:      text,
			StartTime: float64(i) * step,
			EndTime:   float64(i+1) * step,
		}
	}
	return lines
}
