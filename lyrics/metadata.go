package lyrics

import (
	"regexp"
	"strings"
)

const (
	// Credit lines are flashed briefly at the top of the song; anything this
	// long is treated as sung text even if it contains a colon.
	metadataMaxDuration = 5.0

	// Short lines starting within this window after the last detected credit
	// line are dropped too ("Produced by X" often has no colon). The window
	// is anchored on the credit line itself and does not chain.
	metadataGraceWindow = 3.0

	// Residual credits flash by; a line held this long is a sung line.
	metadataResidualMaxDuration = 1.5
)

// "Title - Artist" header lines, with ASCII or typographic dashes
var titleSeparatorRegex = regexp.MustCompile(`^[^-–—]+\s[-–—]\s[^-–—]+$`)

// StripMetadata drops credit and header lines that precede the first real
// lyric. Lines after the first real lyric are never touched. The
// placeholder line, if present, is dropped as well; callers add it back
// through NewSet.
func StripMetadata(lines []LyricLine) []LyricLine {
	start := 0
	lastMeta := -1
	for start < len(lines) {
		l := lines[start]
		if l.IsPlaceholder || isMetadataLine(l) {
			if !l.IsPlaceholder {
				lastMeta = start
			}
			start++
			continue
		}
		if lastMeta >= 0 && isResidualCredit(l, lines[lastMeta]) {
			start++
			continue
		}
		break
	}
	if start == 0 {
		return lines
	}
	out := make([]LyricLine, len(lines)-start)
	copy(out, lines[start:])
	return out
}

func isMetadataLine(l LyricLine) bool {
	text := strings.TrimSpace(l.Text)
	if text == "" {
		return true
	}
	short := l.Duration() < metadataMaxDuration
	if short && strings.ContainsAny(text, ":：") {
		return true
	}
	return short && titleSeparatorRegex.MatchString(text)
}

func isResidualCredit(l, lastMeta LyricLine) bool {
	return l.StartTime-lastMeta.StartTime <= metadataGraceWindow && l.Duration() < metadataResidualMaxDuration
}
