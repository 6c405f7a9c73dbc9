// Package parser converts raw provider payloads into ordered lyric lines.
// Every parser skips malformed entries instead of failing and returns its
// lines sorted by start time.
package parser

import (
	"sort"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"

	log "github.com/sirupsen/logrus"
)

// Parse routes a provider payload to the parser for its format.
// durationSeconds is only used by the plain-text fallback.
func Parse(result lyrics.SourceResult, durationSeconds float64) []lyrics.LyricLine {
	var lines []lyrics.LyricLine
	switch result.Format {
	case lyrics.FormatLRC:
		lines = ParseLRC(result.RawText)
	case lyrics.FormatTTML:
		lines = ParseTTML(result.RawText)
	case lyrics.FormatYRC:
		lines = ParseYRC(result.RawText)
	case lyrics.FormatPlain:
		lines = ParsePlain(result.RawText, durationSeconds)
	default:
		log.Warnf("%s Unknown format %q from %s", logcolors.LogParser, result.Format, result.Provider)
		return nil
	}
	log.Debugf("%s %s payload from %s produced %d lines", logcolors.LogParser, result.Format, result.Provider, len(lines))
	return lines
}

func sortLines(lines []lyrics.LyricLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].StartTime < lines[j].StartTime
	})
}
