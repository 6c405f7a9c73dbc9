package parser

import (
	"regexp"
	"strconv"
	"strings"

	"lyrics-sync-go/lyrics"
)

// defaultLastLineDuration is given to the final line, which has no
// successor to borrow an end time from.
const defaultLastLineDuration = 5.0

var (
	// LRC timestamp: [mm:ss], [mm:ss.cc], [mm:ss.ccc] or [mm:ss:cc]
	lrcTimeRegex = regexp.MustCompile(`^\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

	// Metadata tags pattern: [tag:value]
	lrcMetadataRegex = regexp.MustCompile(`^\[([a-zA-Z#]+):([^\]]*)\]$`)
)

type lrcEntry struct {
	start float64
	text  string
}

// ParseLRC parses line-level timed text. A raw line may carry several
// leading timestamps, in which case it produces one line per timestamp.
// Timed entries with no text only mark where the previous line ends.
func ParseLRC(raw string) []lyrics.LyricLine {
	var entries []lrcEntry

	for _, rawLine := range strings.Split(raw, "\n") {
		rawLine = strings.TrimSpace(strings.TrimPrefix(rawLine, "\ufeff"))
		if rawLine == "" || lrcMetadataRegex.MatchString(rawLine) {
			continue
		}

		var starts []float64
		text := rawLine
		for {
			m := lrcTimeRegex.FindStringSubmatch(text)
			if m == nil {
				break
			}
			if start, ok := lrcTimestamp(m[1], m[2], m[3]); ok {
				starts = append(starts, start)
			}
			text = text[len(m[0]):]
		}
		if len(starts) == 0 {
			continue
		}

		text = strings.TrimSpace(text)
		for _, s := range starts {
			entries = append(entries, lrcEntry{start: s, text: text})
		}
	}

	if len(entries) == 0 {
		return nil
	}

	// Sort before deriving end times; repeated-chorus lines list several
	// timestamps out of order.
	lines := make([]lyrics.LyricLine, len(entries))
	for i, e := range entries {
		lines[i] = lyrics.LyricLine{Text: e.text, StartTime: e.start}
	}
	sortLines(lines)

	out := lines[:0]
	for i := range lines {
		end := lines[i].StartTime + defaultLastLineDuration
		if i+1 < len(lines) {
			end = lines[i+1].StartTime
		}
		lines[i].EndTime = end
		if lines[i].Text != "" {
			out = append(out, lines[i])
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func lrcTimestamp(minStr, secStr, fracStr string) (float64, bool) {
	minutes, err := strconv.Atoi(minStr)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(secStr)
	if err != nil || seconds >= 60 {
		return 0, false
	}
	t := float64(minutes*60 + seconds)
	if fracStr != "" {
		frac, err := strconv.Atoi(fracStr)
		if err != nil {
			return 0, false
		}
		switch len(fracStr) {
		case 1:
			t += float64(frac) / 10
		case 2:
			t += float64(frac) / 100
		default:
			t += float64(frac) / 1000
		}
	}
	return t, true
}
