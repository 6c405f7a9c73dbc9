package parser

import (
	"regexp"
	"strconv"
	"strings"

	"lyrics-sync-go/lyrics"
)

var (
	// [lineStartMs,lineDurationMs]
	yrcLineRegex = regexp.MustCompile(`^\[(\d+),(\d+)\]`)

	// (wordStartMs,wordDurationMs,flag)
	yrcWordRegex = regexp.MustCompile(`\((\d+),(\d+),(-?\d+)\)`)
)

// ParseYRC parses the compact word-level format where every line looks like
// [lineStartMs,lineDurMs](wStartMs,wDurMs,flag)word(wStartMs,wDurMs,flag)word...
// JSON credit lines some catalogs interleave are skipped along with any line
// whose header does not parse.
func ParseYRC(raw string) []lyrics.LyricLine {
	var lines []lyrics.LyricLine

	for _, rawLine := range strings.Split(raw, "\n") {
		rawLine = strings.TrimSpace(rawLine)
		m := yrcLineRegex.FindStringSubmatch(rawLine)
		if m == nil {
			continue
		}
		startMs, err1 := strconv.ParseInt(m[1], 10, 64)
		durMs, err2 := strconv.ParseInt(m[2], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}

		body := rawLine[len(m[0]):]
		words := parseYRCWords(body)

		var text strings.Builder
		for _, w := range words {
			text.WriteString(w.Text)
		}
		lineText := strings.TrimSpace(text.String())
		if len(words) == 0 {
			// Some entries carry a header and plain text with no word timing
			lineText = strings.TrimSpace(body)
		}
		if lineText == "" {
			continue
		}

		for i := range words {
			words[i].Text = strings.TrimSpace(words[i].Text)
		}
		words = dropEmptyWords(words)

		lines = append(lines, lyrics.LyricLine{
			Text:      lineText,
			StartTime: msToSeconds(startMs),
			EndTime:   msToSeconds(startMs + durMs),
			Words:     words,
		})
	}

	if len(lines) == 0 {
		return nil
	}
	sortLines(lines)
	return lines
}

// parseYRCWords reads each word header and the text up to the next header.
// Word text keeps its surrounding spaces so the caller can rebuild the line.
func parseYRCWords(body string) []lyrics.LyricWord {
	locs := yrcWordRegex.FindAllStringSubmatchIndex(body, -1)
	words := make([]lyrics.LyricWord, 0, len(locs))

	for i, loc := range locs {
		textEnd := len(body)
		if i+1 < len(locs) {
			textEnd = locs[i+1][0]
		}
		startMs, err1 := strconv.ParseInt(body[loc[2]:loc[3]], 10, 64)
		durMs, err2 := strconv.ParseInt(body[loc[4]:loc[5]], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		words = append(words, lyrics.LyricWord{
			Text:      body[loc[1]:textEnd],
			StartTime: msToSeconds(startMs),
			EndTime:   msToSeconds(startMs + durMs),
		})
	}
	return words
}

func dropEmptyWords(words []lyrics.LyricWord) []lyrics.LyricWord {
	out := words[:0]
	for _, w := range words {
		if w.Text != "" {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}
