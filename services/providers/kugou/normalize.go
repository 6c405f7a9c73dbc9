package kugou

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var (
	lrcTimeRegex = regexp.MustCompile(`\[(\d{2}):(\d{2})[\.:]+(\d{2,3})\]`)

	// credit lines such as "[00:05.00]作曲：xxx"
	creditRegex = regexp.MustCompile(`^\[\d{2}:\d{2}[\.:]\d{2,3}\].+：.+`)
)

const (
	// pureMusicText is the placeholder Kugou serves for instrumentals
	pureMusicText = "纯音乐，请欣赏"

	// maxHeadTailLines bounds how far credit trimming looks from each end
	maxHeadTailLines = 30
)

// DecodeBase64Content decodes the download payload and drops a UTF-8 BOM
func DecodeBase64Content(encoded string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(decoded), "\ufeff"), nil
}

// IsInstrumental reports whether lrc is Kugou's pure-music placeholder
func IsInstrumental(lrc string) bool {
	return strings.Contains(lrc, pureMusicText)
}

// NormalizeLyrics keeps only timed lines and cuts the credit blocks Kugou
// puts at the head and tail. The head cut also drops anything above the
// credits, usually a "Song - Artist" title line. Each scan covers at most
// half the lines so a tail block never empties the head.
func NormalizeLyrics(lrc string) string {
	lrc = strings.ReplaceAll(lrc, "&apos;", "'")

	var accepted []string
	for _, raw := range strings.Split(lrc, "\n") {
		raw = strings.TrimSpace(raw)
		if raw != "" && lrcTimeRegex.MatchString(raw) {
			accepted = append(accepted, raw)
		}
	}
	if len(accepted) == 0 {
		return lrc
	}

	head := 0
	for i := 0; i < min(maxHeadTailLines, (len(accepted)+1)/2); i++ {
		if creditRegex.MatchString(accepted[i]) {
			head = i + 1
		} else if head > 0 {
			break
		}
	}

	end := len(accepted)
	for i := len(accepted) - 1; i >= head && len(accepted)-1-i < maxHeadTailLines; i-- {
		if creditRegex.MatchString(accepted[i]) {
			end = i
		} else if end < len(accepted) {
			break
		}
	}

	return strings.Join(accepted[head:end], "\n")
}
