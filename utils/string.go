package utils

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// NormalizeText lower-cases s, collapses runs of whitespace and trims
// punctuation from both ends. Used for cache keys and fuzzy matching.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// Similarity returns the Jaro-Winkler similarity of two strings after
// normalization, in the range 0 (nothing in common) to 1 (identical).
func Similarity(a, b string) float64 {
	a, b = NormalizeText(a), NormalizeText(b)
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	// Substring matches are common for "Song (Remastered)" style titles
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}
	return matchr.JaroWinkler(a, b, false)
}

// ArtistSimilarity compares an expected artist against a provider's artist
// list, returning the best score among them. Providers often join
// collaborators with "," or "&", so the joined form is scored as well.
func ArtistSimilarity(expected string, artists []string) float64 {
	if len(artists) == 0 {
		return 0
	}
	best := Similarity(expected, strings.Join(artists, ", "))
	for _, a := range artists {
		if s := Similarity(expected, a); s > best {
			best = s
		}
	}
	return best
}
