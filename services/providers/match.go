package providers

import (
	"lyrics-sync-go/lyrics"
	"lyrics-sync-go/utils"
)

// Candidate is a song a provider's search returned, before its lyrics
// are downloaded
type Candidate struct {
	ID         string
	Title      string
	Artists    []string
	DurationMs int
}

// Match weights. Title dominates since search already keys on it.
const (
	titleWeight    = 0.5
	artistWeight   = 0.3
	durationWeight = 0.2
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// FilterByDuration keeps candidates within deltaMs of durationMs.
// Candidates with unknown duration are kept.
func FilterByDuration(cands []Candidate, durationMs, deltaMs int) []Candidate {
	var filtered []Candidate
	for _, c := range cands {
		if c.DurationMs <= 0 || abs(c.DurationMs-durationMs) <= deltaMs {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// MatchScore rates how well c matches track, from 0 to 1
func MatchScore(c Candidate, track lyrics.TrackIdentity) float64 {
	score := titleWeight * utils.Similarity(track.Title, c.Title)

	if track.Artist != "" {
		score += artistWeight * utils.ArtistSimilarity(track.Artist, c.Artists)
	} else {
		score += artistWeight
	}

	durationMs := int(track.DurationSeconds * 1000)
	if durationMs > 0 && c.DurationMs > 0 {
		diff := abs(c.DurationMs - durationMs)
		switch {
		case diff < 3000:
			score += durationWeight
		case diff < 5000:
			score += durationWeight / 2
		case diff < 10000:
			score += durationWeight / 4
		}
	} else {
		// unknown on either side: neither reward nor punish
		score += durationWeight / 2
	}
	return score
}

// SelectBest returns the highest scoring candidate and its score.
// Ties keep the earlier (provider-ranked) candidate.
func SelectBest(cands []Candidate, track lyrics.TrackIdentity) (*Candidate, float64) {
	var best *Candidate
	bestScore := -1.0
	for i := range cands {
		if s := MatchScore(cands[i], track); s > bestScore {
			best, bestScore = &cands[i], s
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestScore
}
