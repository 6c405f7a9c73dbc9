// Package playback maps a playback position onto the active lyric line.
package playback

import "lyrics-sync-go/lyrics"

const (
	// DefaultTolerance is how early a line may become active before its
	// nominal start. It only widens the lower bound.
	DefaultTolerance = 3.5

	// InterludeGap is the minimum silence between two lines that counts
	// as an interlude.
	InterludeGap = 5.0
)

// ActiveIndex returns the index of the first line whose window
// [start - tolerance, end) contains position. The first line of the set
// gets no lead-in: its window is [start, end). A set holding only a line
// at [10, 15) has nothing active at 6.6, while the same line following
// another one is active from 6.5. ok is false when no line is active.
func ActiveIndex(lines []lyrics.LyricLine, position, tolerance float64) (index int, ok bool) {
	for i, l := range lines {
		lower := l.StartTime
		if i > 0 {
			lower -= tolerance
		}
		if position >= lower && position < l.EndTime {
			return i, true
		}
	}
	return -1, false
}

// IsInterlude reports whether the gap between a and b is long enough to
// show an idle state.
func IsInterlude(a, b lyrics.LyricLine) bool {
	return b.StartTime-a.EndTime >= InterludeGap
}
