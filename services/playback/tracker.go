package playback

import (
	"context"
	"sync"
	"time"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"

	log "github.com/sirupsen/logrus"
)

// DefaultPollInterval matches a typical render cadence
const DefaultPollInterval = 50 * time.Millisecond

// State is the sync result for one position update
type State struct {
	Position  float64           `json:"position"`
	Index     int               `json:"index"`
	Active    bool              `json:"active"`
	Line      *lyrics.LyricLine `json:"line,omitempty"`
	Interlude bool              `json:"interlude"`
	Changed   bool              `json:"changed"`
}

// Tracker keeps the active line for the lyric set currently on screen.
// Every update is computed from scratch, so backward seeks need no
// special handling.
type Tracker struct {
	mu        sync.Mutex
	set       *lyrics.LyricSet
	tolerance float64
	last      State
}

// NewTracker creates a tracker; tolerance <= 0 uses DefaultTolerance.
func NewTracker(tolerance float64) *Tracker {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Tracker{tolerance: tolerance, last: State{Index: -1}}
}

// SetLyrics swaps in a new set (nil clears it) and resets the cursor.
func (t *Tracker) SetLyrics(set *lyrics.LyricSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set = set
	t.last = State{Index: -1}
}

// Lyrics returns the set being tracked.
func (t *Tracker) Lyrics() *lyrics.LyricSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.set
}

// State returns the result of the most recent Update.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Update computes the state at position. Changed is set when the active
// index or interlude flag differs from the previous update.
func (t *Tracker) Update(position float64) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := State{Position: position, Index: -1}
	if t.set != nil {
		lines := t.set.Lines
		if i, ok := ActiveIndex(lines, position, t.tolerance); ok {
			line := lines[i]
			s.Index, s.Active, s.Line = i, true, &line
			s.Interlude = line.IsPlaceholder
		} else {
			s.Interlude = betweenLines(lines, position)
		}
	}

	s.Changed = s.Index != t.last.Index || s.Interlude != t.last.Interlude
	t.last = s
	return s
}

// betweenLines reports whether position sits in a gap that qualifies as
// an interlude, including the wait before the first line.
func betweenLines(lines []lyrics.LyricLine, position float64) bool {
	var prev *lyrics.LyricLine
	for i := range lines {
		l := &lines[i]
		if l.StartTime > position {
			if prev == nil {
				return true
			}
			return IsInterlude(*prev, *l)
		}
		if l.EndTime <= position {
			prev = l
		}
	}
	return false
}

// Run polls position every interval and calls emit whenever the state
// changes, until ctx is cancelled. Negative positions are ignored.
func (t *Tracker) Run(ctx context.Context, interval time.Duration, position func() float64, emit func(State)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debugf("%s Tracker started (interval %v)", logcolors.LogSync, interval)
	for {
		select {
		case <-ctx.Done():
			log.Debugf("%s Tracker stopped", logcolors.LogSync)
			return
		case <-ticker.C:
			pos := position()
			if pos < 0 {
				continue
			}
			if s := t.Update(pos); s.Changed {
				emit(s)
			}
		}
	}
}
