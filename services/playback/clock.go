package playback

import (
	"sync"
	"time"
)

// Clock extrapolates the playback position between reports from the
// player. While paused the reported position is held.
type Clock struct {
	mu         sync.Mutex
	position   float64
	reportedAt time.Time
	playing    bool
	now        func() time.Time
}

// NewClock returns a paused clock with no position (Position reports -1).
// A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{position: -1, now: now}
}

// Report records the player's position in seconds and whether it is playing
func (c *Clock) Report(position float64, playing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.playing = playing
	c.reportedAt = c.now()
}

// Reset forgets the position, for a track change
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = -1
	c.playing = false
}

// Position returns the estimated position, or -1 before the first report
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position < 0 || !c.playing {
		return c.position
	}
	return c.position + c.now().Sub(c.reportedAt).Seconds()
}
