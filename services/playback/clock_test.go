package playback

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewClock(func() time.Time { return now })

	if c.Position() != -1 {
		t.Fatalf("Expected -1 before the first report, got %v", c.Position())
	}

	c.Report(10, true)
	now = now.Add(1500 * time.Millisecond)
	if got := c.Position(); got != 11.5 {
		t.Errorf("Expected extrapolated position 11.5, got %v", got)
	}

	c.Report(20, false)
	now = now.Add(5 * time.Second)
	if got := c.Position(); got != 20 {
		t.Errorf("Expected paused position to hold at 20, got %v", got)
	}

	c.Reset()
	if c.Position() != -1 {
		t.Errorf("Expected -1 after reset, got %v", c.Position())
	}
}
