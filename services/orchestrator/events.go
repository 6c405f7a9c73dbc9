package orchestrator

import (
	"time"

	"lyrics-sync-go/lyrics"
)

// Status is the lifecycle state of the foreground track
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusReady    Status = "ready"
	StatusNotFound Status = "not_found"
)

// Update is a snapshot of the published state. Set is shared and must
// not be modified by receivers.
type Update struct {
	Status Status               `json:"status"`
	Track  lyrics.TrackIdentity `json:"track"`
	Set    *lyrics.LyricSet     `json:"lyrics,omitempty"`
	At     time.Time            `json:"at"`
}

const subscriberBuffer = 8

// Subscribe returns a channel of published updates and a function that
// unsubscribes and closes it. Delivery never blocks the orchestrator:
// a subscriber that falls behind misses updates and can catch up with
// Current.
func (o *Orchestrator) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	o.mu.Unlock()

	var done bool
	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if done {
			return
		}
		done = true
		delete(o.subs, id)
		close(ch)
	}
}

// Current returns the last published update
func (o *Orchestrator) Current() Update {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// publishLocked replaces the current state and fans it out. Callers hold o.mu.
func (o *Orchestrator) publishLocked(u Update) {
	u.At = o.now()
	o.current = u
	for _, ch := range o.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
