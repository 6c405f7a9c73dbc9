package circuitbreaker

import (
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(threshold int) (*CircuitBreaker, *testClock) {
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New(Config{
		Name:            "test",
		Threshold:       threshold,
		Cooldown:        10 * time.Second,
		HalfOpenTimeout: 2 * time.Second,
		Now:             clock.Now,
	})
	return cb, clock
}

func TestNew_Defaults(t *testing.T) {
	cb := New(Config{})

	if cb.threshold != 5 {
		t.Errorf("Expected default threshold 5, got %d", cb.threshold)
	}
	if cb.cooldown != 5*time.Minute {
		t.Errorf("Expected default cooldown 5m, got %v", cb.cooldown)
	}
	if cb.halfOpenTimeout != 30*time.Second {
		t.Errorf("Expected default halfOpenTimeout 30s, got %v", cb.halfOpenTimeout)
	}
	if cb.Name() != "default" {
		t.Errorf("Expected default name 'default', got %q", cb.Name())
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected initial state CLOSED, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		if cb.IsOpen() {
			t.Fatalf("Expected circuit closed after %d failures", i+1)
		}
	}
	cb.RecordFailure()

	if !cb.IsOpen() {
		t.Fatal("Expected circuit OPEN after threshold")
	}
	if cb.Allow() {
		t.Error("Expected Allow() false while OPEN")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if cb.Failures() != 0 {
		t.Errorf("Expected failures reset to 0, got %d", cb.Failures())
	}
	cb.RecordFailure()
	if cb.IsOpen() {
		t.Error("Expected circuit to stay closed after the reset")
	}
}

func TestCircuitBreaker_HalfOpenLifecycle(t *testing.T) {
	tests := []struct {
		name     string
		probe    func(cb *CircuitBreaker)
		expected State
	}{
		{name: "Probe succeeds", probe: func(cb *CircuitBreaker) { cb.RecordSuccess() }, expected: StateClosed},
		{name: "Probe fails", probe: func(cb *CircuitBreaker) { cb.RecordFailure() }, expected: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := newTestBreaker(1)
			cb.RecordFailure()

			clock.Advance(9 * time.Second)
			if cb.Allow() {
				t.Fatal("Expected Allow() false before cooldown")
			}
			if got := cb.TimeUntilRetry(); got != time.Second {
				t.Errorf("Expected 1s until retry, got %v", got)
			}

			clock.Advance(time.Second)
			if !cb.Allow() {
				t.Fatal("Expected probe request after cooldown")
			}
			if cb.State() != StateHalfOpen {
				t.Fatalf("Expected HALF-OPEN, got %s", cb.State())
			}
			if cb.Allow() {
				t.Error("Expected only one probe in HALF-OPEN")
			}

			tt.probe(cb)
			if cb.State() != tt.expected {
				t.Errorf("Expected %s after probe, got %s", tt.expected, cb.State())
			}
		})
	}
}

func TestCircuitBreaker_HalfOpenTimeout(t *testing.T) {
	cb, clock := newTestBreaker(1)
	cb.RecordFailure()
	clock.Advance(10 * time.Second)
	cb.Allow()

	clock.Advance(2 * time.Second)
	if cb.Allow() {
		t.Error("Expected Allow() false once the probe timed out")
	}
	if cb.State() != StateOpen {
		t.Errorf("Expected OPEN after half-open timeout, got %s", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(1)
	cb.RecordFailure()
	cb.Reset()

	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("Expected CLOSED with 0 failures, got %s/%d", cb.State(), cb.Failures())
	}
	if !cb.Allow() {
		t.Error("Expected requests allowed after reset")
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	clock := &testClock{now: time.Now()}
	var transitions []string
	cb := New(Config{
		Name:      "hook",
		Threshold: 1,
		Cooldown:  time.Second,
		Now:       clock.Now,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	cb.RecordFailure()
	clock.Advance(time.Second)
	cb.Allow()
	cb.RecordSuccess()
	cb.RecordSuccess() // no transition

	expected := []string{"hook:CLOSED->OPEN", "hook:OPEN->HALF-OPEN", "hook:HALF-OPEN->CLOSED"}
	if len(transitions) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, transitions)
	}
	for i := range expected {
		if transitions[i] != expected[i] {
			t.Errorf("Transition %d: expected %s, got %s", i, expected[i], transitions[i])
		}
	}
}

func TestCircuitBreaker_Snapshot(t *testing.T) {
	cb, clock := newTestBreaker(2)
	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(4 * time.Second)

	s := cb.Snapshot()
	if s.Name != "test" || s.State != "OPEN" || s.Failures != 2 || s.Threshold != 2 {
		t.Errorf("Unexpected snapshot: %+v", s)
	}
	if s.RetryInSeconds != 6 {
		t.Errorf("Expected 6s until retry, got %v", s.RetryInSeconds)
	}
}

func TestCircuitBreaker_StateString(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "CLOSED",
		StateOpen:     "OPEN",
		StateHalfOpen: "HALF-OPEN",
		State(99):     "UNKNOWN",
	}
	for state, expected := range tests {
		if state.String() != expected {
			t.Errorf("Expected %q, got %q", expected, state.String())
		}
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := New(Config{Name: "concurrent", Threshold: 100, Cooldown: time.Second})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cb.Allow()
			if i%2 == 0 {
				cb.RecordFailure()
			} else {
				cb.RecordSuccess()
			}
			cb.Snapshot()
		}(i)
	}
	wg.Wait()
}
