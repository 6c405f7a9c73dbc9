package stats

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	s := New()
	endpoints := []string{"/lyrics", "/lyrics/current", "/playback/position", "/preload", "/stats", "/cache/clear", "/health"}
	for _, e := range endpoints {
		s.RecordRequest(e)
	}

	tests := []struct {
		name     string
		got      int64
		expected int64
	}{
		{"total", s.TotalRequests.Load(), 7},
		{"lyrics", s.LyricsRequests.Load(), 2},
		{"playback", s.PlaybackRequests.Load(), 1},
		{"preload", s.PreloadRequests.Load(), 1},
		{"admin", s.AdminRequests.Load(), 2},
		{"other", s.OtherRequests.Load(), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.expected, tt.got)
		}
	}
}

func TestResponseTimes(t *testing.T) {
	s := New()
	if s.MinResponseTime() != 0 || s.AvgResponseTime() != 0 {
		t.Error("Expected zero times before any response")
	}

	s.RecordResponseTime(10 * time.Millisecond)
	s.RecordResponseTime(30 * time.Millisecond)

	if s.MinResponseTime() != 10*time.Millisecond {
		t.Errorf("Expected min 10ms, got %v", s.MinResponseTime())
	}
	if s.MaxResponseTime() != 30*time.Millisecond {
		t.Errorf("Expected max 30ms, got %v", s.MaxResponseTime())
	}
	if s.AvgResponseTime() != 20*time.Millisecond {
		t.Errorf("Expected avg 20ms, got %v", s.AvgResponseTime())
	}
}

func TestCacheHitRate(t *testing.T) {
	s := New()
	if s.CacheHitRate() != 0 {
		t.Errorf("Expected 0 with no lookups, got %v", s.CacheHitRate())
	}
	s.RecordCacheHit()
	s.RecordCacheHit()
	s.RecordCacheHit()
	s.RecordCacheMiss()
	if s.CacheHitRate() != 75 {
		t.Errorf("Expected 75%%, got %v", s.CacheHitRate())
	}
}

func TestProviderCounters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Provider("lrclib").Success.Add(1)
		}()
	}
	wg.Wait()
	s.Provider("netease").Failure.Add(1)

	if got := s.Provider("lrclib").Success.Load(); got != 50 {
		t.Errorf("Expected 50 successes, got %d", got)
	}
	names := s.ProviderNames()
	if len(names) != 2 || names[0] != "lrclib" || names[1] != "netease" {
		t.Errorf("Unexpected provider names %v", names)
	}

	snap := s.Snapshot()
	providers := snap["providers"].(map[string]interface{})
	if providers["netease"].(map[string]interface{})["failure"] != int64(1) {
		t.Errorf("Unexpected provider snapshot %v", providers)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.db")

	s := New()
	s.Resolutions.Add(5)
	s.NotFound.Add(2)
	s.RecordResponseTime(4 * time.Millisecond)
	s.Provider("ttmldb").Selected.Add(3)
	first := s.StartTime.Add(-time.Hour)
	s.StartTime = first

	store, err := NewStore(path, s)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	restored := New()
	store, err = NewStore(path, restored)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer store.Close()
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if restored.Resolutions.Load() != 5 || restored.NotFound.Load() != 2 {
		t.Errorf("Counters not restored: resolutions %d, not found %d",
			restored.Resolutions.Load(), restored.NotFound.Load())
	}
	if restored.MinResponseTime() != 4*time.Millisecond {
		t.Errorf("Expected min 4ms, got %v", restored.MinResponseTime())
	}
	if restored.Provider("ttmldb").Selected.Load() != 3 {
		t.Error("Provider counters not restored")
	}
	if !restored.StartTime.Equal(first) {
		t.Errorf("Expected first start %v, got %v", first, restored.StartTime)
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	s := New()
	store, err := NewStore(filepath.Join(t.TempDir(), "stats.db"), s)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	start := s.StartTime
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !s.StartTime.Equal(start) || s.MinResponseTime() != 0 {
		t.Error("Loading an empty store should leave stats untouched")
	}
}
