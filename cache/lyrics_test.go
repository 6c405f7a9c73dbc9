package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"lyrics-sync-go/lyrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func testSet(text string) *lyrics.LyricSet {
	return lyrics.NewSet([]lyrics.LyricLine{{Text: text, StartTime: 1, EndTime: 3}}, "test", lyrics.FormatLRC)
}

func setupTestCache(cfg Config) (*LyricsCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cfg.Now = clock.Now
	return NewLyricsCache(cfg), clock
}

func TestPutAndGet(t *testing.T) {
	c, clock := setupTestCache(Config{})
	set := testSet("hello")
	c.Put("song|artist", set)

	entry, ok := c.Get("song|artist")
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if entry.Set != set {
		t.Errorf("Expected the stored set back")
	}
	if !entry.FetchedAt.Equal(clock.Now()) {
		t.Errorf("Expected FetchedAt %v, got %v", clock.Now(), entry.FetchedAt)
	}
}

func TestGetNonExistentKey(t *testing.T) {
	c, _ := setupTestCache(Config{})
	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}
}

func TestPutNilIgnored(t *testing.T) {
	c, _ := setupTestCache(Config{})
	c.Put("k", nil)
	if n, _ := c.Stats(); n != 0 {
		t.Errorf("Expected nil set to be ignored, got %d keys", n)
	}
}

func TestTTLBoundary(t *testing.T) {
	const ttl = 24 * time.Hour
	const eps = time.Millisecond

	c, clock := setupTestCache(Config{TTL: ttl})
	c.Put("k", testSet("x"))

	clock.Advance(ttl - eps)
	if _, ok := c.Get("k"); !ok {
		t.Errorf("Expected hit at T+TTL-ε")
	}

	clock.Advance(2 * eps)
	if _, ok := c.Get("k"); ok {
		t.Errorf("Expected miss at T+TTL+ε")
	}

	// Still physically present until evicted or overwritten
	if n, _ := c.Stats(); n != 1 {
		t.Errorf("Expected expired entry to stay resident, got %d keys", n)
	}

	c.Put("k", testSet("fresh"))
	if _, ok := c.Get("k"); !ok {
		t.Errorf("Expected fresh put to supersede the expired entry")
	}
}

func TestEntryCountBound(t *testing.T) {
	c, _ := setupTestCache(Config{MaxEntries: 3})
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), testSet("x"))
	}

	// Touch k0 so k1 becomes the least recently used
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("Expected k0 present")
	}
	c.Put("k3", testSet("x"))

	if n, _ := c.Stats(); n != 3 {
		t.Errorf("Expected 3 entries, got %d", n)
	}
	if _, ok := c.Get("k1"); ok {
		t.Errorf("Expected k1 to be evicted")
	}
	for _, k := range []string{"k0", "k2", "k3"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("Expected %s to remain", k)
		}
	}
	if c.Evictions() != 1 {
		t.Errorf("Expected 1 eviction, got %d", c.Evictions())
	}
}

func TestByteBound(t *testing.T) {
	one := testSet("x")
	size := len("k0") + one.SizeEstimate()
	c, _ := setupTestCache(Config{MaxEntries: 100, MaxBytes: size*2 + size/2})

	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), testSet("x"))
	}

	n, _ := c.Stats()
	if n != 2 {
		t.Errorf("Expected byte bound to keep 2 entries, got %d", n)
	}
	if _, ok := c.Get("k4"); !ok {
		t.Errorf("Expected newest entry to remain")
	}
}

func TestOversizedEntryKept(t *testing.T) {
	c, _ := setupTestCache(Config{MaxBytes: 1})
	c.Put("big", testSet("a long line that is over one byte"))
	if _, ok := c.Get("big"); !ok {
		t.Errorf("Expected the entry just written to be kept")
	}
}

func TestOverwriteAdjustsSize(t *testing.T) {
	c, _ := setupTestCache(Config{})
	c.Put("k", testSet("x"))
	c.Put("k", testSet("x"))
	if n, _ := c.Stats(); n != 1 {
		t.Errorf("Expected overwrite to keep a single key, got %d", n)
	}
	c.mu.Lock()
	bytes := c.bytes
	c.mu.Unlock()
	want := len("k") + testSet("x").SizeEstimate()
	if bytes != want {
		t.Errorf("Expected %d bytes tracked, got %d", want, bytes)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c, _ := setupTestCache(Config{})
	c.Put("a", testSet("a"))
	c.Put("b", testSet("b"))

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Errorf("Expected a to be deleted")
	}
	c.Delete("missing")

	c.Clear()
	if n, kb := c.Stats(); n != 0 || kb != 0 {
		t.Errorf("Expected empty cache after Clear, got %d keys %d KB", n, kb)
	}
}

func TestRange(t *testing.T) {
	c, _ := setupTestCache(Config{})
	c.Put("a", testSet("a"))
	c.Put("b", testSet("b"))
	c.Put("c", testSet("c"))

	var keys []string
	c.Range(func(key string, entry CacheEntry) bool {
		keys = append(keys, key)
		return true
	})
	if len(keys) != 3 || keys[0] != "c" {
		t.Errorf("Expected most recent first, got %v", keys)
	}

	count := 0
	c.Range(func(key string, entry CacheEntry) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("Expected Range to stop early, visited %d", count)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, _ := setupTestCache(Config{MaxEntries: 10})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%25)
				c.Put(key, testSet(key))
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	n, _ := c.Stats()
	if n > 10 {
		t.Errorf("Expected entry bound to hold under concurrency, got %d", n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) != c.order.Len() {
		t.Errorf("Index and order out of sync: %d vs %d", len(c.items), c.order.Len())
	}
}
