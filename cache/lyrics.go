package cache

import (
	"container/list"
	"sync"
	"time"

	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/lyrics"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxEntries = 200
	DefaultMaxBytes   = 8 << 20
	DefaultTTL        = 24 * time.Hour
)

// CacheEntry is a resolved lyric set and the time it was fetched
type CacheEntry struct {
	Set       *lyrics.LyricSet
	FetchedAt time.Time
	size      int
}

// Expired reports whether the entry is older than ttl at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) > ttl
}

type item struct {
	key   string
	entry CacheEntry
}

// Config holds the cache bounds. Zero values fall back to the defaults.
type Config struct {
	MaxEntries int
	MaxBytes   int
	TTL        time.Duration
	// Now is the clock used for fetch times and expiry; defaults to time.Now
	Now func() time.Time
}

// LyricsCache is an in-memory, size-bounded LRU of resolved lyric sets.
// Expiry is lazy: an expired entry reads as a miss but keeps its slot
// until it is evicted or overwritten.
type LyricsCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	bytes      int
	maxEntries int
	maxBytes   int
	ttl        time.Duration
	now        func() time.Time
	evictions  int64
}

// NewLyricsCache creates an empty cache
func NewLyricsCache(cfg Config) *LyricsCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log.Infof("%s Lyrics cache: %d entries, %d KB, TTL %v", logcolors.LogCacheInit, cfg.MaxEntries, cfg.MaxBytes/1024, cfg.TTL)
	return &LyricsCache{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: cfg.MaxEntries,
		maxBytes:   cfg.MaxBytes,
		ttl:        cfg.TTL,
		now:        cfg.Now,
	}
}

// Get returns the entry for key if present and not expired.
func (c *LyricsCache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return CacheEntry{}, false
	}
	it := el.Value.(*item)
	if it.entry.Expired(c.now(), c.ttl) {
		return CacheEntry{}, false
	}
	c.order.MoveToFront(el)
	return it.entry, true
}

// Put stores set under key, replacing any previous entry, and evicts the
// least recently used entries until both bounds hold again.
func (c *LyricsCache) Put(key string, set *lyrics.LyricSet) {
	if set == nil {
		return
	}
	entry := CacheEntry{Set: set, FetchedAt: c.now(), size: len(key) + set.SizeEstimate()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		it := el.Value.(*item)
		c.bytes += entry.size - it.entry.size
		it.entry = entry
		c.order.MoveToFront(el)
	} else {
		c.items[key] = c.order.PushFront(&item{key: key, entry: entry})
		c.bytes += entry.size
	}

	// Keep at least the entry just written even if it alone exceeds MaxBytes
	for c.order.Len() > 1 && (c.order.Len() > c.maxEntries || c.bytes > c.maxBytes) {
		oldest := c.order.Back()
		it := oldest.Value.(*item)
		c.removeElement(oldest)
		c.evictions++
		log.Debugf("%s Evicted %s (%d bytes)", logcolors.LogCacheEvict, it.key, it.entry.size)
	}
}

// Delete removes key from the cache
func (c *LyricsCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Clear removes all entries from the cache
func (c *LyricsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.bytes = 0
	log.Infof("%s Lyrics cache cleared", logcolors.LogCacheClear)
}

// Range calls fn for every resident entry, most recent first, including
// expired ones. Returning false stops the iteration. fn must not call back
// into the cache.
func (c *LyricsCache) Range(fn func(key string, entry CacheEntry) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.order.Front(); el != nil; el = el.Next() {
		it := el.Value.(*item)
		if !fn(it.key, it.entry) {
			return
		}
	}
}

// Stats returns cache statistics
func (c *LyricsCache) Stats() (numKeys int, sizeInKB int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len(), c.bytes / 1024
}

// Evictions returns how many entries were dropped to honor the bounds.
func (c *LyricsCache) Evictions() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// TTL returns the configured expiry.
func (c *LyricsCache) TTL() time.Duration {
	return c.ttl
}

func (c *LyricsCache) removeElement(el *list.Element) {
	it := el.Value.(*item)
	c.order.Remove(el)
	delete(c.items, it.key)
	c.bytes -= it.entry.size
}
