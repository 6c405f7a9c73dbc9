package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lyrics-sync-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "resolver_stats"
)

// Store persists a Stats instance to a dedicated BoltDB file so the
// counters accumulate across restarts
type Store struct {
	db       *bolt.DB
	dbPath   string
	stats    *Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PersistedProvider is the on-disk form of ProviderCounters
type PersistedProvider struct {
	Success      int64 `json:"success"`
	Empty        int64 `json:"empty"`
	Failure      int64 `json:"failure"`
	Selected     int64 `json:"selected"`
	BreakerTrips int64 `json:"breaker_trips"`
}

// PersistedStats represents the stats data that gets persisted to disk
type PersistedStats struct {
	TotalRequests     int64 `json:"total_requests"`
	LyricsRequests    int64 `json:"lyrics_requests"`
	PlaybackRequests  int64 `json:"playback_requests"`
	PreloadRequests   int64 `json:"preload_requests"`
	AdminRequests     int64 `json:"admin_requests"`
	OtherRequests     int64 `json:"other_requests"`
	Resolutions       int64 `json:"resolutions"`
	CacheHits         int64 `json:"cache_hits"`
	CacheMisses       int64 `json:"cache_misses"`
	Refreshes         int64 `json:"refreshes"`
	NotFound          int64 `json:"not_found"`
	Superseded        int64 `json:"superseded"`
	SharedFlight      int64 `json:"shared_flight"`
	PreloadFetched    int64 `json:"preload_fetched"`
	PreloadSkipped    int64 `json:"preload_skipped"`
	RateLimitExceeded int64 `json:"rate_limit_exceeded"`
	Status2xx         int64 `json:"status_2xx"`
	Status4xx         int64 `json:"status_4xx"`
	Status5xx         int64 `json:"status_5xx"`

	// Response time tracking
	TotalResponseTime int64 `json:"total_response_time"`
	ResponseCount     int64 `json:"response_count"`
	MinResponseTime   int64 `json:"min_response_time"`
	MaxResponseTime   int64 `json:"max_response_time"`
	ResolveTime       int64 `json:"resolve_time"`
	ResolveCount      int64 `json:"resolve_count"`

	Providers map[string]PersistedProvider `json:"providers"`

	// Metadata
	LastSaved    time.Time `json:"last_saved"`
	FirstStarted time.Time `json:"first_started"`
}

// NewStore creates a new stats store with a dedicated BoltDB file
func NewStore(dbPath string, s *Stats) (*Store, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats bucket: %w", err)
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return &Store{
		db:       db,
		dbPath:   dbPath,
		stats:    s,
		stopChan: make(chan struct{}),
	}, nil
}

// Load reads persisted stats from disk and applies them to the stats instance
func (st *Store) Load() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	var p PersistedStats
	found := false
	err := st.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(statsKey))
		if data == nil {
			return nil // No persisted stats yet
		}
		found = true
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if !found {
		return nil
	}

	s := st.stats
	s.TotalRequests.Store(p.TotalRequests)
	s.LyricsRequests.Store(p.LyricsRequests)
	s.PlaybackRequests.Store(p.PlaybackRequests)
	s.PreloadRequests.Store(p.PreloadRequests)
	s.AdminRequests.Store(p.AdminRequests)
	s.OtherRequests.Store(p.OtherRequests)
	s.Resolutions.Store(p.Resolutions)
	s.CacheHits.Store(p.CacheHits)
	s.CacheMisses.Store(p.CacheMisses)
	s.Refreshes.Store(p.Refreshes)
	s.NotFound.Store(p.NotFound)
	s.Superseded.Store(p.Superseded)
	s.SharedFlight.Store(p.SharedFlight)
	s.PreloadFetched.Store(p.PreloadFetched)
	s.PreloadSkipped.Store(p.PreloadSkipped)
	s.RateLimitExceeded.Store(p.RateLimitExceeded)
	s.Status2xx.Store(p.Status2xx)
	s.Status4xx.Store(p.Status4xx)
	s.Status5xx.Store(p.Status5xx)
	s.totalResponseTime.Store(p.TotalResponseTime)
	s.responseCount.Store(p.ResponseCount)
	s.resolveTime.Store(p.ResolveTime)
	s.resolveCount.Store(p.ResolveCount)

	// Only update min/max if we have valid persisted values
	if p.MinResponseTime > 0 && p.MinResponseTime < maxInt64 {
		s.minResponseTime.Store(p.MinResponseTime)
	}
	if p.MaxResponseTime > 0 {
		s.maxResponseTime.Store(p.MaxResponseTime)
	}

	for name, pp := range p.Providers {
		c := s.Provider(name)
		c.Success.Store(pp.Success)
		c.Empty.Store(pp.Empty)
		c.Failure.Store(pp.Failure)
		c.Selected.Store(pp.Selected)
		c.BreakerTrips.Store(pp.BreakerTrips)
	}

	// Preserve the original first start time if available
	if !p.FirstStarted.IsZero() {
		s.StartTime = p.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (resolutions: %d, first started: %s)",
		logcolors.LogStats, p.Resolutions, p.FirstStarted.Format(time.RFC3339))
	return nil
}

func (st *Store) snapshot() PersistedStats {
	s := st.stats
	providers := make(map[string]PersistedProvider)
	for _, name := range s.ProviderNames() {
		c := s.Provider(name)
		providers[name] = PersistedProvider{
			Success:      c.Success.Load(),
			Empty:        c.Empty.Load(),
			Failure:      c.Failure.Load(),
			Selected:     c.Selected.Load(),
			BreakerTrips: c.BreakerTrips.Load(),
		}
	}

	return PersistedStats{
		TotalRequests:     s.TotalRequests.Load(),
		LyricsRequests:    s.LyricsRequests.Load(),
		PlaybackRequests:  s.PlaybackRequests.Load(),
		PreloadRequests:   s.PreloadRequests.Load(),
		AdminRequests:     s.AdminRequests.Load(),
		OtherRequests:     s.OtherRequests.Load(),
		Resolutions:       s.Resolutions.Load(),
		CacheHits:         s.CacheHits.Load(),
		CacheMisses:       s.CacheMisses.Load(),
		Refreshes:         s.Refreshes.Load(),
		NotFound:          s.NotFound.Load(),
		Superseded:        s.Superseded.Load(),
		SharedFlight:      s.SharedFlight.Load(),
		PreloadFetched:    s.PreloadFetched.Load(),
		PreloadSkipped:    s.PreloadSkipped.Load(),
		RateLimitExceeded: s.RateLimitExceeded.Load(),
		Status2xx:         s.Status2xx.Load(),
		Status4xx:         s.Status4xx.Load(),
		Status5xx:         s.Status5xx.Load(),
		TotalResponseTime: s.totalResponseTime.Load(),
		ResponseCount:     s.responseCount.Load(),
		MinResponseTime:   s.minResponseTime.Load(),
		MaxResponseTime:   s.maxResponseTime.Load(),
		ResolveTime:       s.resolveTime.Load(),
		ResolveCount:      s.resolveCount.Load(),
		Providers:         providers,
		LastSaved:         time.Now(),
		FirstStarted:      s.StartTime,
	}
}

// Save persists current stats to disk
func (st *Store) Save() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := json.Marshal(st.snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	err = st.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return fmt.Errorf("stats bucket not found")
		}
		return b.Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// StartAutoSave begins periodic saving of stats
func (st *Store) StartAutoSave(interval time.Duration) {
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := st.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-st.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close saves stats and closes the database
func (st *Store) Close() error {
	st.stopOnce.Do(func() { close(st.stopChan) })
	st.wg.Wait()

	// Final save before closing
	if err := st.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}

	return st.db.Close()
}
