package main

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"lyrics-sync-go/cache"
	"lyrics-sync-go/circuitbreaker"
	"lyrics-sync-go/config"
	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/services/notifier"
	"lyrics-sync-go/services/orchestrator"
	"lyrics-sync-go/services/playback"
	"lyrics-sync-go/services/providers"
	"lyrics-sync-go/services/providers/kugou"
	"lyrics-sync-go/services/providers/lrclib"
	"lyrics-sync-go/services/providers/lyricsovh"
	"lyrics-sync-go/services/providers/netease"
	"lyrics-sync-go/services/providers/ttmldb"
	"lyrics-sync-go/stats"

	log "github.com/sirupsen/logrus"
)

// server holds everything the HTTP handlers need
type server struct {
	cfg      config.Config
	registry *providers.Registry
	cache    *cache.LyricsCache
	orch     *orchestrator.Orchestrator
	tracker  *playback.Tracker
	clock    *playback.Clock

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newProvider builds the named provider from config, or returns nil for an
// unknown name
func newProvider(name string, cfg config.Config, httpClient *http.Client) providers.Provider {
	c := cfg.Configuration
	p := cfg.Providers

	switch name {
	case ttmldb.ProviderName:
		return ttmldb.NewProvider(ttmldb.Config{
			Mirrors:         p.TTMLDBMirrors,
			Platform:        p.TTMLDBPlatform,
			HTTPClient:      httpClient,
			RefreshInterval: time.Duration(p.TTMLDBIndexRefreshMins) * time.Minute,
			DurationDeltaMs: c.DurationMatchDeltaMs,
			MinMatchScore:   c.MinSimilarityScore,
		})
	case lrclib.ProviderName:
		return lrclib.NewProvider(lrclib.Config{
			BaseURL:         p.LRCLIBBaseURL,
			HTTPClient:      httpClient,
			DurationDeltaMs: c.DurationMatchDeltaMs,
			MinMatchScore:   c.MinSimilarityScore,
		})
	case netease.ProviderName:
		return netease.NewProvider(netease.Config{
			BaseURL:         p.NeteaseBaseURL,
			Cookie:          p.NeteaseCookie,
			HTTPClient:      httpClient,
			DurationDeltaMs: c.DurationMatchDeltaMs,
			MinMatchScore:   c.MinSimilarityScore,
		})
	case kugou.ProviderName:
		return kugou.NewProvider(kugou.Config{
			SongSearchURL:   p.KugouSongSearchURL,
			LyricsURL:       p.KugouLyricsURL,
			HTTPClient:      httpClient,
			DurationDeltaMs: c.DurationMatchDeltaMs,
			MinMatchScore:   c.MinSimilarityScore,
		})
	case lyricsovh.ProviderName:
		return lyricsovh.NewProvider(p.LyricsOVHBaseURL, httpClient)
	}
	return nil
}

// buildProviders registers the configured providers in PROVIDER_ORDER, each
// behind its own circuit breaker. Breaker transitions are published on bus,
// which may be nil.
func buildProviders(cfg config.Config, bus *notifier.EventBus) *providers.Registry {
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout()}
	registry := providers.NewRegistry()
	cooldown := time.Duration(cfg.Configuration.CircuitBreakerCooldownSecs) * time.Second

	breakerCfg := circuitbreaker.Config{
		Threshold: cfg.Configuration.CircuitBreakerThreshold,
		Cooldown:  cooldown,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			switch to {
			case circuitbreaker.StateOpen:
				stats.Get().Provider(name).BreakerTrips.Add(1)
				failures := cfg.Configuration.CircuitBreakerThreshold
				if from == circuitbreaker.StateHalfOpen {
					failures = 1
				}
				bus.PublishProviderDown(name, failures, cooldown)
				if allOpen(registry) {
					bus.PublishAllProvidersDown(registry.List())
				}
			case circuitbreaker.StateClosed:
				bus.PublishProviderRecovered(name)
			}
		},
	}

	for _, name := range cfg.Configuration.ProviderOrder {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if registry.Has(name) {
			log.Warnf("%s Provider %q listed twice in PROVIDER_ORDER, keeping the first", logcolors.LogConfig, name)
			continue
		}
		p := newProvider(name, cfg, httpClient)
		if p == nil {
			log.Warnf("%s Unknown provider %q in PROVIDER_ORDER, skipping", logcolors.LogConfig, name)
			continue
		}
		registry.Register(providers.Guard(p, breakerCfg))
	}

	log.Infof("%s Providers: %v", logcolors.LogConfig, registry.List())
	return registry
}

func allOpen(registry *providers.Registry) bool {
	breakers := registry.Breakers()
	for _, cb := range breakers {
		if !cb.IsOpen() {
			return false
		}
	}
	return len(breakers) > 0
}

// setupNotifiers builds one notifier per configured channel
func setupNotifiers(cfg config.Config) []notifier.Notifier {
	n := cfg.Notifier
	var notifiers []notifier.Notifier

	if n.SMTPHost != "" {
		notifiers = append(notifiers, &notifier.EmailNotifier{
			SMTPHost:     n.SMTPHost,
			SMTPPort:     n.SMTPPort,
			SMTPUsername: n.SMTPUsername,
			SMTPPassword: n.SMTPPassword,
			FromEmail:    n.FromEmail,
			ToEmail:      n.ToEmail,
		})
	}
	if n.TelegramBotToken != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{
			BotToken: n.TelegramBotToken,
			ChatID:   n.TelegramChatID,
		})
	}
	if n.NtfyTopic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{
			Topic:  n.NtfyTopic,
			Server: n.NtfyServer,
		})
	}

	for _, nt := range notifiers {
		log.Infof("%s %s notifier enabled", logcolors.LogNotifier, notifier.Name(nt))
	}
	return notifiers
}

// startAlerts returns an event bus feeding the configured notifiers, or nil
// when none are configured
func startAlerts(cfg config.Config) *notifier.EventBus {
	notifiers := setupNotifiers(cfg)
	if len(notifiers) == 0 {
		log.Infof("%s No notifiers configured, provider alerts disabled", logcolors.LogNotifier)
		return nil
	}

	bus := notifier.NewEventBus()
	notifier.NewAlertHandler(notifier.AlertConfig{
		Notifiers:        notifiers,
		CooldownDuration: time.Duration(cfg.Notifier.AlertCooldownMins) * time.Minute,
	}).Start(bus)
	return bus
}

// newServer wires the cache, orchestrator and playback tracker around registry
func newServer(cfg config.Config, registry *providers.Registry) (*server, error) {
	c := cfg.Configuration

	strategy, err := orchestrator.ParseStrategy(c.FetchStrategy)
	if err != nil {
		return nil, err
	}

	lyricsCache := cache.NewLyricsCache(cache.Config{
		MaxEntries: c.CacheMaxEntries,
		MaxBytes:   c.CacheMaxBytes,
		TTL:        time.Duration(c.LyricsCacheTTLInSeconds) * time.Second,
	})

	orch := orchestrator.New(registry, lyricsCache,
		orchestrator.WithStrategy(strategy),
		orchestrator.WithTimeout(cfg.ProviderTimeout()),
		orchestrator.WithPreloadDelay(time.Duration(c.PreloadDelayMs)*time.Millisecond),
		orchestrator.WithStats(stats.Get()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &server{
		cfg:      cfg,
		registry: registry,
		cache:    lyricsCache,
		orch:     orch,
		tracker:  playback.NewTracker(c.SyncToleranceSecs),
		clock:    playback.NewClock(nil),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// start follows published lyrics into the tracker and runs the sync loop
func (s *server) start() {
	updates, unsubscribe := s.orch.Subscribe()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.followUpdates(updates)
	}()
	go func() {
		defer s.wg.Done()
		interval := time.Duration(s.cfg.Configuration.SyncPollIntervalMs) * time.Millisecond
		s.tracker.Run(s.ctx, interval, s.clock.Position, func(st playback.State) {
			if st.Line != nil {
				log.Debugf("%s %.2fs line %d: %s", logcolors.LogSync, st.Position, st.Index, st.Line.Text)
			}
		})
	}()
}

func (s *server) followUpdates(updates <-chan orchestrator.Update) {
	var currentKey string
	for {
		select {
		case <-s.ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if key := u.Track.Key(); key != currentKey {
				currentKey = key
				s.clock.Reset()
				s.tracker.SetLyrics(nil)
			}
			switch u.Status {
			case orchestrator.StatusReady, orchestrator.StatusNotFound:
				if u.Set != s.tracker.Lyrics() {
					s.tracker.SetLyrics(u.Set)
				}
			}
		}
	}
}

// close stops background work and waits for it to finish
func (s *server) close() {
	s.cancel()
	s.wg.Wait()
}

// openStatsStore restores persisted counters and starts periodic saves.
// Persistence is optional: a failure is logged and nil is returned.
func openStatsStore(cfg config.Config) *stats.Store {
	path := cfg.Configuration.StatsDBPath
	if path == "" {
		return nil
	}

	store, err := stats.NewStore(path, stats.Get())
	if err != nil {
		log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
		return nil
	}
	if err := store.Load(); err != nil {
		log.Warnf("%s Failed to load persisted stats: %v", logcolors.LogStats, err)
	}

	interval := time.Duration(cfg.Configuration.StatsSaveIntervalSecs) * time.Second
	if interval > 0 {
		store.StartAutoSave(interval)
	}
	return store
}
