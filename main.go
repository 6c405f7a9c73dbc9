package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lyrics-sync-go/config"
	"lyrics-sync-go/logcolors"
	"lyrics-sync-go/middleware"

	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout = 10 * time.Second

	limiterCleanupInterval = 10 * time.Minute
	limiterMaxIdle         = time.Hour
)

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

func setupLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("%s Unknown LOG_LEVEL %q, using info", logcolors.LogConfig, level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// buildHandler chains access logging, CORS and rate limiting around router
func buildHandler(s *server, limiter *middleware.IPRateLimiter) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"X-Cache-Status", "X-Provider", "X-RateLimit-Type", "X-RateLimit-Remaining", middleware.RequestIDHeader},
		AllowCredentials: false,
	})

	limited := middleware.RateLimitMiddleware(limiter, s.cfg.Configuration.APIKey)(s.routes())
	return middleware.LoggingMiddleware(c.Handler(limited))
}

func main() {
	conf := config.Get()
	setupLogging(conf.Server.LogLevel)

	bus := startAlerts(conf)
	registry := buildProviders(conf, bus)

	srv, err := newServer(conf, registry)
	if err != nil {
		log.Fatalf("%s %v", logcolors.LogConfig, err)
	}
	srv.start()

	store := openStatsStore(conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := conf.Configuration
	limiter := middleware.NewIPRateLimiter(
		rate.Limit(c.RateLimitPerSecond), c.RateLimitBurstLimit,
		rate.Limit(c.CachedRateLimitPerSecond), c.CachedRateLimitBurstLimit,
	)
	limiter.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)

	httpServer := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           buildHandler(srv, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("%s Listening on port %s (strategy %s)", logcolors.LogServer, conf.Server.Port, srv.orch.Strategy())
		bus.PublishServerStarted(conf.Server.Port, registry.List())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s %v", logcolors.LogServer, err)
		}
	}()

	<-ctx.Done()
	log.Infof("%s Shutting down", logcolors.LogServer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("%s Shutdown: %v", logcolors.LogServer, err)
	}
	srv.close()
	if store != nil {
		if err := store.Close(); err != nil {
			log.Warnf("%s Close stats store: %v", logcolors.LogStats, err)
		}
	}
}
