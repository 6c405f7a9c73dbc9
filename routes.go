package main

import (
	"net/http"

	"lyrics-sync-go/middleware"

	"github.com/gorilla/mux"
)

// routes builds the router. Admin endpoints sit behind the API key check.
func (s *server) routes() *mux.Router {
	router := mux.NewRouter()
	admin := middleware.APIKeyMiddleware(s.cfg.Configuration.APIKey, s.cfg.Configuration.APIKeyRequired, nil)

	// Lyrics and playback
	router.HandleFunc("/lyrics", s.getLyrics).Methods(http.MethodGet)
	router.HandleFunc("/lyrics/current", s.getCurrent).Methods(http.MethodGet)
	router.HandleFunc("/playback/position", s.postPlaybackPosition).Methods(http.MethodPost)
	router.HandleFunc("/preload", s.postPreload).Methods(http.MethodPost)

	// Health is public
	router.HandleFunc("/health", s.getHealth).Methods(http.MethodGet)

	// Admin
	router.Handle("/stats", admin(http.HandlerFunc(s.getStats))).Methods(http.MethodGet)
	router.Handle("/cache", admin(http.HandlerFunc(s.getCacheDump))).Methods(http.MethodGet)
	router.Handle("/cache/clear", admin(http.HandlerFunc(s.clearCache))).Methods(http.MethodPost)
	router.Handle("/circuit-breaker", admin(http.HandlerFunc(s.getCircuitBreakerStatus))).Methods(http.MethodGet)
	router.Handle("/circuit-breaker/reset", admin(http.HandlerFunc(s.resetCircuitBreaker))).Methods(http.MethodPost)

	router.HandleFunc("/", helpHandler)
	return router
}
