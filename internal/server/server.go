// Package server exposes a dashboard session over a local HTTP API.
package server

import (
	"net/http"

	"github.com/woozymasta/zenit-dash/internal/config"
	"github.com/woozymasta/zenit-dash/internal/metrics"
	"github.com/woozymasta/zenit-dash/internal/probe"
	"github.com/woozymasta/zenit-dash/internal/session"
)

// New creates a new Server instance over the session with the provided configuration.
func New(sess *session.Session, pinger probe.Pinger, cfg *config.Config) *Server {
	return &Server{
		sess:           sess,
		pinger:         pinger,
		authToken:      cfg.Output.Token,
		trustProxy:     cfg.Output.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		shutdown:       make(chan struct{}),
	}
}

// Close stops background routines. The handler must not be used afterwards.
func (s *Server) Close() {
	close(s.shutdown)
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/view", s.handleView)
	api.HandleFunc("POST /api/events", s.handleEvents)
	api.HandleFunc("POST /api/refresh", s.handleRefresh)
	api.HandleFunc("GET /api/node", s.handleGetNode)
	api.HandleFunc("DELETE /api/node", s.handleDeleteNode)
	api.HandleFunc("GET /api/a2s", s.handleServerQuery)
	api.HandleFunc("POST /api/ping-page", s.handlePingPage)
	api.HandleFunc("GET /api/version", handleVersion)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.RateLimitMiddleware(AuthMiddleware(s.authToken, api)))
	mux.Handle("GET /metrics", AuthMiddleware(s.authToken, metrics.Handler()))

	return s.LoggingMiddleware(mux)
}
