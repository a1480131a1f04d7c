// Package server implements the HTTP API for the call simulator: call
// execution with live SSE streaming, a broadcast feed for dashboards, and
// read endpoints over the persisted results.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chad-murphy-data/android-converter/internal/model"
	"github.com/chad-murphy-data/android-converter/internal/service/call"
	"github.com/chad-murphy-data/android-converter/internal/storage"
)

// Runner executes one complete simulated call, pushing events to the sink.
type Runner interface {
	Run(ctx context.Context, sink call.EventSink, warmup bool) (model.CallRecord, error)
}

// Server is the simulator HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
type ServerConfig struct {
	Store  storage.Store
	Runner Runner
	Broker *Broker
	Logger *slog.Logger

	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := &Handlers{
		store:   cfg.Store,
		runner:  cfg.Runner,
		broker:  cfg.Broker,
		logger:  cfg.Logger,
		version: cfg.Version,
	}

	mux := http.NewServeMux()

	// Call execution. The stream variant holds the connection open and
	// delivers every event live; the POST variant runs to completion and
	// returns the final record.
	mux.HandleFunc("GET /api/calls/stream", h.HandleCallStream)
	mux.HandleFunc("POST /api/calls", h.HandleRunCall)

	// Broadcast feed: every event from every running call (no history).
	mux.HandleFunc("GET /api/events", h.HandleSubscribe)

	// Server-wide warmup mode; per-call warmup params override it.
	mux.HandleFunc("GET /api/warmup", h.HandleGetWarmup)
	mux.HandleFunc("POST /api/warmup", h.HandleToggleWarmup)

	// Read endpoints over persisted results.
	mux.HandleFunc("GET /api/stats", h.HandleStats)
	mux.HandleFunc("GET /api/leaderboard", h.HandleLeaderboard)
	mux.HandleFunc("GET /api/agents", h.HandleListArchetypes)
	mux.HandleFunc("GET /api/agents/{style}", h.HandleArchetypeStats)
	mux.HandleFunc("GET /api/history", h.HandleHistory)

	// Health (no envelope, suitable for probes).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
