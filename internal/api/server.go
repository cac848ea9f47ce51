// Package api exposes the bot's operational HTTP surface.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anisearchapp/anisearch-bot/internal/http/response"
)

// Pinger is anything whose reachability the health check can verify.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the health HTTP handler.
type Server struct {
	store   Pinger
	router  *chi.Mux
	logger  *slog.Logger
	started time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store Pinger, logger *slog.Logger) *Server {
	s := &Server{
		store:   store,
		router:  chi.NewRouter(),
		logger:  logger,
		started: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(s.requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(s.recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "method not allowed", s.logger)
	})
}
