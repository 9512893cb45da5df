// Package api serves the read-only delivery dashboard: record listing,
// aggregate stats, the open-tracking pixel and the engagement webhook.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/breakoutai/automail/internal/config"
	"github.com/breakoutai/automail/internal/metrics"
	"github.com/breakoutai/automail/internal/tracking"
)

// Store is the tracking storage surface the dashboard reads from.
type Store interface {
	Get(ctx context.Context, id string) (*tracking.Record, error)
	List(ctx context.Context) ([]*tracking.Record, error)
	Stats(ctx context.Context) (*tracking.Stats, error)
	SetEngagement(ctx context.Context, id string, opened, clicked, bounced bool) error
}

// Server is the dashboard HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	store      Store
	metrics    *metrics.Metrics
	config     *config.APIConfig
	logger     *slog.Logger
	startTime  time.Time
}

// NewServer creates a new dashboard server. m may be nil when metrics
// are disabled.
func NewServer(store Store, m *metrics.Metrics, cfg *config.APIConfig, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		store:     store,
		metrics:   m,
		config:    cfg,
		logger:    logger,
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	// No auth: health, the pixel endpoint (fetched by recipient mail
	// clients) and metrics scraping.
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/pixel/{id}", s.handlePixel)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireKey)

		r.Get("/records", s.handleRecords)
		r.Get("/records/{id}", s.handleRecord)
		r.Get("/stats", s.handleStats)
		r.Post("/engagement/{id}", s.handleEngagement)
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting dashboard server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down dashboard server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
