// Package server exposes the report pipeline over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/huangsam/filepulse/core"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP timeouts of the API server.
const (
	ReadTimeout     = 15 * time.Second
	WriteTimeout    = 30 * time.Second
	IdleTimeout     = 60 * time.Second
	ShutdownTimeout = 10 * time.Second
)

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewRouter builds the API routes on top of svc.
func NewRouter(svc *core.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/reports", h.listReports)
		r.Post("/reports", h.startGeneration)
		r.Delete("/reports/{name}", h.deleteReport)
		r.Get("/generation", h.generation)
		r.Get("/thresholds", h.getThresholds)
		r.Put("/thresholds", h.putThresholds)
		r.Get("/schedule", h.schedule)
	})
	return r
}

// New creates a server listening on addr.
func New(addr string, svc *core.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(svc, logger),
			ReadTimeout:  ReadTimeout,
			WriteTimeout: WriteTimeout,
			IdleTimeout:  IdleTimeout,
		},
		logger: logger,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server started", "addr", s.httpServer.Addr)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
