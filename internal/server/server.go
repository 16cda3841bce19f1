// Package server exposes the user list synchronizer over HTTP.
//
// Routes:
//
//	GET    /health          liveness probe
//	GET    /metrics         Prometheus exposition
//	GET    /users           current list snapshot (?visible=i may trigger a prefetch)
//	POST   /users/next      load the next page synchronously
//	GET    /users/{login}   single user profile
//	DELETE /cache           clear the persisted list
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/Sternrassler/gh-user-sync/pkg/logging"
	"github.com/Sternrassler/gh-user-sync/pkg/metrics"
	"github.com/Sternrassler/gh-user-sync/pkg/pagination"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Addr string
}

// DetailFetcher fetches a single user profile.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, login string) (*client.UserDetail, error)
}

// Server owns the router and the background prefetches it starts.
type Server struct {
	router  *chi.Mux
	config  Config
	sync    *pagination.Synchronizer
	details DetailFetcher
	logger  zerolog.Logger

	// Prefetches outlive the request that triggered them and stop with the server.
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New creates a server over a synchronizer and a profile fetcher.
func New(cfg Config, s *pagination.Synchronizer, details DetailFetcher) *Server {
	if s == nil {
		panic("synchronizer cannot be nil")
	}
	if details == nil {
		panic("detail fetcher cannot be nil")
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	srv := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		sync:     s,
		details:  details,
		logger:   logging.NewLogger("http-server"),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(requestLogger(s.logger))

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/next", s.handleNext)
		r.Get("/{login}", s.handleDetail)
	})
	s.router.Delete("/cache", s.handleClearCache)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run hydrates the list, serves until ctx is done and then shuts down
// gracefully, waiting for running prefetches.
func (s *Server) Run(ctx context.Context) error {
	s.sync.Initialize(ctx)

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", s.config.Addr).
			Int("cached", s.sync.Len()).
			Int64("cursor", s.sync.Cursor()).
			Msg("Server starting")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		s.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		s.Close()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

// Close cancels running prefetches and waits for them to return.
func (s *Server) Close() {
	s.bgCancel()
	s.bgWG.Wait()
}
