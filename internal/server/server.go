// Package server assembles the HTTP surface of respcache: probes, metrics,
// cache administration and the cached content application.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Sternrassler/respcache/pkg/admin"
	"github.com/Sternrassler/respcache/pkg/cache"
	"github.com/Sternrassler/respcache/pkg/config"
	"github.com/Sternrassler/respcache/pkg/logging"
	"github.com/Sternrassler/respcache/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	// ShutdownTimeout bounds draining in-flight requests on shutdown.
	ShutdownTimeout = 10 * time.Second

	// readyTimeout bounds the store ping behind /readyz.
	readyTimeout = 2 * time.Second
)

// Store is what the server needs from the store client.
type Store interface {
	cache.Store
	cache.AdminStore
	Ping(ctx context.Context) error
}

// Server serves the cached application.
type Server struct {
	cfg    *config.Config
	store  Store
	cache  *cache.Middleware
	router chi.Router
	logger zerolog.Logger
}

// New builds the router. app is the content application put behind the
// cache; everything else is registered ahead of it and never cached.
func New(cfg *config.Config, st Store, app http.Handler, logger zerolog.Logger) (*Server, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("cache policy: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		store:  st,
		cache:  cache.NewMiddleware(st, policy, logger.With().Str("component", logging.ComponentCache).Logger()),
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(logging.HTTPHandlers(logger)...)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	adminLogger := logger.With().Str("component", logging.ComponentAdmin).Logger()
	admin.Register(r,
		cache.NewAdmin(st, policy, adminLogger),
		admin.Config{Secret: cfg.Admin.Secret, Header: cfg.Admin.Header},
		adminLogger,
	)

	r.With(s.cache.Handler).Handle("/*", app)

	s.router = r
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is cancelled, then drains
// in-flight requests and pending cache write-backs.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()

	s.logger.Info().Str("addr", l.Addr().String()).Msg("Server started")

	select {
	case err := <-errCh:
		s.cache.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.cache.Wait()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, l)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		http.Error(w, "Redis unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
