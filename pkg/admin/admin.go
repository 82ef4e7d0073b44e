// Package admin exposes cache administration over HTTP: bulk invalidation
// by content class and keyspace statistics, guarded by a shared secret.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sternrassler/respcache/pkg/cache"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DefaultHeader carries the admin credential.
const DefaultHeader = "X-Admin-Key"

// Service is the cache administration the handlers drive.
type Service interface {
	Invalidate(ctx context.Context, class string) (int, error)
	Stats(ctx context.Context) cache.Stats
}

// Config holds the admin credential settings.
type Config struct {
	// Secret is compared against the credential header. Empty rejects
	// every request.
	Secret string

	// Header names the credential header (default: X-Admin-Key).
	Header string
}

// ClearResponse is the body of a successful DELETE /cache.
type ClearResponse struct {
	Success     bool `json:"success"`
	ClearedKeys int  `json:"clearedKeys"`
}

// StatsResponse is the body of GET /cache/stats while connected.
type StatsResponse struct {
	Status     string         `json:"status"`
	CacheStats map[string]int `json:"cacheStats"`
	TotalKeys  int            `json:"totalKeys"`
}

// statusResponse is the body of GET /cache/stats while disconnected.
type statusResponse struct {
	Status string `json:"status"`
}

// errorResponse is the body of every failed admin request.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type handler struct {
	svc    Service
	secret []byte
	header string
	logger zerolog.Logger
}

// NewHandler returns a router serving only the admin routes.
func NewHandler(svc Service, cfg Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	Register(r, svc, cfg, logger)
	return r
}

// Register adds the admin routes to r behind the credential check:
//
//	DELETE /cache?type=<class>
//	GET    /cache/stats
func Register(r chi.Router, svc Service, cfg Config, logger zerolog.Logger) {
	if svc == nil {
		panic("admin service cannot be nil")
	}
	h := &handler{
		svc:    svc,
		secret: []byte(cfg.Secret),
		header: cfg.Header,
		logger: logger,
	}
	if h.header == "" {
		h.header = DefaultHeader
	}

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Delete("/cache", h.handleClear)
		r.Get("/cache/stats", h.handleStats)
	})
}

func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(r.Header.Get(h.header)) {
			h.logger.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Msg("Rejected admin request")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) authorized(key string) bool {
	if len(h.secret) == 0 || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), h.secret) == 1
}

func (h *handler) handleClear(w http.ResponseWriter, r *http.Request) {
	class := r.URL.Query().Get("type")

	cleared, err := h.svc.Invalidate(r.Context(), class)
	if err != nil {
		if errors.Is(err, cache.ErrUnknownClass) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("class", class).Msg("Invalidation failed")
		writeError(w, http.StatusInternalServerError, "invalidation failed")
		return
	}

	writeJSON(w, http.StatusOK, ClearResponse{Success: true, ClearedKeys: cleared})
}

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats(r.Context())
	if stats.Status != cache.StatusConnected {
		writeJSON(w, http.StatusOK, statusResponse{Status: cache.StatusDisconnected})
		return
	}

	counts := make(map[string]int, len(stats.Classes))
	for c, n := range stats.Classes {
		counts[string(c)] = n
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Status:     stats.Status,
		CacheStats: counts,
		TotalKeys:  stats.TotalKeys,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
