package cache

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// HeaderXCache reports whether a response came from the cache.
const HeaderXCache = "X-Cache"

// Store is what the middleware needs from the key-value store.
type Store interface {
	Connected() bool
	GetInto(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
}

// Middleware serves cached GET responses and captures misses.
type Middleware struct {
	store  Store
	policy Policy
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewMiddleware creates the cache middleware.
func NewMiddleware(store Store, policy Policy, logger zerolog.Logger) *Middleware {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Middleware{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// lookup is the outcome of the cache check for one request.
type lookup struct {
	class Class
	key   string
	entry *Entry
	body  []byte
}

// Handler wraps next with the cache. It has the func(http.Handler)
// http.Handler shape expected by chi's Use.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !m.store.Connected() {
			RequestsTotal.WithLabelValues("none", resultBypass).Inc()
			next.ServeHTTP(w, r)
			return
		}

		logger := m.requestLogger(r)

		lk, err := m.lookup(r)
		if err != nil {
			logger.Warn().Err(err).Msg("Cache lookup failed, bypassing")
			RequestsTotal.WithLabelValues("none", resultError).Inc()
			next.ServeHTTP(w, r)
			return
		}

		if lk.entry != nil {
			RequestsTotal.WithLabelValues(string(lk.class), resultHit).Inc()
			logger.Debug().
				Str("key", lk.key).
				Dur("age", lk.entry.Age()).
				Msg("Cache hit")
			m.serve(w, lk)
			return
		}

		RequestsTotal.WithLabelValues(string(lk.class), resultMiss).Inc()
		logger.Debug().Str("key", lk.key).Msg("Cache miss")

		w.Header().Set(HeaderXCache, "MISS")
		rec := newRecorder(w, m.policy.MaxBodyBytes)
		next.ServeHTTP(rec, r)
		m.capture(lk, rec, logger)
	})
}

// Wait blocks until all pending write-backs have finished.
func (m *Middleware) Wait() {
	m.wg.Wait()
}

// lookup classifies the request and reads the store. Panics are turned
// into errors so the request can still be served.
func (m *Middleware) lookup(r *http.Request) (lk lookup, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cache lookup panic: %v", p)
		}
	}()

	lk.class = m.policy.Classify(r.URL.Path)
	lk.key = m.policy.Key(lk.class, r)

	var entry Entry
	if !m.store.GetInto(r.Context(), lk.key, &entry) {
		return lk, nil
	}

	body, err := entry.Bytes()
	if err != nil {
		// unreadable entry counts as a miss and gets overwritten
		m.logger.Warn().Err(err).Str("key", lk.key).Msg("Discarding corrupt cache entry")
		return lk, nil
	}
	lk.entry = &entry
	lk.body = body
	return lk, nil
}

// serve writes a cached response.
func (m *Middleware) serve(w http.ResponseWriter, lk lookup) {
	h := w.Header()
	lk.entry.WriteHeaders(h)
	h.Set(HeaderXCache, "HIT")
	h.Set("Content-Length", strconv.Itoa(len(lk.body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(lk.body); err != nil {
		m.logger.Debug().Err(err).Str("key", lk.key).Msg("Client went away during cached response")
	}
}

// capture stores a completed response in the background.
func (m *Middleware) capture(lk lookup, rec *recorder, logger *zerolog.Logger) {
	if !rec.Cacheable() {
		WriteBacks.WithLabelValues(string(lk.class), outcomeSkipped).Inc()
		logger.Debug().
			Str("key", lk.key).
			Int("status", rec.StatusCode()).
			Msg("Response not cacheable")
		return
	}

	entry := NewEntry(rec.Header(), rec.Body())
	ttl := m.policy.TTL(lk.class)
	size := len(rec.Body())

	m.wg.Add(1)
	go m.writeBack(lk, entry, ttl, size, *logger)
}

// writeBack runs detached from the request. Its failure is only logged.
func (m *Middleware) writeBack(lk lookup, entry *Entry, ttl time.Duration, size int, logger zerolog.Logger) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), m.policy.writeTimeout())
	defer cancel()

	if !m.store.Set(ctx, lk.key, entry, ttl) {
		WriteBacks.WithLabelValues(string(lk.class), outcomeFailed).Inc()
		logger.Warn().Str("key", lk.key).Msg("Failed to cache response")
		return
	}

	WriteBacks.WithLabelValues(string(lk.class), outcomeStored).Inc()
	EntrySize.WithLabelValues(string(lk.class)).Observe(float64(size))
	logger.Debug().
		Str("key", lk.key).
		Dur("ttl", ttl).
		Int("bytes", size).
		Msg("Cached response")
}

// requestLogger returns the logger from the request context.
// If no logger is found, it will return the middleware's logger.
func (m *Middleware) requestLogger(r *http.Request) *zerolog.Logger {
	logger := hlog.FromRequest(r)
	if logger.GetLevel() == zerolog.Disabled {
		return &m.logger
	}
	return logger
}
