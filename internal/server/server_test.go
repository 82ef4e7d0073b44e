package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/respcache/internal/app"
	"github.com/Sternrassler/respcache/internal/testutil"
	"github.com/Sternrassler/respcache/pkg/config"
	"github.com/rs/zerolog"
)

const testSecret = "admin-secret"

func setupServer(t *testing.T) (*Server, *testutil.FakeStore) {
	t.Helper()

	cfg := config.Default()
	cfg.Admin.Secret = testSecret

	application, err := app.New(app.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("app.New() error: %v", err)
	}

	st := testutil.NewFakeStore()
	s, err := New(cfg, st, application, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s, st
}

func request(s *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := setupServer(t)

	w := request(s, http.MethodGet, "/healthz", nil)

	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("response = %d %q", w.Code, w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	s, st := setupServer(t)

	t.Run("ready", func(t *testing.T) {
		w := request(s, http.MethodGet, "/readyz", nil)
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("not_ready_redis_down", func(t *testing.T) {
		st.SetConnected(false)
		w := request(s, http.MethodGet, "/readyz", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestMetrics(t *testing.T) {
	s, _ := setupServer(t)
	request(s, http.MethodGet, "/index.html", nil)
	s.cache.Wait()

	w := request(s, http.MethodGet, "/metrics", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "# HELP") || !strings.Contains(body, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(body, "respcache_requests_total") {
		t.Error("Expected metrics output to contain respcache_requests_total")
	}
	if w.Header().Get("X-Cache") != "" {
		t.Error("/metrics must not pass through the cache")
	}
}

func TestHealthWhileDisconnected(t *testing.T) {
	s, st := setupServer(t)
	st.SetConnected(false)

	w := request(s, http.MethodGet, "/api/health", nil)
	s.cache.Wait()

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-Cache"); got != "" {
		t.Errorf("X-Cache = %q, want none while disconnected", got)
	}

	var health app.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if health.Status != "ok" || health.Timestamp.IsZero() {
		t.Errorf("health = %+v", health)
	}
	if len(st.Keys()) != 0 {
		t.Errorf("nothing should be cached while disconnected: %v", st.Keys())
	}
}

func TestIndexMissThenHit(t *testing.T) {
	s, st := setupServer(t)

	first := request(s, http.MethodGet, "/index.html", nil)
	s.cache.Wait()
	second := request(s, http.MethodGet, "/index.html", nil)

	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("HIT body differs from MISS body")
	}
	if _, ok := st.Raw("page:/index.html"); !ok {
		t.Errorf("expected key page:/index.html, have %v", st.Keys())
	}
}

func TestBinaryAssetThroughCache(t *testing.T) {
	s, _ := setupServer(t)

	first := request(s, http.MethodGet, "/static/logo.png", nil)
	s.cache.Wait()
	second := request(s, http.MethodGet, "/static/logo.png", nil)

	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second request was not a hit")
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("binary asset changed through the cache")
	}
	if ct := second.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestClearStatic(t *testing.T) {
	s, st := setupServer(t)
	for _, path := range []string{"/static/app.css", "/static/app.js", "/static/logo.png", "/index.html", "/api/health"} {
		request(s, http.MethodGet, path, nil)
	}
	s.cache.Wait()

	staticBefore, _ := st.CountByPrefix(context.Background(), "static:")
	if staticBefore != 3 {
		t.Fatalf("expected 3 static keys, got %d", staticBefore)
	}

	t.Run("missing header", func(t *testing.T) {
		w := request(s, http.MethodDelete, "/cache?type=static", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("wrong header", func(t *testing.T) {
		w := request(s, http.MethodDelete, "/cache?type=static", map[string]string{"X-Admin-Key": "nope"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("correct header", func(t *testing.T) {
		w := request(s, http.MethodDelete, "/cache?type=static", map[string]string{"X-Admin-Key": testSecret})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var resp struct {
			Success     bool `json:"success"`
			ClearedKeys int  `json:"clearedKeys"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !resp.Success || resp.ClearedKeys != staticBefore {
			t.Errorf("response = %+v, want %d cleared", resp, staticBefore)
		}
		if n, _ := st.CountByPrefix(context.Background(), "page:"); n != 1 {
			t.Errorf("page keys = %d, want 1", n)
		}
		if n, _ := st.CountByPrefix(context.Background(), "api:"); n != 1 {
			t.Errorf("api keys = %d, want 1", n)
		}
	})
}

func TestStatsNeverCached(t *testing.T) {
	s, st := setupServer(t)
	header := map[string]string{"X-Admin-Key": testSecret}

	first := request(s, http.MethodGet, "/cache/stats", header)
	s.cache.Wait()
	second := request(s, http.MethodGet, "/cache/stats", header)

	for i, w := range []*httptest.ResponseRecorder{first, second} {
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d", i, w.Code)
		}
		if got := w.Header().Get("X-Cache"); got != "" {
			t.Errorf("request %d: X-Cache = %q, admin routes must bypass the cache", i, got)
		}
	}
	if len(st.Keys()) != 0 {
		t.Errorf("stats response was cached: %v", st.Keys())
	}
}

func TestServe_Shutdown(t *testing.T) {
	s, _ := setupServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, l)
	}()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
