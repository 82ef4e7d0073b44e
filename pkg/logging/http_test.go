package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

func TestHTTPHandlers(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)

	var inner bool
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hlog.FromRequest(r).Info().Msg("inside handler")
		inner = true
		w.WriteHeader(http.StatusTeapot)
	})
	handlers := HTTPHandlers(logger)
	for i := len(handlers) - 1; i >= 0; i-- {
		h = handlers[i](h)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health?x=1", nil))

	if !inner {
		t.Fatal("wrapped handler was not called")
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a request id header")
	}

	output := buf.String()
	for _, want := range []string{"inside handler", `"request_id"`, `"url":"/api/health?x=1"`, `"status":418`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %q", want, output)
		}
	}
}
