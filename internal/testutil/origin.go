package testutil

import (
	"net/http"
	"sync"
)

// OriginResponse defines the behavior of a fake application route.
type OriginResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// Origin is a configurable application handler that counts requests, so
// tests can tell whether a request reached the application or the cache.
type Origin struct {
	mu        sync.RWMutex
	responses map[string]OriginResponse
	requests  map[string]int
}

// NewOrigin creates an origin that answers 404 for unknown paths.
func NewOrigin() *Origin {
	return &Origin{
		responses: make(map[string]OriginResponse),
		requests:  make(map[string]int),
	}
}

// SetResponse configures the response for a path.
func (o *Origin) SetResponse(path string, resp OriginResponse) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.responses[path] = resp
}

// RequestCount returns how many requests reached path.
func (o *Origin) RequestCount(path string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.requests[path]
}

// ServeHTTP implements http.Handler.
func (o *Origin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	o.requests[r.URL.Path]++
	resp, ok := o.responses[r.URL.Path]
	o.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewPageResponse creates a 200 HTML response.
func NewPageResponse(body string) OriginResponse {
	return OriginResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type":  "text/html; charset=utf-8",
			"Cache-Control": "public, max-age=60",
			"Set-Cookie":    "session=abc",
		},
	}
}

// NewJSONResponse creates a 200 JSON response.
func NewJSONResponse(body string) OriginResponse {
	return OriginResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() OriginResponse {
	return OriginResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
