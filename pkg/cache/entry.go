package cache

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"
)

// encodingBase64 marks an entry whose body is not valid UTF-8 text.
const encodingBase64 = "base64"

// CachedHeaders lists the response headers stored with an entry and
// replayed on a hit. Everything else is dropped.
var CachedHeaders = []string{
	"Content-Type",
	"Content-Language",
	"Cache-Control",
}

// Entry represents a captured response.
type Entry struct {
	// Body is the response body. Text bodies are stored verbatim,
	// binary bodies base64 encoded.
	Body string `json:"body"`

	// Encoding is empty for text bodies and "base64" for binary ones.
	Encoding string `json:"encoding,omitempty"`

	// Headers are the allow-listed response headers
	Headers map[string]string `json:"headers"`

	// StoredAt is when we captured this response
	StoredAt time.Time `json:"storedAt"`
}

// NewEntry builds an entry from a response's headers and body.
func NewEntry(header http.Header, body []byte) *Entry {
	entry := &Entry{
		Headers:  make(map[string]string, len(CachedHeaders)),
		StoredAt: time.Now(),
	}

	for _, name := range CachedHeaders {
		if value := header.Get(name); value != "" {
			entry.Headers[name] = value
		}
	}

	if utf8.Valid(body) {
		entry.Body = string(body)
	} else {
		entry.Body = base64.StdEncoding.EncodeToString(body)
		entry.Encoding = encodingBase64
	}

	return entry
}

// Bytes returns the decoded body.
func (e *Entry) Bytes() ([]byte, error) {
	switch e.Encoding {
	case "":
		return []byte(e.Body), nil
	case encodingBase64:
		body, err := base64.StdEncoding.DecodeString(e.Body)
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		return body, nil
	default:
		return nil, fmt.Errorf("unsupported body encoding %q", e.Encoding)
	}
}

// WriteHeaders copies the allow-listed stored headers onto h.
func (e *Entry) WriteHeaders(h http.Header) {
	for _, name := range CachedHeaders {
		if value, ok := e.Headers[name]; ok {
			h.Set(name, value)
		}
	}
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	if e.StoredAt.IsZero() {
		return 0
	}
	return time.Since(e.StoredAt)
}
