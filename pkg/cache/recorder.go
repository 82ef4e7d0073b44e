package cache

import (
	"bytes"
	"net/http"
)

// recorder wraps an http.ResponseWriter and keeps a copy of what the
// handler writes. Everything is forwarded to the client unchanged.
type recorder struct {
	rw          http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
	limit       int64
	overflow    bool
}

// newRecorder returns a recorder that stops copying once the body exceeds
// limit bytes. A limit of 0 disables the cap.
func newRecorder(w http.ResponseWriter, limit int64) *recorder {
	return &recorder{rw: w, limit: limit}
}

// Implementation of http.ResponseWriter
func (r *recorder) Header() http.Header {
	return r.rw.Header()
}

// Implementation of http.ResponseWriter
func (r *recorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = statusCode
	r.rw.WriteHeader(statusCode)
}

// Implementation of http.ResponseWriter
func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.rw.Write(b)
	if !r.overflow {
		if r.limit > 0 && int64(r.buf.Len()+n) > r.limit {
			r.overflow = true
			r.buf = bytes.Buffer{}
		} else {
			r.buf.Write(b[:n])
		}
	}
	return n, err
}

// Flush forwards to the underlying writer when it supports flushing.
func (r *recorder) Flush() {
	if f, ok := r.rw.(http.Flusher); ok {
		if !r.wroteHeader {
			r.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *recorder) Unwrap() http.ResponseWriter {
	return r.rw
}

// StatusCode returns the status sent by the handler, 0 if nothing was sent.
func (r *recorder) StatusCode() int {
	return r.status
}

// Body returns the captured body.
func (r *recorder) Body() []byte {
	return r.buf.Bytes()
}

// Cacheable reports whether the captured response may be stored:
// a complete 200 response within the size cap.
func (r *recorder) Cacheable() bool {
	return r.status == http.StatusOK && !r.overflow
}
