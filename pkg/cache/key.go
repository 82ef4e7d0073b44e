package cache

import (
	"net/http"
	"strings"
)

// Key builds the cache key for a request of the given class.
// Format: <class prefix><request URI>
//
// Example:
//
//	page:/index.html
//	api:/api/items?page=2&sort=name
//
// The request URI is taken verbatim (path and query, case-sensitive, no
// reordering of query parameters), so identical requests share a key.
func (p Policy) Key(c Class, r *http.Request) string {
	return p.Prefix(c) + requestURI(r)
}

// requestURI returns the origin-form target of the request as received.
func requestURI(r *http.Request) string {
	if strings.HasPrefix(r.RequestURI, "/") {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
