package cache

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback TTL when a class has no TTL of its own
	DefaultTTL = 5 * time.Minute

	// DefaultAPIPrefix marks API routes
	DefaultAPIPrefix = "/api/"

	// DefaultWriteTimeout bounds a single asynchronous write-back
	DefaultWriteTimeout = 5 * time.Second
)

// DefaultStaticPattern matches static asset paths by extension.
var DefaultStaticPattern = regexp.MustCompile(`\.(js|css|png|jpg|jpeg|gif|svg|ico)$`)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid cache policy")

// Policy decides how requests are classified, keyed and expired.
type Policy struct {
	// APIPrefix marks API routes (matched against the URL path).
	APIPrefix string

	// StaticPattern marks static assets (matched against the URL path).
	StaticPattern *regexp.Regexp

	// Prefixes maps each class to its key namespace.
	Prefixes map[Class]string

	// TTLs maps each class to its entry lifetime.
	TTLs map[Class]time.Duration

	// DefaultTTL is used for classes missing from TTLs.
	DefaultTTL time.Duration

	// MaxBodyBytes skips capturing bodies larger than this. 0 means no limit.
	MaxBodyBytes int64

	// WriteTimeout bounds each asynchronous write-back.
	WriteTimeout time.Duration
}

// DefaultPolicy returns the stock classification and TTL table.
func DefaultPolicy() Policy {
	return Policy{
		APIPrefix:     DefaultAPIPrefix,
		StaticPattern: DefaultStaticPattern,
		Prefixes: map[Class]string{
			ClassPage:   "page:",
			ClassAPI:    "api:",
			ClassStatic: "static:",
		},
		TTLs: map[Class]time.Duration{
			ClassPage:   5 * time.Minute,
			ClassAPI:    1 * time.Minute,
			ClassStatic: 24 * time.Hour,
		},
		DefaultTTL:   DefaultTTL,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Classify maps a URL path to its class. First match wins: API prefix,
// then static extension, then page.
func (p Policy) Classify(path string) Class {
	if p.APIPrefix != "" && strings.HasPrefix(path, p.APIPrefix) {
		return ClassAPI
	}
	if p.StaticPattern != nil && p.StaticPattern.MatchString(path) {
		return ClassStatic
	}
	return ClassPage
}

// Prefix returns the key namespace of a class.
func (p Policy) Prefix(c Class) string {
	if prefix, ok := p.Prefixes[c]; ok && prefix != "" {
		return prefix
	}
	return string(c) + ":"
}

// TTL returns the lifetime for entries of a class, falling back to
// DefaultTTL and then to the package default.
func (p Policy) TTL(c Class) time.Duration {
	if ttl, ok := p.TTLs[c]; ok && ttl > 0 {
		return ttl
	}
	if p.DefaultTTL > 0 {
		return p.DefaultTTL
	}
	return DefaultTTL
}

// writeTimeout returns WriteTimeout or its default.
func (p Policy) writeTimeout() time.Duration {
	if p.WriteTimeout > 0 {
		return p.WriteTimeout
	}
	return DefaultWriteTimeout
}

// Validate checks that class prefixes partition the keyspace: every class
// has a distinct prefix and no prefix starts with another one.
func (p Policy) Validate() error {
	classes := Classes()
	for i, a := range classes {
		pa := p.Prefix(a)
		for _, b := range classes[i+1:] {
			pb := p.Prefix(b)
			if strings.HasPrefix(pa, pb) || strings.HasPrefix(pb, pa) {
				return fmt.Errorf("%w: prefixes %q (%s) and %q (%s) overlap", ErrInvalidPolicy, pa, a, pb, b)
			}
		}
	}
	for c := range p.Prefixes {
		if _, err := ParseClass(string(c)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
	}
	for c, ttl := range p.TTLs {
		if _, err := ParseClass(string(c)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
		if ttl < 0 {
			return fmt.Errorf("%w: negative ttl for %s", ErrInvalidPolicy, c)
		}
	}
	if p.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: max body bytes must not be negative", ErrInvalidPolicy)
	}
	return nil
}
