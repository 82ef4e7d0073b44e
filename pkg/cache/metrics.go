package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for RequestsTotal.
const (
	resultHit    = "hit"
	resultMiss   = "miss"
	resultBypass = "bypass"
	resultError  = "error"
)

// Outcome labels for WriteBacks.
const (
	outcomeStored  = "stored"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

var (
	// RequestsTotal tracks requests seen by the middleware by class and result
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respcache_requests_total",
			Help: "Total number of requests seen by the cache middleware",
		},
		[]string{"class", "result"}, // result: "hit", "miss", "bypass", "error"
	)

	// WriteBacks tracks captured responses by outcome
	WriteBacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respcache_writebacks_total",
			Help: "Total number of cache write-backs after a miss",
		},
		[]string{"class", "outcome"}, // outcome: "stored", "failed", "skipped"
	)

	// EntrySize tracks the body size of stored entries
	EntrySize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "respcache_entry_size_bytes",
			Help:    "Body size of responses written to the cache",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"class"},
	)

	// InvalidatedKeys tracks keys removed through administration
	InvalidatedKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respcache_invalidated_keys_total",
			Help: "Total number of cache keys removed by invalidation",
		},
		[]string{"class"},
	)
)
