package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// storeErrors tracks failed operations by name
	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respcache_store_errors_total",
			Help: "Total number of failed Redis store operations",
		},
		[]string{"operation"}, // "get", "set", "delete", "clear", ...
	)

	// storeConnected is 1 while the Redis connection is up
	storeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "respcache_store_connected",
			Help: "Whether the Redis store connection is up (1) or down (0)",
		},
	)

	// storeReconnects tracks reconnect attempts made while disconnected
	storeReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respcache_store_reconnect_attempts_total",
			Help: "Total number of Redis reconnect attempts",
		},
	)
)
