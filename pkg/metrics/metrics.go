// Package metrics provides the Prometheus registry reference and HTTP exposition
// for the response cache.
// All metrics are defined in their respective packages (store, cache)
// to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the response cache.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source Handler exposes.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		Registry,
		promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}),
	)
}

// Metrics Documentation
//
// Store Metrics (pkg/store):
//   - respcache_store_errors_total{operation} (Counter): Failed Redis operations by name
//   - respcache_store_connected (Gauge): 1 while the Redis connection is up
//   - respcache_store_reconnect_attempts_total (Counter): Reconnect attempts while disconnected
//
// Middleware Metrics (pkg/cache):
//   - respcache_requests_total{class, result} (Counter): Requests by class and hit/miss/bypass/error
//   - respcache_writebacks_total{class, outcome} (Counter): Write-backs by stored/failed/skipped
//   - respcache_entry_size_bytes{class} (Histogram): Body size of stored entries
//
// Administration Metrics (pkg/cache):
//   - respcache_invalidated_keys_total{class} (Counter): Keys removed by invalidation
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(respcache_requests_total{result="hit"}[5m])) /
//   sum(rate(respcache_requests_total{result=~"hit|miss"}[5m]))
//
//   # Degraded Mode
//   respcache_store_connected == 0
//
//   # Write-back Failure Rate
//   rate(respcache_writebacks_total{outcome="failed"}[5m])
//
//   # P95 Entry Size
//   histogram_quantile(0.95, rate(respcache_entry_size_bytes_bucket[5m]))
