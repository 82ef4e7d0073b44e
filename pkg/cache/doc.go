// Package cache provides cache-aside HTTP response caching on top of a
// key-value store.
//
// The middleware implements the following behaviour:
//
// - Only GET requests are considered, and only while the store is connected
// - Requests are classified as api, static or page (first match wins)
// - Keys are the class prefix followed by the raw request URI
// - Hits replay Content-Type, Content-Language and Cache-Control plus X-Cache: HIT
// - Misses set X-Cache: MISS and capture 200 responses in the background
// - Any lookup failure bypasses the cache instead of failing the request
//
// # Basic Usage
//
//	client := store.New(store.Config{URL: "redis://localhost:6379/0"}, logger)
//	_ = client.Connect(ctx)
//
//	mw := cache.NewMiddleware(client, cache.DefaultPolicy(), logger)
//	http.ListenAndServe(":8080", mw.Handler(app))
//
// # Administration
//
//	admin := cache.NewAdmin(client, cache.DefaultPolicy(), logger)
//	cleared, err := admin.Invalidate(ctx, "static") // "" clears every class
//	stats := admin.Stats(ctx)
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - respcache_requests_total{class,result} - hit, miss, bypass, error
//   - respcache_writebacks_total{class,outcome} - stored, failed, skipped
//   - respcache_entry_size_bytes{class} - body size of stored entries
//   - respcache_invalidated_keys_total{class} - keys removed by Invalidate
//
// # Concurrency
//
// Write-backs run on their own goroutine and are never awaited by the
// request. Concurrent misses for one key may both write it; the last write
// wins. Middleware.Wait drains pending write-backs on shutdown.
package cache
