// Package store is the Redis client used by the response cache.
//
// The Client hides the connection lifecycle and value serialization from
// callers. Every operation connects lazily and reports failure through a
// neutral return value (false, nil, 0) instead of an error; the failure is
// logged and counted in respcache_store_errors_total.
//
// # Basic Usage
//
//	client := store.New(store.Config{URL: "redis://localhost:6379/0"}, logger)
//	if err := client.Connect(ctx); err != nil {
//		// degraded mode: operations return neutral values until Redis is back
//	}
//	defer client.Disconnect()
//
//	client.Set(ctx, "page:/index.html", entry, 5*time.Minute)
//	removed := client.ClearByPrefix(ctx, "page:")
//
// # Connection State
//
// State has a single writer, the Client. A go-redis hook marks it connected
// after a successful dial and disconnected on transport errors. While it is
// down, a watcher pings Redis with delays of min(attempt*Step, Max).
package store
