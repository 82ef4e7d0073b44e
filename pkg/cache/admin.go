package cache

import (
	"context"

	"github.com/rs/zerolog"
)

// Connection status values reported by Stats.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// AdminStore is what bulk invalidation and statistics need from the store.
type AdminStore interface {
	Connected() bool
	ClearByPrefix(ctx context.Context, prefix string) int
	CountByPrefix(ctx context.Context, prefix string) (int, bool)
}

// Stats is a snapshot of the cache keyspace.
type Stats struct {
	// Status is StatusConnected or StatusDisconnected.
	Status string

	// Classes holds the key count per class. Nil when disconnected.
	Classes map[Class]int

	// TotalKeys is the sum over all classes.
	TotalKeys int
}

// Admin performs bulk invalidation and statistics over the class prefixes.
type Admin struct {
	store  AdminStore
	policy Policy
	logger zerolog.Logger
}

// NewAdmin creates the cache administration service.
func NewAdmin(store AdminStore, policy Policy, logger zerolog.Logger) *Admin {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Admin{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// Invalidate removes every entry of the named class and returns the number
// of keys removed. An empty name clears all classes.
func (a *Admin) Invalidate(ctx context.Context, name string) (int, error) {
	classes := Classes()
	if name != "" {
		c, err := ParseClass(name)
		if err != nil {
			return 0, err
		}
		classes = []Class{c}
	}

	total := 0
	for _, c := range classes {
		n := a.store.ClearByPrefix(ctx, a.policy.Prefix(c))
		InvalidatedKeys.WithLabelValues(string(c)).Add(float64(n))
		total += n
	}

	a.logger.Info().
		Str("class", name).
		Int("cleared", total).
		Msg("Cache invalidated")
	return total, nil
}

// Stats counts keys per class. It never fails: an unreachable store is
// reported as StatusDisconnected.
func (a *Admin) Stats(ctx context.Context) Stats {
	if !a.store.Connected() {
		return Stats{Status: StatusDisconnected}
	}

	stats := Stats{
		Status:  StatusConnected,
		Classes: make(map[Class]int, len(Classes())),
	}
	for _, c := range Classes() {
		n, ok := a.store.CountByPrefix(ctx, a.policy.Prefix(c))
		if !ok {
			a.logger.Warn().Str("class", string(c)).Msg("Key count failed, reporting disconnected")
			return Stats{Status: StatusDisconnected}
		}
		stats.Classes[c] = n
		stats.TotalKeys += n
	}
	return stats
}
