// Package testutil provides testing utilities for the response cache.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

// FakeStore is an in-memory store satisfying the cache middleware and
// admin contracts. Values are kept as encoded text like in Redis.
type FakeStore struct {
	mu      sync.RWMutex
	data    map[string]string
	ttls    map[string]time.Duration
	down    bool
	failSet bool

	// Tracking
	GetCount int
	SetCount int
}

// NewFakeStore creates an empty, connected store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

// Connected reports the simulated connection state.
func (f *FakeStore) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.down
}

// SetConnected flips the simulated connection state.
func (f *FakeStore) SetConnected(up bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = !up
}

// Ping fails while the store is disconnected.
func (f *FakeStore) Ping(ctx context.Context) error {
	if !f.Connected() {
		return errors.New("fake store disconnected")
	}
	return nil
}

// FailWrites makes every Set report failure.
func (f *FakeStore) FailWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = fail
}

// GetInto decodes the JSON value stored under key into dst.
func (f *FakeStore) GetInto(ctx context.Context, key string, dst any) bool {
	f.mu.Lock()
	f.GetCount++
	raw, ok := f.data[key]
	down := f.down
	f.mu.Unlock()

	if down || !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), dst) == nil
}

// Set stores value under key. Strings are kept verbatim, anything else as JSON.
func (f *FakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetCount++
	if f.down || f.failSet {
		return false
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return false
		}
		raw = string(data)
	}
	f.data[key] = raw
	f.ttls[key] = ttl
	return true
}

// Put stores raw text under key, bypassing tracking.
func (f *FakeStore) Put(key, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
}

// Raw returns the text stored under key.
func (f *FakeStore) Raw(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	raw, ok := f.data[key]
	return raw, ok
}

// TTL returns the TTL recorded by the last Set of key.
func (f *FakeStore) TTL(key string) time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ttls[key]
}

// Keys returns all stored keys.
func (f *FakeStore) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	return keys
}

// ClearByPrefix deletes all keys starting with prefix.
func (f *FakeStore) ClearByPrefix(ctx context.Context, prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0
	}
	removed := 0
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			delete(f.ttls, k)
			removed++
		}
	}
	return removed
}

// CountByPrefix counts keys starting with prefix.
func (f *FakeStore) CountByPrefix(ctx context.Context, prefix string) (int, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.down {
		return 0, false
	}
	n := 0
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n, true
}

// Counts returns the Get and Set call counters.
func (f *FakeStore) Counts() (gets, sets int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.GetCount, f.SetCount
}

// Reset clears all tracking counters.
func (f *FakeStore) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCount = 0
	f.SetCount = 0
}
