package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Set stores value under key with the given TTL. A TTL <= 0 uses the
// configured default. Returns whether the write succeeded.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("set", key, err)
		return false
	}

	data, err := encode(value)
	if err != nil {
		c.fail("set", key, err)
		return false
	}

	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	if err := rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.fail("set", key, err)
		return false
	}

	c.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Stored value")
	return true
}

// Get returns the value stored under key. Structured (JSON object or array)
// values come back decoded, everything else as the raw string. The boolean
// is false when the key is absent or the read failed.
func (c *Client) Get(ctx context.Context, key string) (any, bool) {
	raw, ok := c.getRaw(ctx, key)
	if !ok {
		return nil, false
	}
	return decode(raw), true
}

// GetInto decodes the JSON value stored under key into dst. It returns
// false when the key is absent, the read failed, or the value is malformed.
func (c *Client) GetInto(ctx context.Context, key string, dst any) bool {
	raw, ok := c.getRaw(ctx, key)
	if !ok {
		return false
	}
	if err := decodeInto(raw, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Malformed stored value")
		return false
	}
	return true
}

func (c *Client) getRaw(ctx context.Context, key string) (string, bool) {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("get", key, err)
		return "", false
	}

	raw, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false
		}
		c.fail("get", key, err)
		return "", false
	}
	return raw, true
}

// Delete removes key. Returns whether the command succeeded.
func (c *Client) Delete(ctx context.Context, key string) bool {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("delete", key, err)
		return false
	}
	if err := rdb.Del(ctx, key).Err(); err != nil {
		c.fail("delete", key, err)
		return false
	}
	return true
}

// ClearByPrefix deletes every key starting with prefix in one batched DEL
// and returns how many were removed. Zero when nothing matched or on error.
func (c *Client) ClearByPrefix(ctx context.Context, prefix string) int {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("clear", prefix, err)
		return 0
	}

	keys, err := c.scan(ctx, rdb, prefix)
	if err != nil {
		c.fail("clear", prefix, err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	removed, err := rdb.Del(ctx, keys...).Result()
	if err != nil {
		c.fail("clear", prefix, err)
		return 0
	}

	c.logger.Info().
		Str("prefix", prefix).
		Int64("removed", removed).
		Msg("Cleared keys by prefix")
	return int(removed)
}

// CountByPrefix returns the number of keys starting with prefix.
func (c *Client) CountByPrefix(ctx context.Context, prefix string) (int, bool) {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("count", prefix, err)
		return 0, false
	}
	keys, err := c.scan(ctx, rdb, prefix)
	if err != nil {
		c.fail("count", prefix, err)
		return 0, false
	}
	return len(keys), true
}

// Increment atomically adds amount to the counter at key and returns the
// new value.
func (c *Client) Increment(ctx context.Context, key string, amount int64) (int64, bool) {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("increment", key, err)
		return 0, false
	}
	n, err := rdb.IncrBy(ctx, key, amount).Result()
	if err != nil {
		c.fail("increment", key, err)
		return 0, false
	}
	return n, true
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) bool {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("exists", key, err)
		return false
	}
	n, err := rdb.Exists(ctx, key).Result()
	if err != nil {
		c.fail("exists", key, err)
		return false
	}
	return n > 0
}

// Expire refreshes the TTL of key. False when the key does not exist or
// the command failed.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	rdb, err := c.redis(ctx)
	if err != nil {
		c.fail("expire", key, err)
		return false
	}
	ok, err := rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		c.fail("expire", key, err)
		return false
	}
	return ok
}

// scan collects all keys matching prefix*.
func (c *Client) scan(ctx context.Context, rdb *redis.Client, prefix string) ([]string, error) {
	var keys []string
	iter := rdb.Scan(ctx, 0, escapePattern(prefix)+"*", c.cfg.ScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// escapePattern quotes glob metacharacters so a prefix matches literally.
func escapePattern(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
