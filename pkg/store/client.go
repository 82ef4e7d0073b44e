package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds the Redis connection settings.
type Config struct {
	// URL is the Redis connection URL (redis://[user:pass@]host:port/db).
	URL string

	// DefaultTTL is used by Set when no positive TTL is given.
	DefaultTTL time.Duration

	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration

	// Backoff spaces reconnect attempts while disconnected.
	Backoff BackoffPolicy

	// ScanCount is the COUNT hint passed to SCAN during prefix scans.
	ScanCount int64
}

// DefaultConfig returns a configuration for a local Redis.
func DefaultConfig() Config {
	return Config{
		URL:         "redis://localhost:6379/0",
		DefaultTTL:  5 * time.Minute,
		DialTimeout: 2 * time.Second,
		Backoff:     DefaultBackoffPolicy(),
		ScanCount:   100,
	}
}

// Client is the single point of access to Redis. Operations never return
// errors to the caller: failures are logged and a neutral value comes back.
type Client struct {
	cfg    Config
	logger zerolog.Logger
	state  State

	mu   sync.Mutex
	rdb  *redis.Client
	stop context.CancelFunc
	done chan struct{}
}

// New creates a client. No connection is made until Connect or the first
// operation.
func New(cfg Config, logger zerolog.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaults.DefaultTTL
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = defaults.ScanCount
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
	}
}

// Connected reports whether the store is currently reachable.
func (c *Client) Connected() bool {
	return c.state.Connected()
}

// State exposes the read-only connection state.
func (c *Client) State() *State {
	return &c.state
}

// Connect establishes the Redis connection. It is a no-op when already
// connected. A failed ping leaves the client in degraded mode: the error is
// returned, and a background watcher keeps trying with the backoff policy.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Connected() && c.rdb != nil {
		return nil
	}

	if c.rdb == nil {
		rdb, err := c.newRedis()
		if err != nil {
			return err
		}
		c.rdb = rdb

		watchCtx, cancel := context.WithCancel(context.Background())
		c.stop = cancel
		c.done = make(chan struct{})
		go c.watch(watchCtx, rdb, c.done)
	}

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.down(err)
		return fmt.Errorf("ping redis: %w", err)
	}
	c.up()
	return nil
}

// Disconnect closes the connection. It is a no-op when not connected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	rdb, stop, done := c.rdb, c.stop, c.done
	c.rdb, c.stop, c.done = nil, nil, nil
	c.mu.Unlock()

	if rdb == nil {
		return nil
	}

	stop()
	<-done

	err := rdb.Close()
	if c.state.markDown() {
		c.logger.Info().Msg("Redis connection closed")
	}
	if err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// Ping checks that Redis answers. Used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	rdb, err := c.redis(ctx)
	if err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

// newRedis builds the go-redis client with the connection hook installed.
func (c *Client) newRedis() (*redis.Client, error) {
	if c.cfg.URL == "" {
		return nil, ErrNoURL
	}
	opts, err := redis.ParseURL(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = c.cfg.DialTimeout
	opts.MinRetryBackoff = c.cfg.Backoff.Delay(1)
	opts.MaxRetryBackoff = c.cfg.Backoff.Cap()

	rdb := redis.NewClient(opts)
	rdb.AddHook(&connHook{client: c})
	return rdb, nil
}

// redis returns the live go-redis client, connecting lazily.
func (c *Client) redis(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	rdb := c.rdb
	c.mu.Unlock()

	if rdb != nil && c.state.Connected() {
		return rdb, nil
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rdb == nil {
		return nil, ErrClosed
	}
	return c.rdb, nil
}

// watch retries the connection while the state is down. go-redis only dials
// on demand, so without this a bypassing middleware would never reconnect.
func (c *Client) watch(ctx context.Context, rdb *redis.Client, done chan struct{}) {
	defer close(done)

	attempt := 0
	for {
		wait := c.cfg.Backoff.Cap()
		if !c.state.Connected() {
			attempt++
			wait = c.cfg.Backoff.Delay(attempt)
		} else {
			attempt = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if c.state.Connected() {
			continue
		}

		storeReconnects.Inc()
		c.logger.Info().
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Reconnecting to Redis")

		pingCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			c.up()
		}
	}
}

// up marks the state connected, logging on transition.
func (c *Client) up() {
	if c.state.markUp() {
		c.logger.Info().Msg("Redis connected")
	}
}

// down marks the state disconnected, logging on transition.
func (c *Client) down(err error) {
	if c.state.markDown() {
		c.logger.Error().Err(err).Msg("Redis connection lost")
	}
}

// fail logs and counts a failed operation.
func (c *Client) fail(op, key string, err error) {
	storeErrors.WithLabelValues(op).Inc()
	c.logger.Warn().Err(&OpError{Op: op, Key: key, Err: err}).Msg("Store operation failed")
}
