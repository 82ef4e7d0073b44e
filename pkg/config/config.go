// Package config loads the respcache configuration from defaults, an
// optional YAML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/respcache/pkg/cache"
	"github.com/Sternrassler/respcache/pkg/logging"
	"github.com/Sternrassler/respcache/pkg/store"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultAdminHeader carries the admin credential.
const DefaultAdminHeader = "X-Admin-Key"

// Config holds all respcache configuration.
type Config struct {
	Listen string      `yaml:"listen"`
	Redis  RedisConfig `yaml:"redis"`
	Cache  CacheConfig `yaml:"cache"`
	Admin  AdminConfig `yaml:"admin"`
	App    AppConfig   `yaml:"app"`
	Log    LogConfig   `yaml:"log"`
}

// RedisConfig controls the store connection.
type RedisConfig struct {
	URL         string        `yaml:"url"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	BackoffStep time.Duration `yaml:"backoff_step"`
	BackoffMax  time.Duration `yaml:"backoff_max"`
	ScanCount   int64         `yaml:"scan_count"`
}

// CacheConfig controls classification, keys and expiry.
// Map keys are class names: page, api, static.
type CacheConfig struct {
	DefaultTTL    time.Duration            `yaml:"default_ttl"`
	TTLs          map[string]time.Duration `yaml:"ttl"`
	Prefixes      map[string]string        `yaml:"prefixes"`
	APIPrefix     string                   `yaml:"api_prefix"`
	StaticPattern string                   `yaml:"static_pattern"`
	MaxBodyBytes  int64                    `yaml:"max_body_bytes"`
	WriteTimeout  time.Duration            `yaml:"write_timeout"`
}

// AdminConfig controls the administrative endpoints. An empty secret
// rejects every admin request.
type AdminConfig struct {
	Secret string `yaml:"secret"`
	Header string `yaml:"header"`
}

// AppConfig controls the bundled demo application.
type AppConfig struct {
	// StaticDir serves assets from disk instead of the embedded set.
	StaticDir string `yaml:"static_dir"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	policy := cache.DefaultPolicy()
	backoff := store.DefaultBackoffPolicy()
	storeCfg := store.DefaultConfig()

	cfg := &Config{
		Listen: ":3000",
		Redis: RedisConfig{
			URL:         storeCfg.URL,
			DialTimeout: storeCfg.DialTimeout,
			BackoffStep: backoff.Step,
			BackoffMax:  backoff.Max,
			ScanCount:   storeCfg.ScanCount,
		},
		Cache: CacheConfig{
			DefaultTTL:    policy.DefaultTTL,
			TTLs:          make(map[string]time.Duration, len(policy.TTLs)),
			Prefixes:      make(map[string]string, len(policy.Prefixes)),
			APIPrefix:     policy.APIPrefix,
			StaticPattern: policy.StaticPattern.String(),
			WriteTimeout:  policy.WriteTimeout,
		},
		Admin: AdminConfig{
			Header: DefaultAdminHeader,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
	}
	for c, ttl := range policy.TTLs {
		cfg.Cache.TTLs[string(c)] = ttl
	}
	for c, prefix := range policy.Prefixes {
		cfg.Cache.Prefixes[string(c)] = prefix
	}
	return cfg
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		c.Log.Pretty = pretty
	}
	if v, ok := os.LookupEnv("ADMIN_SECRET"); ok {
		c.Admin.Secret = v
	}
	if v := os.Getenv("CACHE_DEFAULT_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_DEFAULT_TTL: %w", err)
		}
		c.Cache.DefaultTTL = ttl
	}
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is required", ErrInvalidConfig)
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("%w: redis url is required", ErrInvalidConfig)
	}
	if c.Redis.BackoffStep < 0 || c.Redis.BackoffMax < 0 {
		return fmt.Errorf("%w: backoff must not be negative", ErrInvalidConfig)
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("%w: default ttl must be positive", ErrInvalidConfig)
	}
	if c.Admin.Header == "" {
		return fmt.Errorf("%w: admin header is required", ErrInvalidConfig)
	}
	if !logging.ValidLevel(logging.LogLevel(c.Log.Level)) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Policy builds the cache policy described by the cache section.
func (c *Config) Policy() (cache.Policy, error) {
	policy := cache.DefaultPolicy()
	policy.DefaultTTL = c.Cache.DefaultTTL
	policy.MaxBodyBytes = c.Cache.MaxBodyBytes
	if c.Cache.APIPrefix != "" {
		policy.APIPrefix = c.Cache.APIPrefix
	}
	if c.Cache.WriteTimeout > 0 {
		policy.WriteTimeout = c.Cache.WriteTimeout
	}
	if c.Cache.StaticPattern != "" {
		re, err := regexp.Compile(c.Cache.StaticPattern)
		if err != nil {
			return cache.Policy{}, fmt.Errorf("static pattern: %w", err)
		}
		policy.StaticPattern = re
	}

	if len(c.Cache.TTLs) > 0 {
		policy.TTLs = make(map[cache.Class]time.Duration, len(c.Cache.TTLs))
		for name, ttl := range c.Cache.TTLs {
			class, err := cache.ParseClass(strings.ToLower(name))
			if err != nil {
				return cache.Policy{}, fmt.Errorf("ttl: %w", err)
			}
			policy.TTLs[class] = ttl
		}
	}
	if len(c.Cache.Prefixes) > 0 {
		policy.Prefixes = make(map[cache.Class]string, len(c.Cache.Prefixes))
		for name, prefix := range c.Cache.Prefixes {
			class, err := cache.ParseClass(strings.ToLower(name))
			if err != nil {
				return cache.Policy{}, fmt.Errorf("prefixes: %w", err)
			}
			policy.Prefixes[class] = prefix
		}
	}

	if err := policy.Validate(); err != nil {
		return cache.Policy{}, err
	}
	return policy, nil
}

// StoreConfig builds the store client configuration.
func (c *Config) StoreConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.URL = c.Redis.URL
	cfg.DefaultTTL = c.Cache.DefaultTTL
	if c.Redis.DialTimeout > 0 {
		cfg.DialTimeout = c.Redis.DialTimeout
	}
	if c.Redis.BackoffStep > 0 {
		cfg.Backoff.Step = c.Redis.BackoffStep
	}
	if c.Redis.BackoffMax > 0 {
		cfg.Backoff.Max = c.Redis.BackoffMax
	}
	if c.Redis.ScanCount > 0 {
		cfg.ScanCount = c.Redis.ScanCount
	}
	return cfg
}

// Logging builds the logger configuration. Output stays at its default.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
