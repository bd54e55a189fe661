package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config selects and configures a backend. It maps onto the [cache] section
// of the config file.
type Config struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	Prefix  string        `toml:"prefix"`
	TTL     time.Duration `toml:"ttl"`
	Redis   RedisConfig   `toml:"redis"`
}

// TTLOrDefault returns the configured TTL, or TTLLayout if unset.
func (c Config) TTLOrDefault() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return TTLLayout
}

// Open builds the cache and keyer described by cfg. An empty backend means
// "file"; a file backend needs Dir.
func Open(ctx context.Context, cfg Config) (Cache, Keyer, error) {
	var keyer Keyer = NewDefaultKeyer()
	if cfg.Prefix != "" {
		keyer = NewScopedKeyer(keyer, cfg.Prefix)
	}

	switch cfg.Backend {
	case BackendFile, "":
		if cfg.Dir == "" {
			return nil, nil, fmt.Errorf("file cache: no directory configured")
		}
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return c, keyer, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return c, keyer, nil
	case BackendNone:
		return NewNullCache(), keyer, nil
	}
	return nil, nil, fmt.Errorf("%w: %q (want %s, %s or %s)", ErrUnknownBackend, cfg.Backend,
		BackendFile, BackendRedis, BackendNone)
}
