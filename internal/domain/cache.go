package domain

import (
	"context"
	"time"
)

// Cache is a byte cache used to memoize rendered exports and view-model
// snapshots. Entries are keyed by state version, so a stale entry can never
// be served for the current state: every mutation produces a new key.
type Cache interface {
	// Get retrieves a value. Returns nil, nil if the key is not present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Ping verifies the cache backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying connections.
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis".
	Type string `json:"type"`

	// Local LRU settings
	LocalMaxSize int           `json:"localMaxSize"`
	LocalTTL     time.Duration `json:"localTtl"`

	// Redis settings
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redisDb"`
}
