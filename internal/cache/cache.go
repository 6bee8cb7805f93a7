// Package cache provides the byte caches used to memoize rendered exports
// and view-model snapshots.
package cache

import (
	"fmt"

	"github.com/gauge-analytics/influence/internal/domain"
)

// New creates a cache based on configuration: an in-process LRU for single-
// node runs, Redis when several instances should share rendered artifacts.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "", "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
