// Package source provides DataSource backends for the three raw resources.
package source

import (
	"fmt"

	"github.com/gauge-analytics/influence/internal/domain"
)

// New creates a data source based on configuration.
func New(cfg domain.SourceConfig) (domain.DataSource, error) {
	switch cfg.Driver {
	case "", "http":
		return NewHTTPSource(cfg), nil

	case "file":
		return NewFileSource(cfg.Dir)

	case "sqlite":
		return newSQLiteSource(cfg)

	case "postgres":
		return newPostgresSource(cfg)

	default:
		return nil, fmt.Errorf("unsupported source driver: %s", cfg.Driver)
	}
}

func validResource(resource string) error {
	switch resource {
	case domain.ResourceBrands, domain.ResourceInteractions, domain.ResourceUsers:
		return nil
	}
	return fmt.Errorf("unknown resource: %s", resource)
}
