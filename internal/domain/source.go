package domain

import "context"

// Resource names served by a DataSource.
const (
	ResourceBrands       = "brands"
	ResourceInteractions = "interactions"
	ResourceUsers        = "users"
)

// Resources lists every resource the loader fetches, in no particular order:
// the fetches are independent and may complete in any order.
var Resources = []string{ResourceBrands, ResourceInteractions, ResourceUsers}

// DataSource fetches the raw JSON array for one resource. A failed fetch is
// not fatal to the service; the resource simply stays empty.
type DataSource interface {
	// Fetch returns the raw JSON-encoded array for the named resource.
	Fetch(ctx context.Context, resource string) ([]byte, error)

	// Ping verifies the source is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying connections.
	Close() error
}

// SourceConfig holds configuration for data source initialization.
type SourceConfig struct {
	// Driver is one of "http", "file", "sqlite", "postgres".
	Driver string `json:"driver"`

	// HTTP settings
	Endpoint   string `json:"endpoint"`
	TimeoutSec int    `json:"timeoutSec"`
	MaxRetries int    `json:"maxRetries"`

	// File settings
	Dir string `json:"dir"`

	// SQLite settings
	SQLitePath string `json:"sqlitePath"`

	// Postgres settings
	PostgresHost     string `json:"postgresHost"`
	PostgresPort     int    `json:"postgresPort"`
	PostgresDB       string `json:"postgresDb"`
	PostgresUser     string `json:"postgresUser"`
	PostgresPassword string `json:"-"`
	PostgresSSLMode  string `json:"postgresSslMode"`
}
