package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/gauge-analytics/influence/internal/domain"
)

// SQLSource reads the three resources from a relational snapshot and renders
// them in the same wire shape as the HTTP feed. The snapshot is read-only
// input; nothing is ever written back.
type SQLSource struct {
	db *sql.DB
}

// newSQLiteSource opens a SQLite snapshot. modernc.org/sqlite keeps the
// build pure Go, no CGO.
func newSQLiteSource(cfg domain.SourceConfig) (*SQLSource, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = "./influence.db"
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite snapshot: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite snapshot: %w", err)
	}
	return &SQLSource{db: db}, nil
}

// newPostgresSource connects to a Postgres snapshot database.
func newPostgresSource(cfg domain.SourceConfig) (*SQLSource, error) {
	host := cfg.PostgresHost
	if host == "" {
		host = "localhost"
	}
	port := cfg.PostgresPort
	if port == 0 {
		port = 5432
	}
	dbname := cfg.PostgresDB
	if dbname == "" {
		dbname = "influence"
	}
	sslmode := cfg.PostgresSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, cfg.PostgresUser, cfg.PostgresPassword, dbname, sslmode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres snapshot: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres snapshot: %w", err)
	}
	return &SQLSource{db: db}, nil
}

// Fetch queries one resource table and marshals it to the feed's JSON shape,
// so the normalizer sees identical input regardless of driver.
func (s *SQLSource) Fetch(ctx context.Context, resource string) ([]byte, error) {
	if err := validResource(resource); err != nil {
		return nil, err
	}
	switch resource {
	case domain.ResourceBrands:
		return s.fetchBrands(ctx)
	case domain.ResourceInteractions:
		return s.fetchInteractions(ctx)
	default:
		return s.fetchUsers(ctx)
	}
}

func (s *SQLSource) fetchBrands(ctx context.Context) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM brands`)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	type brand struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := []brand{}
	for rows.Next() {
		var b brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brands: %w", err)
	}
	return json.Marshal(out)
}

func (s *SQLSource) fetchInteractions(ctx context.Context) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, brand_id, type FROM interactions`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	type interaction struct {
		User  int64  `json:"user"`
		Brand string `json:"brand"`
		Type  string `json:"type"`
	}
	out := []interaction{}
	for rows.Next() {
		var in interaction
		if err := rows.Scan(&in.User, &in.Brand, &in.Type); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return json.Marshal(out)
}

func (s *SQLSource) fetchUsers(ctx context.Context) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gender, title, first_name, last_name, email, dob,
		       phone, cell, nat, state, city, street, postcode
		FROM users`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	type name struct {
		Title string `json:"title"`
		First string `json:"first"`
		Last  string `json:"last"`
	}
	type location struct {
		Street   string `json:"street"`
		City     string `json:"city"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
	}
	type user struct {
		ID       int64    `json:"id"`
		Gender   string   `json:"gender"`
		Name     name     `json:"name"`
		Email    string   `json:"email"`
		DOB      int64    `json:"dob"`
		Phone    string   `json:"phone"`
		Cell     string   `json:"cell"`
		Nat      string   `json:"nat"`
		Location location `json:"location"`
	}

	out := []user{}
	for rows.Next() {
		var u user
		if err := rows.Scan(
			&u.ID, &u.Gender, &u.Name.Title, &u.Name.First, &u.Name.Last,
			&u.Email, &u.DOB, &u.Phone, &u.Cell, &u.Nat,
			&u.Location.State, &u.Location.City, &u.Location.Street, &u.Location.Postcode,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return json.Marshal(out)
}

// Ping verifies the database connection.
func (s *SQLSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLSource) Close() error {
	return s.db.Close()
}
