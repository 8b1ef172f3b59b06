// Package store reads detection logs from DuckDB or PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/capture-logs/capture-logs/internal/store/migrate"
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Supported drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "pgx"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("store: unsupported driver")

// Config selects and tunes the backing database.
type Config struct {
	// Driver is "duckdb" (default) or "pgx"; "postgres" is accepted as an alias.
	Driver string
	// DSN is the PostgreSQL connection string. Ignored for DuckDB.
	DSN string
	// Path is the DuckDB database file. Empty means in-memory.
	Path string
	// AutoMigrate applies the embedded schema on open.
	AutoMigrate bool
	// QueryTimeout bounds each query. Zero disables the bound.
	QueryTimeout time.Duration
	// MaxOpenConns caps the pool. Zero leaves the driver default.
	MaxOpenConns int
}

// Store wraps the connection pool. It is safe for concurrent use; the pool
// governs how many queries run at once.
type Store struct {
	db           *sqlx.DB
	driver       string
	QueryTimeout time.Duration
}

// Open connects to the configured database and, when requested, applies the
// embedded schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, dsn, err := resolveDriver(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if cfg.AutoMigrate {
		if err := migrate.NewRunner(db).Run(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &Store{
		db:           db,
		driver:       driver,
		QueryTimeout: cfg.QueryTimeout,
	}, nil
}

// NewMemoryStore opens an in-memory DuckDB with the schema applied.
func NewMemoryStore(ctx context.Context) (*Store, error) {
	return Open(ctx, Config{Driver: DriverDuckDB, AutoMigrate: true})
}

func resolveDriver(cfg Config) (driver, dsn string, err error) {
	switch cfg.Driver {
	case "", DriverDuckDB:
		if cfg.Path != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
				return "", "", err
			}
		}
		return DriverDuckDB, cfg.Path, nil
	case DriverPostgres, "postgres", "postgresql":
		if cfg.DSN == "" {
			return "", "", fmt.Errorf("store: %s driver requires a DSN", cfg.Driver)
		}
		return DriverPostgres, cfg.DSN, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// queryCtx bounds ctx by the store's query timeout, if any.
func (s *Store) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.QueryTimeout)
	}
	return context.WithCancel(ctx)
}
