// Package database opens the storage backends: the local bbolt file and the
// PostgreSQL or MySQL connection used by the SQL backends.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

// SQL drivers accepted by Connect and Migrate.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Pool defaults applied when a Config field is left at zero.
const (
	defaultMaxOpenConnections = 10
	defaultMaxIdleConnections = 2
	defaultConnMaxLifetime    = 30 * time.Minute
)

// Config holds SQL connection settings.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConnections <= 0 {
		c.MaxOpenConnections = defaultMaxOpenConnections
	}
	if c.MaxIdleConnections <= 0 {
		c.MaxIdleConnections = defaultMaxIdleConnections
	}
	if c.MaxIdleConnections > c.MaxOpenConnections {
		c.MaxIdleConnections = c.MaxOpenConnections
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = defaultConnMaxLifetime
	}
	return c
}

// Connect opens the preference database pool and pings it within ctx. Only
// the postgres and mysql drivers are accepted.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverMySQL {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported database driver: %s", cfg.Driver)
	}
	if cfg.ConnectionString == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "%s connection string is empty", cfg.Driver)
	}
	cfg = cfg.withDefaults()

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
