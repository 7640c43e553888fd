package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migrateDatabase "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationsDir returns the migrations directory for driver below root,
// e.g. "migrations/postgresql".
func MigrationsDir(root, driver string) string {
	if driver == DriverMySQL {
		return root + "/mysql"
	}
	return root + "/postgresql"
}

// Migrate applies every pending migration found in dir to db. It reports
// whether anything was applied. db stays open: the migrate instance is not
// closed because closing it would close the caller's connection.
func Migrate(db *sql.DB, driver, dir string) (bool, error) {
	var (
		instance migrateDatabase.Driver
		err      error
	)
	switch driver {
	case DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverMySQL:
		instance, err = mysql.WithInstance(db, &mysql.Config{})
	default:
		return false, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return false, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, driver, instance)
	if err != nil {
		return false, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("failed to run migrations: %w", err)
	}
	return true, nil
}
