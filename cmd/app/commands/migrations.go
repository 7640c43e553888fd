package commands

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/allisson/trustcore/internal/config"
	"github.com/allisson/trustcore/internal/database"
)

// MigrationsRoot is the directory holding one subdirectory per SQL driver.
const MigrationsRoot = "migrations"

// RunMigrations applies pending migrations for the postgres and mysql
// preference backends. The bbolt backend needs none.
func RunMigrations(db *sql.DB, logger *slog.Logger, backend, root string) error {
	if backend == config.BackendBolt {
		logger.Info("bbolt backend needs no migrations")
		return nil
	}

	logger.Info("running database migrations", slog.String("driver", backend))

	applied, err := database.Migrate(db, backend, database.MigrationsDir(root, backend))
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	if !applied {
		logger.Info("no pending migrations")
		return nil
	}
	logger.Info("migrations completed successfully")
	return nil
}
