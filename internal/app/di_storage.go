package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/allisson/trustcore/internal/config"
	cryptoRepository "github.com/allisson/trustcore/internal/crypto/repository"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	"github.com/allisson/trustcore/internal/database"
	prefsRepository "github.com/allisson/trustcore/internal/preferences/repository"
	prefsUseCase "github.com/allisson/trustcore/internal/preferences/usecase"
)

type storageComponents struct {
	boltDB         *bbolt.DB
	sqlDB          *sql.DB
	txManager      database.TxManager
	wrappedKeyRepo cryptoService.WrappedKeyRepository
	preferenceRepo prefsUseCase.Repository

	boltDBInit         sync.Once
	sqlDBInit          sync.Once
	txManagerInit      sync.Once
	wrappedKeyRepoInit sync.Once
	preferenceRepoInit sync.Once
}

// BoltDB returns the local bbolt file with the key and preference buckets created.
func (c *Container) BoltDB() (*bbolt.DB, error) {
	err := c.lazy(&c.boltDBInit, "boltDB", func() error {
		db, err := database.OpenBolt(c.config.DataDir, cryptoRepository.KeysBucket, prefsRepository.PreferencesBucket)
		if err != nil {
			return fmt.Errorf("failed to open bolt database: %w", err)
		}
		c.boltDB = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.boltDB, nil
}

// DB returns the SQL connection for the postgres and mysql backends.
func (c *Container) DB(ctx context.Context) (*sql.DB, error) {
	err := c.lazy(&c.sqlDBInit, "db", func() error {
		if !c.usesSQL() {
			return fmt.Errorf("backend %q has no sql database", c.config.PrefsBackend)
		}
		db, err := database.Connect(ctx, database.Config{
			Driver:             c.config.PrefsBackend,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.sqlDB = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sqlDB, nil
}

// TxManager returns the transaction manager. The bbolt backend commits each
// repository call on its own and gets a manager that runs fn directly.
func (c *Container) TxManager(ctx context.Context) (database.TxManager, error) {
	err := c.lazy(&c.txManagerInit, "txManager", func() error {
		if !c.usesSQL() {
			c.txManager = database.NopTxManager{}
			return nil
		}
		db, err := c.DB(ctx)
		if err != nil {
			return fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		c.txManager = database.NewTxManager(db)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.txManager, nil
}

// WrappedKeyRepository returns the store for KEK-wrapped data keys.
func (c *Container) WrappedKeyRepository(ctx context.Context) (cryptoService.WrappedKeyRepository, error) {
	err := c.lazy(&c.wrappedKeyRepoInit, "wrappedKeyRepo", func() error {
		switch c.config.PrefsBackend {
		case config.BackendPostgres, config.BackendMySQL:
			db, err := c.DB(ctx)
			if err != nil {
				return fmt.Errorf("failed to get database for wrapped key repository: %w", err)
			}
			if c.config.PrefsBackend == config.BackendPostgres {
				c.wrappedKeyRepo = cryptoRepository.NewPostgreSQLWrappedKeyRepository(db)
			} else {
				c.wrappedKeyRepo = cryptoRepository.NewMySQLWrappedKeyRepository(db)
			}
		case config.BackendBolt:
			db, err := c.BoltDB()
			if err != nil {
				return fmt.Errorf("failed to get bolt database for wrapped key repository: %w", err)
			}
			c.wrappedKeyRepo = cryptoRepository.NewBoltWrappedKeyRepository(db)
		default:
			return fmt.Errorf("unsupported storage backend: %s", c.config.PrefsBackend)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.wrappedKeyRepo, nil
}

// PreferenceRepository returns the store for sealed preference records.
func (c *Container) PreferenceRepository(ctx context.Context) (prefsUseCase.Repository, error) {
	err := c.lazy(&c.preferenceRepoInit, "preferenceRepo", func() error {
		switch c.config.PrefsBackend {
		case config.BackendPostgres, config.BackendMySQL:
			db, err := c.DB(ctx)
			if err != nil {
				return fmt.Errorf("failed to get database for preference repository: %w", err)
			}
			if c.config.PrefsBackend == config.BackendPostgres {
				c.preferenceRepo = prefsRepository.NewPostgreSQLPreferenceRepository(db)
			} else {
				c.preferenceRepo = prefsRepository.NewMySQLPreferenceRepository(db)
			}
		case config.BackendBolt:
			db, err := c.BoltDB()
			if err != nil {
				return fmt.Errorf("failed to get bolt database for preference repository: %w", err)
			}
			c.preferenceRepo = prefsRepository.NewBoltPreferenceRepository(db)
		default:
			return fmt.Errorf("unsupported storage backend: %s", c.config.PrefsBackend)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.preferenceRepo, nil
}

func (c *Container) usesSQL() bool {
	return c.config.PrefsBackend == config.BackendPostgres || c.config.PrefsBackend == config.BackendMySQL
}
