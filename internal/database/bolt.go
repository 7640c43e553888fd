package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// BoltFileName is the database file created inside the data directory.
const BoltFileName = "trustcore.db"

// OpenBolt opens (creating when needed) the local bbolt database under
// dataDir and ensures the given buckets exist.
func OpenBolt(dataDir string, buckets ...[]byte) (*bbolt.DB, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataDir, BoltFileName), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	if err := EnsureBuckets(db, buckets...); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureBuckets creates any missing top-level buckets.
func EnsureBuckets(db *bbolt.DB, buckets ...[]byte) error {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create buckets: %w", err)
	}
	return nil
}
