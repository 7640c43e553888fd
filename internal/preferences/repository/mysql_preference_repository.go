package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/trustcore/internal/database"
	apperrors "github.com/allisson/trustcore/internal/errors"
	prefsDomain "github.com/allisson/trustcore/internal/preferences/domain"
)

// MySQLPreferenceRepository implements preference persistence for MySQL.
//
// Schema (migrations/mysql): id VARCHAR(64) PRIMARY KEY, payload BLOB,
// updated_at DATETIME(6).
type MySQLPreferenceRepository struct {
	db *sql.DB
}

// NewMySQLPreferenceRepository creates a new MySQL preference repository.
func NewMySQLPreferenceRepository(db *sql.DB) *MySQLPreferenceRepository {
	return &MySQLPreferenceRepository{db: db}
}

// Get returns the payload stored under id.
func (m *MySQLPreferenceRepository) Get(ctx context.Context, id string) ([]byte, error) {
	querier := database.GetTx(ctx, m.db)

	var payload []byte
	err := querier.QueryRowContext(ctx, `SELECT payload FROM preferences WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prefsDomain.ErrRecordNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get preference")
	}
	return payload, nil
}

// Put inserts or replaces the payload stored under id.
func (m *MySQLPreferenceRepository) Put(ctx context.Context, id string, payload []byte) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO preferences (id, payload, updated_at) VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`

	if _, err := querier.ExecContext(ctx, query, id, payload, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to put preference")
	}
	return nil
}

// Delete removes the entry stored under id.
func (m *MySQLPreferenceRepository) Delete(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, m.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM preferences WHERE id = ?`, id); err != nil {
		return apperrors.Wrap(err, "failed to delete preference")
	}
	return nil
}

// List returns every entry except the meta record, ordered by id.
func (m *MySQLPreferenceRepository) List(ctx context.Context) ([]prefsDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, `SELECT id, payload FROM preferences WHERE id <> ? ORDER BY id`, prefsDomain.MetaRecordID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list preferences")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanEntries(rows)
}

// Clear removes every entry except the meta record.
func (m *MySQLPreferenceRepository) Clear(ctx context.Context) error {
	querier := database.GetTx(ctx, m.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM preferences WHERE id <> ?`, prefsDomain.MetaRecordID); err != nil {
		return apperrors.Wrap(err, "failed to clear preferences")
	}
	return nil
}
