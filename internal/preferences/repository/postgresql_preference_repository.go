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

// PostgreSQLPreferenceRepository implements preference persistence for PostgreSQL.
//
// Schema (migrations/postgresql): id VARCHAR(64) PRIMARY KEY, payload BYTEA,
// updated_at TIMESTAMPTZ. All methods honour a transaction carried in ctx.
type PostgreSQLPreferenceRepository struct {
	db *sql.DB
}

// NewPostgreSQLPreferenceRepository creates a new PostgreSQL preference repository.
func NewPostgreSQLPreferenceRepository(db *sql.DB) *PostgreSQLPreferenceRepository {
	return &PostgreSQLPreferenceRepository{db: db}
}

// Get returns the payload stored under id.
func (p *PostgreSQLPreferenceRepository) Get(ctx context.Context, id string) ([]byte, error) {
	querier := database.GetTx(ctx, p.db)

	var payload []byte
	err := querier.QueryRowContext(ctx, `SELECT payload FROM preferences WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prefsDomain.ErrRecordNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get preference")
	}
	return payload, nil
}

// Put inserts or replaces the payload stored under id.
func (p *PostgreSQLPreferenceRepository) Put(ctx context.Context, id string, payload []byte) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO preferences (id, payload, updated_at) VALUES ($1, $2, $3)
			  ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	if _, err := querier.ExecContext(ctx, query, id, payload, time.Now().UTC()); err != nil {
		return apperrors.Wrap(err, "failed to put preference")
	}
	return nil
}

// Delete removes the entry stored under id.
func (p *PostgreSQLPreferenceRepository) Delete(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM preferences WHERE id = $1`, id); err != nil {
		return apperrors.Wrap(err, "failed to delete preference")
	}
	return nil
}

// List returns every entry except the meta record, ordered by id.
func (p *PostgreSQLPreferenceRepository) List(ctx context.Context) ([]prefsDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, `SELECT id, payload FROM preferences WHERE id <> $1 ORDER BY id`, prefsDomain.MetaRecordID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list preferences")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanEntries(rows)
}

// Clear removes every entry except the meta record.
func (p *PostgreSQLPreferenceRepository) Clear(ctx context.Context) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM preferences WHERE id <> $1`, prefsDomain.MetaRecordID); err != nil {
		return apperrors.Wrap(err, "failed to clear preferences")
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]prefsDomain.Entry, error) {
	var entries []prefsDomain.Entry
	for rows.Next() {
		var entry prefsDomain.Entry
		if err := rows.Scan(&entry.ID, &entry.Payload); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
