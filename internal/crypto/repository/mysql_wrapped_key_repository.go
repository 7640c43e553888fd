package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	"github.com/allisson/trustcore/internal/database"
	apperrors "github.com/allisson/trustcore/internal/errors"
)

// MySQLWrappedKeyRepository implements wrapped key persistence for MySQL.
//
// Schema (migrations/mysql): alias VARCHAR(64) PRIMARY KEY, algorithm
// VARCHAR(32), encrypted_key BLOB, requires_auth BOOLEAN, auth_validity_ns
// BIGINT, created_at DATETIME(6). The DSN must set parseTime=true.
type MySQLWrappedKeyRepository struct {
	db *sql.DB
}

// NewMySQLWrappedKeyRepository creates a new MySQL wrapped key repository.
func NewMySQLWrappedKeyRepository(db *sql.DB) *MySQLWrappedKeyRepository {
	return &MySQLWrappedKeyRepository{db: db}
}

// Get loads the wrapped key stored under alias.
func (m *MySQLWrappedKeyRepository) Get(ctx context.Context, alias string) (*cryptoDomain.WrappedKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT alias, algorithm, encrypted_key, requires_auth, auth_validity_ns, created_at
			  FROM wrapped_keys WHERE alias = ?`

	var key cryptoDomain.WrappedKey
	err := querier.QueryRowContext(ctx, query, alias).Scan(
		&key.Alias,
		&key.Algorithm,
		&key.EncryptedKey,
		&key.RequiresAuth,
		&key.AuthValidity,
		&key.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cryptoDomain.ErrKeyNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get wrapped key")
	}
	return &key, nil
}

// Create inserts a wrapped key. An existing alias yields cryptoDomain.ErrKeyExists.
func (m *MySQLWrappedKeyRepository) Create(ctx context.Context, key *cryptoDomain.WrappedKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT IGNORE INTO wrapped_keys (alias, algorithm, encrypted_key, requires_auth, auth_validity_ns, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	result, err := querier.ExecContext(
		ctx,
		query,
		key.Alias,
		key.Algorithm,
		key.EncryptedKey,
		key.RequiresAuth,
		key.AuthValidity,
		key.CreatedAt.In(time.UTC),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create wrapped key")
	}
	return checkInserted(result)
}

// Delete removes the wrapped key stored under alias.
func (m *MySQLWrappedKeyRepository) Delete(ctx context.Context, alias string) error {
	querier := database.GetTx(ctx, m.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM wrapped_keys WHERE alias = ?`, alias); err != nil {
		return apperrors.Wrap(err, "failed to delete wrapped key")
	}
	return nil
}
