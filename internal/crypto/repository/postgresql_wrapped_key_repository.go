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

// PostgreSQLWrappedKeyRepository implements wrapped key persistence for PostgreSQL.
//
// Schema (migrations/postgresql):
//   - alias: VARCHAR(64) PRIMARY KEY
//   - algorithm: VARCHAR(32)
//   - encrypted_key: BYTEA (KMS-wrapped data key)
//   - requires_auth: BOOLEAN
//   - auth_validity_ns: BIGINT
//   - created_at: TIMESTAMPTZ
//
// All methods honour a transaction carried in ctx via database.GetTx.
type PostgreSQLWrappedKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLWrappedKeyRepository creates a new PostgreSQL wrapped key repository.
func NewPostgreSQLWrappedKeyRepository(db *sql.DB) *PostgreSQLWrappedKeyRepository {
	return &PostgreSQLWrappedKeyRepository{db: db}
}

// Get loads the wrapped key stored under alias.
func (p *PostgreSQLWrappedKeyRepository) Get(ctx context.Context, alias string) (*cryptoDomain.WrappedKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT alias, algorithm, encrypted_key, requires_auth, auth_validity_ns, created_at
			  FROM wrapped_keys WHERE alias = $1`

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
func (p *PostgreSQLWrappedKeyRepository) Create(ctx context.Context, key *cryptoDomain.WrappedKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO wrapped_keys (alias, algorithm, encrypted_key, requires_auth, auth_validity_ns, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (alias) DO NOTHING`

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
func (p *PostgreSQLWrappedKeyRepository) Delete(ctx context.Context, alias string) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM wrapped_keys WHERE alias = $1`, alias); err != nil {
		return apperrors.Wrap(err, "failed to delete wrapped key")
	}
	return nil
}

func checkInserted(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return cryptoDomain.ErrKeyExists
	}
	return nil
}
