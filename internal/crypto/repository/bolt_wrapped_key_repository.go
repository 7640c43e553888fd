package repository

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// KeysBucket is the bbolt bucket holding wrapped keys by alias.
var KeysBucket = []byte("keys")

// BoltWrappedKeyRepository stores CBOR-encoded wrapped keys in a bbolt bucket.
type BoltWrappedKeyRepository struct {
	db *bbolt.DB
}

// NewBoltWrappedKeyRepository creates a repository. The KeysBucket must exist.
func NewBoltWrappedKeyRepository(db *bbolt.DB) *BoltWrappedKeyRepository {
	return &BoltWrappedKeyRepository{db: db}
}

func (r *BoltWrappedKeyRepository) Get(_ context.Context, alias string) (*cryptoDomain.WrappedKey, error) {
	var key cryptoDomain.WrappedKey
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(KeysBucket).Get([]byte(alias))
		if raw == nil {
			return cryptoDomain.ErrKeyNotFound
		}
		return cbor.Unmarshal(raw, &key)
	})
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *BoltWrappedKeyRepository) Create(_ context.Context, key *cryptoDomain.WrappedKey) error {
	raw, err := cbor.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to encode wrapped key: %w", err)
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(KeysBucket)
		if b.Get([]byte(key.Alias)) != nil {
			return cryptoDomain.ErrKeyExists
		}
		return b.Put([]byte(key.Alias), raw)
	})
}

func (r *BoltWrappedKeyRepository) Delete(_ context.Context, alias string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(KeysBucket).Delete([]byte(alias))
	})
}
