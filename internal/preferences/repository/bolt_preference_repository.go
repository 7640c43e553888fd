package repository

import (
	"bytes"
	"context"

	"go.etcd.io/bbolt"

	prefsDomain "github.com/allisson/trustcore/internal/preferences/domain"
)

// PreferencesBucket is the bbolt bucket holding preference entries.
var PreferencesBucket = []byte("preferences")

// BoltPreferenceRepository stores entries in a bbolt bucket.
type BoltPreferenceRepository struct {
	db *bbolt.DB
}

// NewBoltPreferenceRepository creates a repository. The PreferencesBucket must exist.
func NewBoltPreferenceRepository(db *bbolt.DB) *BoltPreferenceRepository {
	return &BoltPreferenceRepository{db: db}
}

func (r *BoltPreferenceRepository) Get(_ context.Context, id string) ([]byte, error) {
	var payload []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(PreferencesBucket).Get([]byte(id))
		if raw == nil {
			return prefsDomain.ErrRecordNotFound
		}
		// bbolt values are only valid inside the transaction
		payload = bytes.Clone(raw)
		return nil
	})
	return payload, err
}

func (r *BoltPreferenceRepository) Put(_ context.Context, id string, payload []byte) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(PreferencesBucket).Put([]byte(id), payload)
	})
}

func (r *BoltPreferenceRepository) Delete(_ context.Context, id string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(PreferencesBucket).Delete([]byte(id))
	})
}

func (r *BoltPreferenceRepository) List(_ context.Context) ([]prefsDomain.Entry, error) {
	var entries []prefsDomain.Entry
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(PreferencesBucket).ForEach(func(k, v []byte) error {
			if string(k) == prefsDomain.MetaRecordID {
				return nil
			}
			entries = append(entries, prefsDomain.Entry{ID: string(k), Payload: bytes.Clone(v)})
			return nil
		})
	})
	return entries, err
}

func (r *BoltPreferenceRepository) Clear(_ context.Context) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(PreferencesBucket)
		var ids [][]byte
		if err := b.ForEach(func(k, _ []byte) error {
			if string(k) != prefsDomain.MetaRecordID {
				ids = append(ids, bytes.Clone(k))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, id := range ids {
			if err := b.Delete(id); err != nil {
				return err
			}
		}
		return nil
	})
}
