// Package usecase implements SecurePreferenceStore: a typed key/value store
// whose keys and values are encrypted at rest.
package usecase

import (
	"context"

	prefsDomain "github.com/allisson/trustcore/internal/preferences/domain"
)

// Repository persists encrypted entries by opaque id.
type Repository interface {
	// Get returns prefsDomain.ErrRecordNotFound for an unknown id.
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, payload []byte) error
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	// List returns every entry except the meta record.
	List(ctx context.Context) ([]prefsDomain.Entry, error)
	// Clear removes every entry except the meta record.
	Clear(ctx context.Context) error
}

// SecurePreferenceStore is a typed preference store encrypted at rest.
//
// Getters return def when the key is absent or holds a value of another
// type. Errors are returned only for storage or decryption failures.
type SecurePreferenceStore interface {
	PutString(ctx context.Context, key, value string) error
	PutBool(ctx context.Context, key string, value bool) error
	PutInt(ctx context.Context, key string, value int32) error
	PutLong(ctx context.Context, key string, value int64) error

	GetString(ctx context.Context, key, def string) (string, error)
	GetBool(ctx context.Context, key string, def bool) (bool, error)
	GetInt(ctx context.Context, key string, def int32) (int32, error)
	GetLong(ctx context.Context, key string, def int64) (int64, error)

	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Contains(ctx context.Context, key string) (bool, error)

	// Keys returns every stored key name, sorted.
	Keys(ctx context.Context) ([]string, error)
	// Dump returns the stored values rendered as strings, excluding the
	// reserved sensitive keys.
	Dump(ctx context.Context) (map[string]string, error)
}

// PassphraseProvider manages the local database passphrase.
type PassphraseProvider interface {
	Passphrase(ctx context.Context) (string, error)
	Rotate(ctx context.Context) (oldPassphrase, newPassphrase string, err error)
}
