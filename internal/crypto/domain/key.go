package domain

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/trustcore/internal/errors"
	customValidation "github.com/allisson/trustcore/internal/validation"
)

// KeySpec describes how a key is generated and what its use requires.
type KeySpec struct {
	Algorithm            Algorithm
	RandomizedEncryption bool
	// RequiresRecentAuth makes the key unusable unless the AuthPresence
	// collaborator reports a user authentication within AuthValidity.
	RequiresRecentAuth bool
	AuthValidity       time.Duration
}

// DefaultKeySpec is used for every key unless the caller opts in to
// authentication-bound keys.
func DefaultKeySpec() KeySpec {
	return KeySpec{
		Algorithm:            AESGCM,
		RandomizedEncryption: true,
	}
}

// WrappedKey is a data key encrypted by the key encryption key, as persisted.
// The plaintext key never leaves the key facility.
type WrappedKey struct {
	Alias        string    `cbor:"1,keyasint"`
	Algorithm    Algorithm `cbor:"2,keyasint"`
	EncryptedKey []byte    `cbor:"3,keyasint"`
	RequiresAuth bool      `cbor:"4,keyasint"`
	AuthValidity int64     `cbor:"5,keyasint"`
	CreatedAt    time.Time `cbor:"6,keyasint"`
}

// Spec reconstructs the KeySpec the key was generated with.
func (w *WrappedKey) Spec() KeySpec {
	return KeySpec{
		Algorithm:            w.Algorithm,
		RandomizedEncryption: true,
		RequiresRecentAuth:   w.RequiresAuth,
		AuthValidity:         time.Duration(w.AuthValidity),
	}
}

// KMSKeeper is the subset of gocloud.dev/secrets.Keeper used to wrap data keys.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// AuthPresence reports when the user last authenticated on this device.
type AuthPresence interface {
	LastAuthenticated() (time.Time, bool)
}

// ValidateAlias checks an alias is 1-64 characters of [A-Za-z0-9._-].
func ValidateAlias(alias string) error {
	if err := validation.Validate(alias, validation.Required, customValidation.KeyAlias); err != nil {
		return errors.Wrap(ErrInvalidKeyAlias, err.Error())
	}
	return nil
}
