// Package service provides the cryptographic primitives behind SecretStore:
// AEAD ciphers producing EncryptedBlob values, and the key facility that
// generates, wraps and caches per-alias data keys.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// AEAD seals and opens blobs with a single key.
type AEAD interface {
	// Seal encrypts plaintext under a fresh random nonce. The aad is
	// authenticated but not encrypted and may be nil.
	Seal(plaintext, aad []byte) (cryptoDomain.EncryptedBlob, error)

	// Open verifies the tag and decrypts. Any mismatch returns
	// cryptoDomain.ErrDecryptionFailed without a partial plaintext.
	Open(blob cryptoDomain.EncryptedBlob, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyHandle is an opaque usable key. It never exposes key bytes.
type KeyHandle interface {
	AEAD
	Spec() cryptoDomain.KeySpec
}

// KeyFacility owns per-alias keys. Implementations must be safe for
// concurrent use and must never generate two different keys for one alias.
type KeyFacility interface {
	Exists(ctx context.Context, alias string) (bool, error)
	// Generate returns the existing key for alias or creates one with spec.
	Generate(ctx context.Context, alias string, spec cryptoDomain.KeySpec) (KeyHandle, error)
	// Handle returns cryptoDomain.ErrKeyNotFound when alias has no key.
	Handle(ctx context.Context, alias string) (KeyHandle, error)
	// Delete is idempotent.
	Delete(ctx context.Context, alias string) error
}

// WrappedKeyRepository persists wrapped data keys by alias.
type WrappedKeyRepository interface {
	// Get returns cryptoDomain.ErrKeyNotFound when no key is stored.
	Get(ctx context.Context, alias string) (*cryptoDomain.WrappedKey, error)
	// Create fails with cryptoDomain.ErrKeyExists when alias is taken.
	Create(ctx context.Context, key *cryptoDomain.WrappedKey) error
	Delete(ctx context.Context, alias string) error
}
