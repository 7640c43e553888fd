// Package usecase implements SecretStore: authenticated encryption of opaque
// values under named keys that never leave the key facility.
package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// SecretStore encrypts and decrypts values under named keys.
//
// Encrypt creates the key on first use. Decrypt fails with
// cryptoDomain.ErrKeyNotFound when the key is missing and
// cryptoDomain.ErrDecryptionFailed on any authentication failure.
// RotateKey deletes oldAlias and generates newAlias without re-encrypting
// existing blobs; callers must re-encrypt before rotating.
type SecretStore interface {
	Encrypt(ctx context.Context, plaintext []byte, keyAlias string) (cryptoDomain.EncryptedBlob, error)
	Decrypt(ctx context.Context, blob cryptoDomain.EncryptedBlob, keyAlias string) ([]byte, error)
	DeleteKey(ctx context.Context, keyAlias string) error
	RotateKey(ctx context.Context, oldAlias, newAlias string) error
	KeyExists(ctx context.Context, keyAlias string) (bool, error)
}
