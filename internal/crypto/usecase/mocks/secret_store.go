// Package mocks provides mock implementations of the crypto use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// MockSecretStore is a mock implementation of SecretStore for testing.
type MockSecretStore struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of SecretStore.
func (m *MockSecretStore) Encrypt(
	ctx context.Context,
	plaintext []byte,
	keyAlias string,
) (cryptoDomain.EncryptedBlob, error) {
	args := m.Called(ctx, plaintext, keyAlias)
	return args.Get(0).(cryptoDomain.EncryptedBlob), args.Error(1)
}

// Decrypt mocks the Decrypt method of SecretStore.
func (m *MockSecretStore) Decrypt(
	ctx context.Context,
	blob cryptoDomain.EncryptedBlob,
	keyAlias string,
) ([]byte, error) {
	args := m.Called(ctx, blob, keyAlias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// DeleteKey mocks the DeleteKey method of SecretStore.
func (m *MockSecretStore) DeleteKey(ctx context.Context, keyAlias string) error {
	return m.Called(ctx, keyAlias).Error(0)
}

// RotateKey mocks the RotateKey method of SecretStore.
func (m *MockSecretStore) RotateKey(ctx context.Context, oldAlias, newAlias string) error {
	return m.Called(ctx, oldAlias, newAlias).Error(0)
}

// KeyExists mocks the KeyExists method of SecretStore.
func (m *MockSecretStore) KeyExists(ctx context.Context, keyAlias string) (bool, error) {
	args := m.Called(ctx, keyAlias)
	return args.Bool(0), args.Error(1)
}
