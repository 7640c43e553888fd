package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	"github.com/allisson/trustcore/internal/metrics"
)

// secretStoreWithMetrics decorates SecretStore with metrics instrumentation.
type secretStoreWithMetrics struct {
	next    SecretStore
	metrics metrics.BusinessMetrics
}

// NewSecretStoreWithMetrics wraps a SecretStore with metrics recording.
func NewSecretStoreWithMetrics(store SecretStore, m metrics.BusinessMetrics) SecretStore {
	return &secretStoreWithMetrics{
		next:    store,
		metrics: m,
	}
}

func (s *secretStoreWithMetrics) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "crypto", operation, status)
	s.metrics.RecordDuration(ctx, "crypto", operation, time.Since(start), status)
}

// Encrypt records metrics for encryption operations.
func (s *secretStoreWithMetrics) Encrypt(
	ctx context.Context,
	plaintext []byte,
	keyAlias string,
) (cryptoDomain.EncryptedBlob, error) {
	start := time.Now()
	blob, err := s.next.Encrypt(ctx, plaintext, keyAlias)
	s.observe(ctx, "secret_encrypt", start, err)
	return blob, err
}

// Decrypt records metrics for decryption operations.
func (s *secretStoreWithMetrics) Decrypt(
	ctx context.Context,
	blob cryptoDomain.EncryptedBlob,
	keyAlias string,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := s.next.Decrypt(ctx, blob, keyAlias)
	s.observe(ctx, "secret_decrypt", start, err)
	return plaintext, err
}

// DeleteKey records metrics for key deletion.
func (s *secretStoreWithMetrics) DeleteKey(ctx context.Context, keyAlias string) error {
	start := time.Now()
	err := s.next.DeleteKey(ctx, keyAlias)
	s.observe(ctx, "key_delete", start, err)
	return err
}

// RotateKey records metrics for key rotation.
func (s *secretStoreWithMetrics) RotateKey(ctx context.Context, oldAlias, newAlias string) error {
	start := time.Now()
	err := s.next.RotateKey(ctx, oldAlias, newAlias)
	s.observe(ctx, "key_rotate", start, err)
	return err
}

// KeyExists is not instrumented.
func (s *secretStoreWithMetrics) KeyExists(ctx context.Context, keyAlias string) (bool, error) {
	return s.next.KeyExists(ctx, keyAlias)
}
