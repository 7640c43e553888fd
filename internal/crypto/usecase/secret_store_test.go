package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	"github.com/allisson/trustcore/internal/crypto/repository"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []eventsDomain.SecurityEvent
}

func (p *capturePublisher) Publish(event eventsDomain.SecurityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) snapshot() []eventsDomain.SecurityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventsDomain.SecurityEvent(nil), p.events...)
}

type recordingTxManager struct {
	calls int
	err   error
}

func (m *recordingTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

func newTestStore(t *testing.T) (SecretStore, *capturePublisher) {
	t.Helper()
	return newTestStoreWithTx(t, nil)
}

func newTestStoreWithTx(t *testing.T, txManager *recordingTxManager) (SecretStore, *capturePublisher) {
	t.Helper()

	key, err := localsecrets.NewRandomKey()
	require.NoError(t, err)
	keeper := localsecrets.NewKeeper(key)
	t.Cleanup(func() { _ = keeper.Close() })

	facility := cryptoService.NewEnvelopeKeyFacility(
		keeper,
		repository.NewMemoryWrappedKeyRepository(),
		cryptoService.NewAEADManager(),
		nil,
	)
	publisher := &capturePublisher{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	if txManager == nil {
		return NewSecretStore(facility, cryptoDomain.DefaultKeySpec(), nil, publisher, logger), publisher
	}
	return NewSecretStore(facility, cryptoDomain.DefaultKeySpec(), txManager, publisher, logger), publisher
}

func TestSecretStore_EncryptDecrypt(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for _, plaintext := range [][]byte{{}, []byte("x"), []byte("a longer secret value"), bytes.Repeat([]byte{0xAB}, 4096)} {
		blob, err := store.Encrypt(ctx, plaintext, "secrets")
		require.NoError(t, err)
		assert.Len(t, blob.Bytes(), cryptoDomain.IVSize+len(plaintext)+cryptoDomain.TagSize)

		decrypted, err := store.Decrypt(ctx, blob, "secrets")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(plaintext, decrypted))
	}
}

func TestSecretStore_Decrypt(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		store, _ := newTestStore(t)
		blob, err := store.Encrypt(ctx, []byte("v"), "first")
		require.NoError(t, err)

		_, err = store.Decrypt(ctx, blob, "second")
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)

		exists, err := store.KeyExists(ctx, "second")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("tampered blob", func(t *testing.T) {
		store, _ := newTestStore(t)
		blob, err := store.Encrypt(ctx, []byte("value"), "secrets")
		require.NoError(t, err)

		data := blob.Bytes()
		data[len(data)-1] ^= 0x01
		tampered, err := cryptoDomain.ParseEncryptedBlob(data)
		require.NoError(t, err)

		plaintext, err := store.Decrypt(ctx, tampered, "secrets")
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, plaintext)
	})

	t.Run("blob from another key", func(t *testing.T) {
		store, _ := newTestStore(t)
		blob, err := store.Encrypt(ctx, []byte("value"), "first")
		require.NoError(t, err)
		_, err = store.Encrypt(ctx, []byte("other"), "second")
		require.NoError(t, err)

		_, err = store.Decrypt(ctx, blob, "second")
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}

func TestSecretStore_KeyLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	blob, err := store.Encrypt(ctx, []byte("value"), "old")
	require.NoError(t, err)

	exists, err := store.KeyExists(ctx, "old")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.RotateKey(ctx, "old", "new"))

	exists, err = store.KeyExists(ctx, "old")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.KeyExists(ctx, "new")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.Decrypt(ctx, blob, "old")
	assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)
	_, err = store.Decrypt(ctx, blob, "new")
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

	require.NoError(t, store.DeleteKey(ctx, "new"))
	require.NoError(t, store.DeleteKey(ctx, "new"))
}

func TestSecretStore_RotateKeyRunsInTransaction(t *testing.T) {
	ctx := context.Background()

	txManager := &recordingTxManager{}
	store, _ := newTestStoreWithTx(t, txManager)
	_, err := store.Encrypt(ctx, []byte("v"), "old")
	require.NoError(t, err)

	require.NoError(t, store.RotateKey(ctx, "old", "new"))
	assert.Equal(t, 1, txManager.calls)

	failing := &recordingTxManager{err: errors.New("begin failed")}
	store, _ = newTestStoreWithTx(t, failing)
	_, err = store.Encrypt(ctx, []byte("v"), "old")
	require.NoError(t, err)

	assert.EqualError(t, store.RotateKey(ctx, "old", "new"), "begin failed")
	exists, err := store.KeyExists(ctx, "old")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSecretStore_InvalidAlias(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Encrypt(ctx, []byte("v"), "")
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeyAlias)

	_, err = store.Decrypt(ctx, cryptoDomain.EncryptedBlob{}, "bad alias")
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeyAlias)

	assert.ErrorIs(t, store.DeleteKey(ctx, "a/b"), cryptoDomain.ErrInvalidKeyAlias)
	assert.ErrorIs(t, store.RotateKey(ctx, "ok", "not ok"), cryptoDomain.ErrInvalidKeyAlias)

	_, err = store.KeyExists(ctx, "")
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeyAlias)
}

func TestSecretStore_Events(t *testing.T) {
	ctx := context.Background()
	store, publisher := newTestStore(t)

	blob, err := store.Encrypt(ctx, []byte("top secret plaintext"), "payments-key")
	require.NoError(t, err)
	_, err = store.Decrypt(ctx, blob, "payments-key")
	require.NoError(t, err)
	_, err = store.Decrypt(ctx, blob, "missing-key")
	require.Error(t, err)

	events := publisher.snapshot()
	require.Len(t, events, 3)

	assert.Equal(t, map[string]string{"operation": "encrypt", "success": "true"}, events[0].Details)
	assert.Equal(t, map[string]string{"operation": "decrypt", "success": "true"}, events[1].Details)
	assert.Equal(t, map[string]string{"operation": "decrypt", "success": "false"}, events[2].Details)
	assert.Equal(t, eventsDomain.LevelError, events[2].Level)

	for _, event := range events {
		assert.Equal(t, eventsDomain.Encryption, event.Type)
		assert.NotContains(t, event.Message, "payments-key")
		assert.NotContains(t, event.Message, "top secret")
	}
}
