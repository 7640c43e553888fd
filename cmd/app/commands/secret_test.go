package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoMocks "github.com/allisson/trustcore/internal/crypto/usecase/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBlob(t *testing.T) cryptoDomain.EncryptedBlob {
	t.Helper()
	raw := make([]byte, cryptoDomain.IVSize+5+cryptoDomain.TagSize)
	for i := range raw {
		raw[i] = byte(i)
	}
	blob, err := cryptoDomain.ParseEncryptedBlob(raw)
	require.NoError(t, err)
	return blob
}

func TestRunSecretEncrypt(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	blob := testBlob(t)

	t.Run("argument plaintext", func(t *testing.T) {
		store := &cryptoMocks.MockSecretStore{}
		store.On("Encrypt", ctx, []byte("hello"), "api.token").Return(blob, nil)

		var out bytes.Buffer
		err := RunSecretEncrypt(ctx, store, logger, IOTuple{Writer: &out}, "api.token", "hello")

		require.NoError(t, err)
		require.Equal(t, base64.StdEncoding.EncodeToString(blob.Bytes())+"\n", out.String())
		store.AssertExpectations(t)
	})

	t.Run("plaintext from input", func(t *testing.T) {
		store := &cryptoMocks.MockSecretStore{}
		store.On("Encrypt", ctx, []byte("from stdin"), "api.token").Return(blob, nil)

		var out bytes.Buffer
		err := RunSecretEncrypt(
			ctx,
			store,
			logger,
			IOTuple{Reader: strings.NewReader("from stdin\n"), Writer: &out},
			"api.token",
			"-",
		)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		store := &cryptoMocks.MockSecretStore{}
		store.On("Encrypt", ctx, mock.Anything, "bad alias").
			Return(cryptoDomain.EncryptedBlob{}, cryptoDomain.ErrInvalidKeyAlias)

		err := RunSecretEncrypt(ctx, store, logger, IOTuple{Writer: &bytes.Buffer{}}, "bad alias", "x")

		require.ErrorIs(t, err, cryptoDomain.ErrInvalidKeyAlias)
	})
}

func TestRunSecretDecrypt(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	blob := testBlob(t)
	encoded := base64.StdEncoding.EncodeToString(blob.Bytes())

	t.Run("success", func(t *testing.T) {
		store := &cryptoMocks.MockSecretStore{}
		store.On("Decrypt", ctx, blob, "api.token").Return([]byte("hello"), nil)

		var out bytes.Buffer
		err := RunSecretDecrypt(ctx, store, logger, &out, "api.token", encoded+"\n")

		require.NoError(t, err)
		require.Equal(t, "hello\n", out.String())
		store.AssertExpectations(t)
	})

	t.Run("invalid base64", func(t *testing.T) {
		err := RunSecretDecrypt(ctx, &cryptoMocks.MockSecretStore{}, logger, &bytes.Buffer{}, "a", "%%%")
		require.ErrorContains(t, err, "invalid blob encoding")
	})

	t.Run("truncated blob", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("short"))
		err := RunSecretDecrypt(ctx, &cryptoMocks.MockSecretStore{}, logger, &bytes.Buffer{}, "a", short)
		require.ErrorIs(t, err, cryptoDomain.ErrMalformedBlob)
	})

	t.Run("authentication failure", func(t *testing.T) {
		store := &cryptoMocks.MockSecretStore{}
		store.On("Decrypt", ctx, blob, "api.token").Return(nil, cryptoDomain.ErrDecryptionFailed)

		var out bytes.Buffer
		err := RunSecretDecrypt(ctx, store, logger, &out, "api.token", encoded)

		require.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		require.Empty(t, out.String())
	})
}

func TestRunRotateKey(t *testing.T) {
	ctx := context.Background()

	store := &cryptoMocks.MockSecretStore{}
	store.On("RotateKey", ctx, "v1", "v2").Return(nil)

	var out bytes.Buffer
	require.NoError(t, RunRotateKey(ctx, store, discardLogger(), &out, "v1", "v2"))
	require.Equal(t, "Key rotated: v1 -> v2\n", out.String())
	store.AssertExpectations(t)
}

func TestRunDeleteKey(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store := &cryptoMocks.MockSecretStore{}
		store.On("DeleteKey", ctx, "v1").Return(nil)

		var out bytes.Buffer
		require.NoError(t, RunDeleteKey(ctx, store, discardLogger(), &out, "v1"))
		require.Equal(t, "Key deleted: v1\n", out.String())
	})

	t.Run("error", func(t *testing.T) {
		store := &cryptoMocks.MockSecretStore{}
		store.On("DeleteKey", ctx, "v1").Return(assertErr)

		err := RunDeleteKey(ctx, store, discardLogger(), &bytes.Buffer{}, "v1")
		require.ErrorIs(t, err, assertErr)
	})
}
