package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateLocalSecretsURI generates a base64key:// URI for testing.
func generateLocalSecretsURI(t *testing.T) string {
	t.Helper()
	return "base64key://" + base64.URLEncoding.EncodeToString(randomKey(t))
}

func TestKMSService_OpenKeeper(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()

	t.Run("Success_LocalSecrets", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() { assert.NoError(t, keeper.Close()) }()

		ciphertext, err := keeper.Encrypt(ctx, []byte("data key"))
		require.NoError(t, err)
		assert.NotEqual(t, []byte("data key"), ciphertext)

		plaintext, err := keeper.Decrypt(ctx, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, []byte("data key"), plaintext)
	})

	t.Run("Error_InvalidURI", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "invalid://uri")
		assert.Error(t, err)
		assert.Nil(t, keeper)
		assert.Contains(t, err.Error(), "failed to open KMS keeper")
	})

	t.Run("Error_EmptyURI", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "")
		assert.Error(t, err)
		assert.Nil(t, keeper)
	})

	t.Run("Error_DifferentKey", func(t *testing.T) {
		first, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() { assert.NoError(t, first.Close()) }()
		second, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() { assert.NoError(t, second.Close()) }()

		ciphertext, err := first.Encrypt(ctx, []byte("data key"))
		require.NoError(t, err)

		_, err = second.Decrypt(ctx, ciphertext)
		assert.Error(t, err)
	})
}
