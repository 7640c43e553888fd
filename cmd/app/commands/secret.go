package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/trustcore/internal/crypto/usecase"
)

// RunSecretEncrypt encrypts plaintext under keyAlias and prints the blob as
// standard base64. A plaintext of "-" is read from the input.
func RunSecretEncrypt(
	ctx context.Context,
	store cryptoUseCase.SecretStore,
	logger *slog.Logger,
	streams IOTuple,
	keyAlias string,
	plaintext string,
) error {
	value, err := readValue(streams.Reader, plaintext)
	if err != nil {
		return err
	}

	blob, err := store.Encrypt(ctx, []byte(value), keyAlias)
	if err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	logger.Info("secret encrypted", slog.String("key_alias", keyAlias))
	_, err = fmt.Fprintln(streams.Writer, base64.StdEncoding.EncodeToString(blob.Bytes()))
	return err
}

// RunSecretDecrypt decodes a base64 blob produced by RunSecretEncrypt and
// prints the plaintext.
func RunSecretDecrypt(
	ctx context.Context,
	store cryptoUseCase.SecretStore,
	logger *slog.Logger,
	writer io.Writer,
	keyAlias string,
	encoded string,
) error {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return fmt.Errorf("invalid blob encoding: %w", err)
	}
	blob, err := cryptoDomain.ParseEncryptedBlob(raw)
	if err != nil {
		return err
	}

	plaintext, err := store.Decrypt(ctx, blob, keyAlias)
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	logger.Info("secret decrypted", slog.String("key_alias", keyAlias))
	_, err = fmt.Fprintln(writer, string(plaintext))
	return err
}

// RunRotateKey deletes oldAlias and generates newAlias. Blobs sealed under
// oldAlias become undecryptable, so callers re-encrypt them first.
func RunRotateKey(
	ctx context.Context,
	store cryptoUseCase.SecretStore,
	logger *slog.Logger,
	writer io.Writer,
	oldAlias string,
	newAlias string,
) error {
	logger.Info("rotating key", slog.String("old_alias", oldAlias), slog.String("new_alias", newAlias))

	if err := store.RotateKey(ctx, oldAlias, newAlias); err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}

	_, err := fmt.Fprintf(writer, "Key rotated: %s -> %s\n", oldAlias, newAlias)
	return err
}

// RunDeleteKey deletes keyAlias. Deleting a missing key succeeds.
func RunDeleteKey(
	ctx context.Context,
	store cryptoUseCase.SecretStore,
	logger *slog.Logger,
	writer io.Writer,
	keyAlias string,
) error {
	if err := store.DeleteKey(ctx, keyAlias); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	logger.Info("key deleted", slog.String("key_alias", keyAlias))
	_, err := fmt.Fprintf(writer, "Key deleted: %s\n", keyAlias)
	return err
}
