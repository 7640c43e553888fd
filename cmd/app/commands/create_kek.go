package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
)

// kekSize is the length of a local key encryption key.
const kekSize = 32

// RunCreateKek generates a random 32-byte key encryption key for the
// localsecrets provider and prints it as a KEK_URI assignment. The URI is
// opened and round-tripped before it is printed. Key material is zeroed
// from memory after encoding.
//
// Security: never use localsecrets in production. Point KEK_URI at a cloud
// KMS key (gcpkms, awskms, azurekeyvault, hashivault) instead.
func RunCreateKek(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
) error {
	key := make([]byte, kekSize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate KEK: %w", err)
	}
	uri := "base64key://" + base64.URLEncoding.EncodeToString(key)
	for i := range key {
		key[i] = 0
	}

	keeper, err := kmsService.OpenKeeper(ctx, uri)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	probe := []byte("trustcore-kek-probe")
	ciphertext, err := keeper.Encrypt(ctx, probe)
	if err != nil {
		return fmt.Errorf("failed to verify KEK: %w", err)
	}
	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil || !bytes.Equal(plaintext, probe) {
		return fmt.Errorf("failed to verify KEK round trip")
	}

	logger.Info("KEK generated")

	_, _ = fmt.Fprintln(writer, "# Local key encryption key (development only)")
	_, _ = fmt.Fprintln(writer, "# Copy this variable to your .env file or secrets manager")
	_, err = fmt.Fprintf(writer, "KEK_URI=\"%s\"\n", uri)
	return err
}
