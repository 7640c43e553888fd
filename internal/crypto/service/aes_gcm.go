package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// aeadCipher adapts a cipher.AEAD with a 12-byte nonce and 16-byte tag to the
// blob layout.
type aeadCipher struct {
	aead cipher.AEAD
}

func (c *aeadCipher) Seal(plaintext, aad []byte) (cryptoDomain.EncryptedBlob, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return cryptoDomain.EncryptedBlob{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return cryptoDomain.BlobFromSealed(nonce, c.aead.Seal(nil, nonce, plaintext, aad))
}

func (c *aeadCipher) Open(blob cryptoDomain.EncryptedBlob, aad []byte) ([]byte, error) {
	iv := blob.IV()
	plaintext, err := c.aead.Open(nil, iv[:], blob.SealedWithTag(), aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// AESGCMCipher implements AEAD using AES-256-GCM.
//
// Each Seal draws a fresh 96-bit nonce from crypto/rand; the 128-bit tag
// authenticates both the ciphertext and the optional associated data.
//
// Thread safety: the cipher is stateless after construction and safe for
// concurrent use.
type AESGCMCipher struct {
	aeadCipher
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes. The caller may zero its copy of the key
// once this returns; the expanded key schedule lives inside the cipher.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aeadCipher{aead: aead}}, nil
}
