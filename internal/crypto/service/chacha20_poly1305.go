package service

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// ChaCha20Poly1305Cipher implements AEAD using ChaCha20-Poly1305.
//
// It produces the same blob layout as AESGCMCipher and is offered for the
// preference store on hosts without AES acceleration.
type ChaCha20Poly1305Cipher struct {
	aeadCipher
}

// NewChaCha20Poly1305 creates a new ChaCha20-Poly1305 cipher instance.
// The key must be exactly 32 bytes.
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305Cipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &ChaCha20Poly1305Cipher{aeadCipher{aead: aead}}, nil
}
