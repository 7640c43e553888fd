package service

import (
	"time"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// keyHandle binds a cipher to the spec it was generated with. The raw key is
// not retained.
type keyHandle struct {
	cipher   AEAD
	spec     cryptoDomain.KeySpec
	presence cryptoDomain.AuthPresence
	now      func() time.Time
}

func (h *keyHandle) Spec() cryptoDomain.KeySpec {
	return h.spec
}

func (h *keyHandle) Seal(plaintext, aad []byte) (cryptoDomain.EncryptedBlob, error) {
	if err := h.authorize(); err != nil {
		return cryptoDomain.EncryptedBlob{}, err
	}
	return h.cipher.Seal(plaintext, aad)
}

func (h *keyHandle) Open(blob cryptoDomain.EncryptedBlob, aad []byte) ([]byte, error) {
	if err := h.authorize(); err != nil {
		return nil, err
	}
	return h.cipher.Open(blob, aad)
}

func (h *keyHandle) authorize() error {
	if !h.spec.RequiresRecentAuth {
		return nil
	}
	if h.presence == nil {
		return cryptoDomain.ErrKeyAuthRequired
	}
	last, ok := h.presence.LastAuthenticated()
	if !ok || h.now().Sub(last) > h.spec.AuthValidity {
		return cryptoDomain.ErrKeyAuthRequired
	}
	return nil
}
