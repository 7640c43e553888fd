package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// EnvelopeKeyFacility implements KeyFacility with envelope encryption.
//
// Every alias owns a random 32-byte data key. The data key is wrapped by a
// KMS keeper (the key encryption key) and only the wrapped form is persisted.
// Unwrapped keys are turned into ciphers immediately and zeroed; the facility
// caches ciphers, never key bytes.
//
// Thread safety: all methods are safe for concurrent use. Generation for one
// alias is serialized so concurrent first use yields a single key.
type EnvelopeKeyFacility struct {
	keeper      cryptoDomain.KMSKeeper
	repo        WrappedKeyRepository
	aeadManager AEADManager
	presence    cryptoDomain.AuthPresence
	now         func() time.Time

	mu    sync.Mutex
	cache map[string]*keyHandle
}

// NewEnvelopeKeyFacility creates a facility. presence may be nil when no key
// is ever generated with RequiresRecentAuth.
func NewEnvelopeKeyFacility(
	keeper cryptoDomain.KMSKeeper,
	repo WrappedKeyRepository,
	aeadManager AEADManager,
	presence cryptoDomain.AuthPresence,
) *EnvelopeKeyFacility {
	return &EnvelopeKeyFacility{
		keeper:      keeper,
		repo:        repo,
		aeadManager: aeadManager,
		presence:    presence,
		now:         time.Now,
		cache:       make(map[string]*keyHandle),
	}
}

// Exists reports whether a key is stored under alias.
func (f *EnvelopeKeyFacility) Exists(ctx context.Context, alias string) (bool, error) {
	f.mu.Lock()
	_, cached := f.cache[alias]
	f.mu.Unlock()
	if cached {
		return true, nil
	}

	_, err := f.repo.Get(ctx, alias)
	if errors.Is(err, cryptoDomain.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Handle loads the key stored under alias.
func (f *EnvelopeKeyFacility) Handle(ctx context.Context, alias string) (KeyHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(ctx, alias)
}

// Generate returns the key stored under alias, creating it with spec first
// when absent.
func (f *EnvelopeKeyFacility) Generate(
	ctx context.Context,
	alias string,
	spec cryptoDomain.KeySpec,
) (KeyHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	handle, err := f.loadLocked(ctx, alias)
	if err == nil {
		return handle, nil
	}
	if !errors.Is(err, cryptoDomain.ErrKeyNotFound) {
		return nil, err
	}

	key := make([]byte, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(key)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	cipher, err := f.aeadManager.CreateCipher(key, spec.Algorithm)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := f.keeper.Encrypt(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrKeyWrapFailed, err)
	}

	wrapped := &cryptoDomain.WrappedKey{
		Alias:        alias,
		Algorithm:    spec.Algorithm,
		EncryptedKey: encryptedKey,
		RequiresAuth: spec.RequiresRecentAuth,
		AuthValidity: int64(spec.AuthValidity),
		CreatedAt:    f.now().UTC(),
	}
	if err := f.repo.Create(ctx, wrapped); err != nil {
		return nil, err
	}

	h := f.newHandle(cipher, wrapped.Spec())
	f.cache[alias] = h
	return h, nil
}

// Delete removes the key stored under alias. Deleting a missing key is not an error.
func (f *EnvelopeKeyFacility) Delete(ctx context.Context, alias string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.cache, alias)
	if err := f.repo.Delete(ctx, alias); err != nil && !errors.Is(err, cryptoDomain.ErrKeyNotFound) {
		return err
	}
	return nil
}

func (f *EnvelopeKeyFacility) loadLocked(ctx context.Context, alias string) (*keyHandle, error) {
	if h, ok := f.cache[alias]; ok {
		return h, nil
	}

	wrapped, err := f.repo.Get(ctx, alias)
	if err != nil {
		return nil, err
	}

	key, err := f.keeper.Decrypt(ctx, wrapped.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrKeyWrapFailed, err)
	}
	defer cryptoDomain.Zero(key)

	cipher, err := f.aeadManager.CreateCipher(key, wrapped.Algorithm)
	if err != nil {
		return nil, err
	}

	h := f.newHandle(cipher, wrapped.Spec())
	f.cache[alias] = h
	return h, nil
}

func (f *EnvelopeKeyFacility) newHandle(cipher AEAD, spec cryptoDomain.KeySpec) *keyHandle {
	return &keyHandle{
		cipher:   cipher,
		spec:     spec,
		presence: f.presence,
		now:      f.now,
	}
}
