package repository

import (
	"context"
	"sync"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// MemoryWrappedKeyRepository keeps wrapped keys in process memory.
type MemoryWrappedKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]cryptoDomain.WrappedKey
}

// NewMemoryWrappedKeyRepository creates an empty repository.
func NewMemoryWrappedKeyRepository() *MemoryWrappedKeyRepository {
	return &MemoryWrappedKeyRepository{keys: make(map[string]cryptoDomain.WrappedKey)}
}

func (r *MemoryWrappedKeyRepository) Get(_ context.Context, alias string) (*cryptoDomain.WrappedKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[alias]
	if !ok {
		return nil, cryptoDomain.ErrKeyNotFound
	}
	key.EncryptedKey = append([]byte(nil), key.EncryptedKey...)
	return &key, nil
}

func (r *MemoryWrappedKeyRepository) Create(_ context.Context, key *cryptoDomain.WrappedKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key.Alias]; ok {
		return cryptoDomain.ErrKeyExists
	}
	stored := *key
	stored.EncryptedKey = append([]byte(nil), key.EncryptedKey...)
	r.keys[key.Alias] = stored
	return nil
}

func (r *MemoryWrappedKeyRepository) Delete(_ context.Context, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, alias)
	return nil
}
