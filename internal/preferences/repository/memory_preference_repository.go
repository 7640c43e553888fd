package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"

	prefsDomain "github.com/allisson/trustcore/internal/preferences/domain"
)

// MemoryPreferenceRepository keeps entries in process memory.
type MemoryPreferenceRepository struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryPreferenceRepository creates an empty repository.
func NewMemoryPreferenceRepository() *MemoryPreferenceRepository {
	return &MemoryPreferenceRepository{entries: make(map[string][]byte)}
}

func (r *MemoryPreferenceRepository) Get(_ context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payload, ok := r.entries[id]
	if !ok {
		return nil, prefsDomain.ErrRecordNotFound
	}
	return bytes.Clone(payload), nil
}

func (r *MemoryPreferenceRepository) Put(_ context.Context, id string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = bytes.Clone(payload)
	return nil
}

func (r *MemoryPreferenceRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

func (r *MemoryPreferenceRepository) List(_ context.Context) ([]prefsDomain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]prefsDomain.Entry, 0, len(r.entries))
	for id, payload := range r.entries {
		if id == prefsDomain.MetaRecordID {
			continue
		}
		entries = append(entries, prefsDomain.Entry{ID: id, Payload: bytes.Clone(payload)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (r *MemoryPreferenceRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.entries {
		if id != prefsDomain.MetaRecordID {
			delete(r.entries, id)
		}
	}
	return nil
}
