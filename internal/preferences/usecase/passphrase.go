package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	apperrors "github.com/allisson/trustcore/internal/errors"
	prefsDomain "github.com/allisson/trustcore/internal/preferences/domain"
)

const passphraseBytes = 32

type passphraseProvider struct {
	store     SecurePreferenceStore
	publisher eventsDomain.Publisher
	mu        sync.Mutex
}

// NewPassphraseProvider creates a provider keeping the local database
// passphrase under prefsDomain.KeyDatabasePassphrase.
func NewPassphraseProvider(store SecurePreferenceStore, publisher eventsDomain.Publisher) PassphraseProvider {
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &passphraseProvider{store: store, publisher: publisher}
}

// Passphrase returns the stored passphrase, generating one on first use.
func (p *passphraseProvider) Passphrase(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.store.GetString(ctx, prefsDomain.KeyDatabasePassphrase, "")
	if err != nil {
		return "", err
	}
	if current != "" {
		return current, nil
	}

	generated, err := generatePassphrase()
	if err != nil {
		return "", err
	}
	if err := p.store.PutString(ctx, prefsDomain.KeyDatabasePassphrase, generated); err != nil {
		return "", err
	}
	p.publisher.Publish(eventsDomain.CryptoOperation("generate_passphrase", true))
	return generated, nil
}

// Rotate replaces the passphrase. The caller re-keys the database with the
// returned pair.
func (p *passphraseProvider) Rotate(ctx context.Context) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	old, err := p.store.GetString(ctx, prefsDomain.KeyDatabasePassphrase, "")
	if err != nil {
		return "", "", err
	}
	generated, err := generatePassphrase()
	if err != nil {
		return "", "", err
	}
	if err := p.store.PutString(ctx, prefsDomain.KeyDatabasePassphrase, generated); err != nil {
		return "", "", err
	}
	p.publisher.Publish(eventsDomain.CryptoOperation("rotate_passphrase", true))
	return old, generated, nil
}

func generatePassphrase() (string, error) {
	buf := make([]byte, passphraseBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.Wrap(err, "failed to generate passphrase")
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
