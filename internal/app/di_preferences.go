package app

import (
	"context"
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	prefsUseCase "github.com/allisson/trustcore/internal/preferences/usecase"
)

type preferencesComponents struct {
	preferenceStore    prefsUseCase.SecurePreferenceStore
	passphraseProvider prefsUseCase.PassphraseProvider

	preferenceStoreInit    sync.Once
	passphraseProviderInit sync.Once
}

// PreferenceStore returns the encrypted preference store.
func (c *Container) PreferenceStore(ctx context.Context) (prefsUseCase.SecurePreferenceStore, error) {
	err := c.lazy(&c.preferenceStoreInit, "preferenceStore", func() error {
		repo, err := c.PreferenceRepository(ctx)
		if err != nil {
			return fmt.Errorf("failed to get preference repository for preference store: %w", err)
		}
		secrets, err := c.SecretStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to get secret store for preference store: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for preference store: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return fmt.Errorf("failed to get business metrics for preference store: %w", err)
		}

		store := prefsUseCase.NewSecurePreferenceStore(
			repo,
			secrets,
			c.AEADManager(),
			cryptoDomain.Algorithm(c.config.PrefsAlgorithm),
			bus,
			c.Logger(),
		)
		c.preferenceStore = prefsUseCase.NewSecurePreferenceStoreWithMetrics(store, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.preferenceStore, nil
}

// PassphraseProvider returns the local database passphrase manager.
func (c *Container) PassphraseProvider(ctx context.Context) (prefsUseCase.PassphraseProvider, error) {
	err := c.lazy(&c.passphraseProviderInit, "passphraseProvider", func() error {
		store, err := c.PreferenceStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to get preference store for passphrase provider: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for passphrase provider: %w", err)
		}
		c.passphraseProvider = prefsUseCase.NewPassphraseProvider(store, bus)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.passphraseProvider, nil
}
