package app

import (
	"context"
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	cryptoUseCase "github.com/allisson/trustcore/internal/crypto/usecase"
	apperrors "github.com/allisson/trustcore/internal/errors"
)

type cryptoComponents struct {
	kmsService  cryptoService.KMSService
	kmsKeeper   cryptoDomain.KMSKeeper
	aeadManager cryptoService.AEADManager
	keyFacility cryptoService.KeyFacility
	secretStore cryptoUseCase.SecretStore

	kmsServiceInit  sync.Once
	kmsKeeperInit   sync.Once
	aeadManagerInit sync.Once
	keyFacilityInit sync.Once
	secretStoreInit sync.Once
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KMSKeeper returns the keeper holding the key encryption key named by KEK_URI.
func (c *Container) KMSKeeper(ctx context.Context) (cryptoDomain.KMSKeeper, error) {
	err := c.lazy(&c.kmsKeeperInit, "kmsKeeper", func() error {
		if c.config.KEKURI == "" {
			return apperrors.Wrap(apperrors.ErrInvalidInput, "KEK_URI is required, generate one with create-kek")
		}
		keeper, err := c.KMSService().OpenKeeper(ctx, c.config.KEKURI)
		if err != nil {
			return err
		}
		c.kmsKeeper = keeper
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.kmsKeeper, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyFacility returns the envelope key facility backed by the KEK and the
// wrapped key repository.
func (c *Container) KeyFacility(ctx context.Context) (cryptoService.KeyFacility, error) {
	err := c.lazy(&c.keyFacilityInit, "keyFacility", func() error {
		keeper, err := c.KMSKeeper(ctx)
		if err != nil {
			return fmt.Errorf("failed to get kms keeper for key facility: %w", err)
		}
		repo, err := c.WrappedKeyRepository(ctx)
		if err != nil {
			return fmt.Errorf("failed to get wrapped key repository for key facility: %w", err)
		}
		c.keyFacility = cryptoService.NewEnvelopeKeyFacility(keeper, repo, c.AEADManager(), nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.keyFacility, nil
}

// SecretStore returns the secret store, instrumented with business metrics.
func (c *Container) SecretStore(ctx context.Context) (cryptoUseCase.SecretStore, error) {
	err := c.lazy(&c.secretStoreInit, "secretStore", func() error {
		facility, err := c.KeyFacility(ctx)
		if err != nil {
			return fmt.Errorf("failed to get key facility for secret store: %w", err)
		}
		txManager, err := c.TxManager(ctx)
		if err != nil {
			return fmt.Errorf("failed to get tx manager for secret store: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for secret store: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return fmt.Errorf("failed to get business metrics for secret store: %w", err)
		}

		store := cryptoUseCase.NewSecretStore(facility, cryptoDomain.DefaultKeySpec(), txManager, bus, c.Logger())
		c.secretStore = cryptoUseCase.NewSecretStoreWithMetrics(store, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.secretStore, nil
}
