package app

import (
	"fmt"
	"sync"

	trustDomain "github.com/allisson/trustcore/internal/trust/domain"
	trustService "github.com/allisson/trustcore/internal/trust/service"
)

type trustComponents struct {
	pinSet        *trustDomain.PinSet
	validator     *trustService.Validator
	clientFactory *trustService.ClientFactory
	discoverer    *trustService.PinDiscoverer

	pinSetInit        sync.Once
	validatorInit     sync.Once
	clientFactoryInit sync.Once
	discovererInit    sync.Once
}

// PinSet returns the pins loaded from TRUST_PIN_FILE. An unset file pins nothing.
func (c *Container) PinSet() (*trustDomain.PinSet, error) {
	err := c.lazy(&c.pinSetInit, "pinSet", func() error {
		pins, err := trustService.LoadPinSetFile(c.config.TrustPinFile)
		if err != nil {
			return fmt.Errorf("failed to load pin file: %w", err)
		}
		c.pinSet = pins
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.pinSet, nil
}

// TrustValidator returns the certificate chain and pin validator.
func (c *Container) TrustValidator() (*trustService.Validator, error) {
	err := c.lazy(&c.validatorInit, "validator", func() error {
		pins, err := c.PinSet()
		if err != nil {
			return err
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for trust validator: %w", err)
		}
		c.validator = trustService.NewValidator(pins, bus, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.validator, nil
}

// ClientFactory returns the factory every outbound HTTP client is built from.
func (c *Container) ClientFactory() (*trustService.ClientFactory, error) {
	err := c.lazy(&c.clientFactoryInit, "clientFactory", func() error {
		validator, err := c.TrustValidator()
		if err != nil {
			return fmt.Errorf("failed to get trust validator for client factory: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for client factory: %w", err)
		}
		c.clientFactory = trustService.NewClientFactory(
			validator,
			trustService.ClientOptions{Timeout: c.config.HTTPTimeout},
			bus,
			c.Logger(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.clientFactory, nil
}

// PinDiscoverer returns the development-only pin discovery helper.
func (c *Container) PinDiscoverer() *trustService.PinDiscoverer {
	c.discovererInit.Do(func() {
		c.discoverer = trustService.NewPinDiscoverer(
			c.config.TrustPinDiscoveryEnabled,
			c.config.Environment,
			c.config.HTTPTimeout,
			c.Logger(),
		)
	})
	return c.discoverer
}
