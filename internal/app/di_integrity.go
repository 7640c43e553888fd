package app

import (
	"context"
	"fmt"
	"sync"

	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
	integrityService "github.com/allisson/trustcore/internal/integrity/service"
	integrityUseCase "github.com/allisson/trustcore/internal/integrity/usecase"
)

// procMount is where procfs is read from.
const procMount = "/proc"

type integrityComponents struct {
	integrityChecks []integrityService.Check
	scanner         integrityUseCase.Scanner
	policy          integrityDomain.Policy

	integrityChecksInit sync.Once
	scannerInit         sync.Once
	policyInit          sync.Once
}

// IntegrityChecks returns the heuristics run against this process and host.
func (c *Container) IntegrityChecks() ([]integrityService.Check, error) {
	err := c.lazy(&c.integrityChecksInit, "integrityChecks", func() error {
		digests, err := c.config.ExpectedSignatureDigests()
		if err != nil {
			return err
		}
		c.integrityChecks = integrityService.DefaultChecks(
			integrityService.NewHost(procMount),
			integrityService.CheckConfig{
				TrustedInstallers:  c.config.IntegrityTrustedInstaller,
				ExpectedSignatures: digests,
			},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.integrityChecks, nil
}

// IntegrityScanner returns the scanner, instrumented with business metrics.
func (c *Container) IntegrityScanner(ctx context.Context) (integrityUseCase.Scanner, error) {
	err := c.lazy(&c.scannerInit, "scanner", func() error {
		checks, err := c.IntegrityChecks()
		if err != nil {
			return fmt.Errorf("failed to get integrity checks for scanner: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for scanner: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return fmt.Errorf("failed to get business metrics for scanner: %w", err)
		}

		scanner := integrityUseCase.NewScanner(checks, c.WorkerPool(ctx), bus, c.Logger())
		c.scanner = integrityUseCase.NewScannerWithMetrics(scanner, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.scanner, nil
}

// IntegrityPolicy returns the policy configured by INTEGRITY_POLICY.
func (c *Container) IntegrityPolicy() (integrityDomain.Policy, error) {
	err := c.lazy(&c.policyInit, "policy", func() error {
		mode, err := integrityDomain.ParsePolicyMode(c.config.IntegrityPolicy)
		if err != nil {
			return err
		}
		c.policy = integrityDomain.Policy{Mode: mode}
		return nil
	})
	if err != nil {
		return integrityDomain.Policy{}, err
	}
	return c.policy, nil
}
