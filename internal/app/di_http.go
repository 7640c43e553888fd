package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/allisson/trustcore/internal/http"
)

type httpComponents struct {
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	httpServerInit    sync.Once
	metricsServerInit sync.Once
}

// HTTPServer returns the diagnostics server with its router configured.
// ctx bounds the lifetime of the rate limiter cleanup.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	err := c.lazy(&c.httpServerInit, "httpServer", func() error {
		scanner, err := c.IntegrityScanner(ctx)
		if err != nil {
			return fmt.Errorf("failed to get integrity scanner for http server: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for http server: %w", err)
		}
		prefs, err := c.PreferenceStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to get preference store for http server: %w", err)
		}
		tokens, err := c.TokenManager(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token manager for http server: %w", err)
		}
		policy, err := c.IntegrityPolicy()
		if err != nil {
			return fmt.Errorf("failed to get integrity policy for http server: %w", err)
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			return fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}

		server := http.NewServer(
			c.config.ServerHost,
			c.config.ServerPort,
			c.Logger(),
			scanner,
			bus,
			prefs,
			tokens,
			policy,
		)
		server.SetupRouter(ctx, c.config, provider)
		c.httpServer = server
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus scrape server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	err := c.lazy(&c.metricsServerInit, "metricsServer", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
		}
		if provider == nil {
			return nil
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}
