// Package app provides the dependency injection container that assembles
// trustcore components from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/allisson/trustcore/internal/config"
	apperrors "github.com/allisson/trustcore/internal/errors"
	eventsService "github.com/allisson/trustcore/internal/events/service"
	"github.com/allisson/trustcore/internal/metrics"
	"github.com/allisson/trustcore/internal/worker"
)

// sentryFlushTimeout bounds how long Shutdown waits for queued reports.
const sentryFlushTimeout = 2 * time.Second

// Container holds all application dependencies and provides methods to access them.
// Components are created on first access; an initialization error is cached
// and returned on every later access.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	eventBus        *eventsService.Bus
	sentryReporter  *eventsService.SentryReporter
	pool            *worker.Pool

	// Storage, crypto, preferences, trust, auth, integrity and servers live
	// in the component fields declared next to their getters.
	storageComponents
	cryptoComponents
	preferencesComponents
	trustComponents
	authComponents
	integrityComponents
	httpComponents

	mu                  sync.Mutex
	loggerInit          sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	eventBusInit        sync.Once
	poolInit            sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// lazy runs init once under name and returns the cached error afterwards.
func (c *Container) lazy(once *sync.Once, name string, init func() error) error {
	once.Do(func() {
		if err := init(); err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the OpenTelemetry provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	err := c.lazy(&c.metricsProviderInit, "metricsProvider", func() error {
		if !c.config.MetricsEnabled {
			return nil
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create metrics provider: %w", err)
		}
		c.metricsProvider = provider
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the operation counters. They are no-ops when
// metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	err := c.lazy(&c.businessMetricsInit, "businessMetrics", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return nil
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), provider.Namespace())
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// EventBus returns the security event bus with its log, monitoring and
// metrics sinks attached.
func (c *Container) EventBus() (*eventsService.Bus, error) {
	err := c.lazy(&c.eventBusInit, "eventBus", func() error {
		bus, err := c.initEventBus()
		if err != nil {
			return err
		}
		c.eventBus = bus
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.eventBus, nil
}

// WorkerPool returns the pool that runs integrity checks off the caller's goroutine.
func (c *Container) WorkerPool(ctx context.Context) *worker.Pool {
	c.poolInit.Do(func() {
		c.pool = worker.NewPool(context.WithoutCancel(ctx), c.config.WorkerPoolSize)
	})
	return c.pool
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if c.pool != nil {
		if err := c.pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("worker pool close: %w", err))
		}
	}
	if c.eventBus != nil {
		c.eventBus.Close()
	}
	if c.sentryReporter != nil {
		c.sentryReporter.Flush(sentryFlushTimeout)
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}
	if c.kmsKeeper != nil {
		if err := c.kmsKeeper.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kms keeper close: %w", err))
		}
	}
	if c.boltDB != nil {
		if err := c.boltDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bolt close: %w", err))
		}
	}
	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	return apperrors.Join(errs...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func (c *Container) initEventBus() (*eventsService.Bus, error) {
	logger := c.Logger()

	sinks := []eventsService.Sink{eventsService.NewLogSink(logger)}

	var reporter eventsService.Reporter
	if c.config.SentryDSN != "" {
		sentryReporter, err := eventsService.NewSentryReporter(sentry.ClientOptions{
			Dsn:         c.config.SentryDSN,
			Environment: c.config.Environment,
		})
		if err != nil {
			logger.Warn("sentry reporter disabled", slog.Any("error", err))
		} else {
			c.sentryReporter = sentryReporter
			reporter = sentryReporter
		}
	}
	sinks = append(sinks, eventsService.NewReporterSink(reporter, logger))

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider != nil {
		securityMetrics, err := metrics.NewSecurityEventMetrics(provider.MeterProvider(), provider.Namespace())
		if err != nil {
			return nil, fmt.Errorf("failed to create security event metrics: %w", err)
		}
		sinks = append(sinks, eventsService.NewMetricsSink(securityMetrics))
	}

	return eventsService.NewBus(c.config.EventsReplayCapacity, sinks...), nil
}
