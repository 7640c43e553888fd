package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/trustcore/internal/metrics"
)

// MetricsServer exposes the Prometheus scrape endpoint on a port of its own,
// apart from the diagnostics API.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewMetricsServer creates a MetricsServer. With a nil provider every path
// answers 404.
func NewMetricsServer(
	host string,
	port int,
	logger *slog.Logger,
	metricsProvider *metrics.Provider,
) *MetricsServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))

	if metricsProvider != nil {
		scrape := metricsProvider.Handler()
		handler := func(c *gin.Context) {
			c.Header("Cache-Control", "no-store")
			scrape.ServeHTTP(c.Writer, c.Request)
		}
		router.GET("/metrics", handler)
		router.HEAD("/metrics", handler)
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:              net.JoinHostPort(host, fmt.Sprint(port)),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the router, for tests.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.server.Handler
}

// Listen binds the configured address. Port 0 picks a free port, reported
// by Addr.
func (s *MetricsServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics server: %w", err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *MetricsServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start binds if needed and serves until Shutdown.
func (s *MetricsServer) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "starting metrics server", slog.String("addr", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server stopped: %w", err)
	}
	return nil
}

// Shutdown drains in-flight scrapes within ctx.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "shutting down metrics server")
	return s.server.Shutdown(ctx)
}
