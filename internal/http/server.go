// Package http provides the local diagnostics HTTP server and its handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
	"github.com/allisson/trustcore/internal/config"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	"github.com/allisson/trustcore/internal/httputil"
	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
	integrityUseCase "github.com/allisson/trustcore/internal/integrity/usecase"
	"github.com/allisson/trustcore/internal/metrics"
	prefsUseCase "github.com/allisson/trustcore/internal/preferences/usecase"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 100
)

// EventSource exposes the replay buffer of the security event bus.
type EventSource interface {
	Recent(limit int) []eventsDomain.SecurityEvent
}

// SessionSource exposes the credential lifecycle state.
type SessionSource interface {
	State(ctx context.Context) authDomain.SessionState
}

// Server represents the diagnostics HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger

	scanner  integrityUseCase.Scanner
	events   EventSource
	prefs    prefsUseCase.SecurePreferenceStore
	sessions SessionSource
	policy   integrityDomain.Policy

	shuttingDown atomic.Bool
}

// NewServer creates a new diagnostics server. Call SetupRouter before Start.
func NewServer(
	host string,
	port int,
	logger *slog.Logger,
	scanner integrityUseCase.Scanner,
	events EventSource,
	prefs prefsUseCase.SecurePreferenceStore,
	sessions SessionSource,
	policy integrityDomain.Policy,
) *Server {
	return &Server{
		logger:   logger,
		scanner:  scanner,
		events:   events,
		prefs:    prefs,
		sessions: sessions,
		policy:   policy,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine. ctx bounds the lifetime of background
// middleware state such as the rate limiter cleanup.
func (s *Server) SetupRouter(ctx context.Context, cfg *config.Config, metricsProvider *metrics.Provider) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), metricsProvider.Namespace()))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	v1.GET("/integrity", s.integrityHandler)
	v1.GET("/events", s.eventsHandler)
	v1.GET("/preferences", s.preferencesHandler)
	v1.GET("/session", s.sessionHandler)

	s.router = router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting diagnostics server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the diagnostics server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down diagnostics server")
	s.shuttingDown.Store(true)
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the preference storage answers.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.shuttingDown.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}

	components := gin.H{"storage": "ok"}
	ready := true

	if s.prefs == nil {
		components["storage"] = "error"
		ready = false
	} else if _, err := s.prefs.Keys(c.Request.Context()); err != nil {
		s.logger.Warn("readiness storage check failed", slog.Any("error", err))
		components["storage"] = "error"
		ready = false
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

type integrityResponse struct {
	integrityDomain.ThreatReport
	Decision string `json:"decision"`
	Message  string `json:"message"`
}

func (s *Server) integrityHandler(c *gin.Context) {
	report, err := s.scanner.PerformSecurityCheck(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, s.logger)
		return
	}

	c.JSON(http.StatusOK, integrityResponse{
		ThreatReport: report,
		Decision:     s.policy.Evaluate(report).String(),
		Message:      report.Message(),
	})
}

func (s *Server) eventsHandler(c *gin.Context) {
	limit, err := httputil.ParseLimit(c, defaultEventsLimit, maxEventsLimit)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, s.logger)
		return
	}

	events := s.events.Recent(limit)
	if events == nil {
		events = []eventsDomain.SecurityEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (s *Server) preferencesHandler(c *gin.Context) {
	dump, err := s.prefs.Dump(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, s.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dump})
}

func (s *Server) sessionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": s.sessions.State(c.Request.Context())})
}
