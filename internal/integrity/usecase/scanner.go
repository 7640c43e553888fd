package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
	integrityService "github.com/allisson/trustcore/internal/integrity/service"
	"github.com/allisson/trustcore/internal/worker"
)

type integrityScanner struct {
	checks    []integrityService.Check
	pool      *worker.Pool
	publisher eventsDomain.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewScanner creates a Scanner over checks. pool runs asynchronous scans and
// may be nil.
func NewScanner(
	checks []integrityService.Check,
	pool *worker.Pool,
	publisher eventsDomain.Publisher,
	logger *slog.Logger,
) Scanner {
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &integrityScanner{
		checks:    checks,
		pool:      pool,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *integrityScanner) PerformSecurityCheck(ctx context.Context) (integrityDomain.ThreatReport, error) {
	detected := make(map[integrityDomain.ThreatKind]bool)
	tripped := make(map[integrityDomain.ThreatKind][]string)

	for _, check := range s.checks {
		if err := ctx.Err(); err != nil {
			return integrityDomain.ThreatReport{}, err
		}

		hit, err := check.Run(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "integrity probe failed",
				slog.String("check", check.Name),
				slog.Bool("fail_closed", check.FailClosed),
				slog.Any("error", err),
			)
			hit = check.FailClosed
		}
		if hit {
			detected[check.Kind] = true
			tripped[check.Kind] = append(tripped[check.Kind], check.Name)
		}
	}

	report := integrityDomain.NewThreatReport(detected, s.now().UTC())
	for _, kind := range report.Threats {
		level := eventsDomain.LevelWarning
		if kind.Critical() {
			level = eventsDomain.LevelCritical
		}
		checks := tripped[kind]
		sort.Strings(checks)
		s.publisher.Publish(eventsDomain.SecurityThreat(kind.String(), level, map[string]string{
			"check": strings.Join(checks, ","),
		}))
	}

	s.logger.InfoContext(ctx, "integrity scan completed",
		slog.Bool("is_secure", report.IsSecure),
		slog.Int("threats", len(report.Threats)),
	)
	return report, nil
}

func (s *integrityScanner) PerformSecurityCheckAsync(ctx context.Context) <-chan integrityDomain.ScanResult {
	out := make(chan integrityDomain.ScanResult, 1)
	worker.Submit(s.pool, func(poolCtx context.Context) (struct{}, error) {
		defer close(out)
		ctx, cancel := mergeCancel(ctx, poolCtx)
		defer cancel()

		report, err := s.PerformSecurityCheck(ctx)
		out <- integrityDomain.ScanResult{Report: report, Err: err}
		return struct{}{}, err
	})
	return out
}

// mergeCancel returns a context derived from ctx that also ends with other.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	if other.Err() != nil {
		cancel()
	}
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
