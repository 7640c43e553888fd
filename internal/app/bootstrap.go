package app

import (
	"context"
	"log/slog"

	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
	integrityUseCase "github.com/allisson/trustcore/internal/integrity/usecase"
)

// Bootstrap runs the integrity scan the process must pass before serving
// anything else and applies the configured policy to the report.
func (c *Container) Bootstrap(ctx context.Context) (integrityDomain.ThreatReport, error) {
	scanner, err := c.IntegrityScanner(ctx)
	if err != nil {
		return integrityDomain.ThreatReport{}, err
	}
	policy, err := c.IntegrityPolicy()
	if err != nil {
		return integrityDomain.ThreatReport{}, err
	}
	return Bootstrap(ctx, scanner, policy, c.Logger())
}

// Bootstrap scans once and evaluates policy. A blocked report is returned
// together with integrityDomain.ErrIntegrityCompromised.
func Bootstrap(
	ctx context.Context,
	scanner integrityUseCase.Scanner,
	policy integrityDomain.Policy,
	logger *slog.Logger,
) (integrityDomain.ThreatReport, error) {
	report, err := scanner.PerformSecurityCheck(ctx)
	if err != nil {
		return integrityDomain.ThreatReport{}, err
	}

	decision := policy.Evaluate(report)
	attrs := []any{
		slog.String("decision", decision.String()),
		slog.Any("threats", report.Threats),
	}
	switch decision {
	case integrityDomain.PolicyBlock:
		logger.Error(report.Message(), attrs...)
		return report, integrityDomain.ErrIntegrityCompromised
	case integrityDomain.PolicyWarn:
		logger.Warn(report.Message(), attrs...)
	default:
		logger.Info(report.Message(), attrs...)
	}
	return report, nil
}
