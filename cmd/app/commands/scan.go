package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/trustcore/internal/app"
	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
	integrityUseCase "github.com/allisson/trustcore/internal/integrity/usecase"
)

type scanOutput struct {
	integrityDomain.ThreatReport
	Decision string `json:"decision"`
	Message  string `json:"message"`
}

// RunScan performs one integrity scan and prints the report. A report the
// policy blocks is printed and then returned as an error so the process
// exits non-zero.
func RunScan(
	ctx context.Context,
	scanner integrityUseCase.Scanner,
	policy integrityDomain.Policy,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	report, bootErr := app.Bootstrap(ctx, scanner, policy, logger)
	if bootErr != nil && !errors.Is(bootErr, integrityDomain.ErrIntegrityCompromised) {
		return fmt.Errorf("failed to scan: %w", bootErr)
	}

	out := scanOutput{
		ThreatReport: report,
		Decision:     policy.Evaluate(report).String(),
		Message:      report.Message(),
	}
	if format == "json" {
		if err := writeJSON(writer, out); err != nil {
			return err
		}
		return bootErr
	}

	_, _ = fmt.Fprintf(writer, "Checked at: %s\n", report.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintf(writer, "Secure:     %t\n", report.IsSecure)
	_, _ = fmt.Fprintf(writer, "Decision:   %s\n", out.Decision)
	for _, threat := range report.Threats {
		critical := ""
		if threat.Critical() {
			critical = " (critical)"
		}
		_, _ = fmt.Fprintf(writer, "  - %s: %s%s\n", threat, threat.Description(), critical)
	}
	_, _ = fmt.Fprintln(writer, out.Message)
	return bootErr
}
