package usecase

import (
	"context"
	"time"

	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
	"github.com/allisson/trustcore/internal/metrics"
)

// scannerWithMetrics decorates Scanner with metrics instrumentation.
type scannerWithMetrics struct {
	next    Scanner
	metrics metrics.BusinessMetrics
}

// NewScannerWithMetrics wraps a Scanner with metrics recording.
func NewScannerWithMetrics(scanner Scanner, m metrics.BusinessMetrics) Scanner {
	return &scannerWithMetrics{next: scanner, metrics: m}
}

func (s *scannerWithMetrics) observe(
	ctx context.Context,
	operation string,
	start time.Time,
	report integrityDomain.ThreatReport,
	err error,
) {
	status := "secure"
	switch {
	case err != nil:
		status = "error"
	case !report.IsSecure:
		status = "threats"
	}
	s.metrics.RecordOperation(ctx, "integrity", operation, status)
	s.metrics.RecordDuration(ctx, "integrity", operation, time.Since(start), status)
}

func (s *scannerWithMetrics) PerformSecurityCheck(ctx context.Context) (integrityDomain.ThreatReport, error) {
	start := time.Now()
	report, err := s.next.PerformSecurityCheck(ctx)
	s.observe(ctx, "integrity_scan", start, report, err)
	return report, err
}

func (s *scannerWithMetrics) PerformSecurityCheckAsync(ctx context.Context) <-chan integrityDomain.ScanResult {
	start := time.Now()
	in := s.next.PerformSecurityCheckAsync(ctx)
	out := make(chan integrityDomain.ScanResult, 1)
	go func() {
		defer close(out)
		result := <-in
		s.observe(ctx, "integrity_scan_async", start, result.Report, result.Err)
		out <- result
	}()
	return out
}
