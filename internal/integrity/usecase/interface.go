// Package usecase runs the integrity heuristics and reports their outcome.
package usecase

import (
	"context"

	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
)

// Scanner produces a fresh ThreatReport on every call.
type Scanner interface {
	// PerformSecurityCheck runs every check sequentially. It returns an error
	// only when ctx ends before all checks finish; no partial report is returned.
	PerformSecurityCheck(ctx context.Context) (integrityDomain.ThreatReport, error)

	// PerformSecurityCheckAsync runs PerformSecurityCheck in the background.
	// The channel receives exactly one result and is then closed.
	PerformSecurityCheckAsync(ctx context.Context) <-chan integrityDomain.ScanResult
}
