package domain

import (
	"strings"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

// ErrIntegrityCompromised is returned when a policy blocks on a report.
var ErrIntegrityCompromised = apperrors.Wrap(apperrors.ErrIntegrity, "runtime integrity compromised")

// Decision is the outcome of applying a Policy to a report.
type Decision int

const (
	PolicyAllow Decision = iota
	PolicyWarn
	PolicyBlock
)

func (d Decision) String() string {
	switch d {
	case PolicyAllow:
		return "allow"
	case PolicyWarn:
		return "warn"
	case PolicyBlock:
		return "block"
	default:
		return "unknown"
	}
}

// PolicyMode selects how strictly threats are treated.
type PolicyMode string

const (
	// ModeWarn never blocks.
	ModeWarn PolicyMode = "warn"
	// ModeBlock blocks on any critical threat.
	ModeBlock PolicyMode = "block"
)

// ParsePolicyMode accepts "warn" and "block", case-insensitively.
func ParsePolicyMode(s string) (PolicyMode, error) {
	switch PolicyMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWarn:
		return ModeWarn, nil
	case ModeBlock:
		return ModeBlock, nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "integrity policy must be block or warn")
	}
}

// Policy turns a report into a decision. It never changes the report.
type Policy struct {
	Mode PolicyMode
}

// Evaluate returns PolicyAllow for a secure report, PolicyBlock for a
// critical threat under ModeBlock, and PolicyWarn otherwise.
func (p Policy) Evaluate(report ThreatReport) Decision {
	if len(report.Threats) == 0 {
		return PolicyAllow
	}
	if p.Mode == ModeBlock && report.HasCritical() {
		return PolicyBlock
	}
	return PolicyWarn
}
