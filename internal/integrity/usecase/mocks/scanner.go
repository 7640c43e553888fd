// Package mocks provides testify mocks for the integrity use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
)

// MockScanner is a mock implementation of Scanner for testing.
type MockScanner struct {
	mock.Mock
}

// PerformSecurityCheck mocks the PerformSecurityCheck method.
func (m *MockScanner) PerformSecurityCheck(ctx context.Context) (integrityDomain.ThreatReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(integrityDomain.ThreatReport), args.Error(1)
}

// PerformSecurityCheckAsync mocks the PerformSecurityCheckAsync method.
func (m *MockScanner) PerformSecurityCheckAsync(ctx context.Context) <-chan integrityDomain.ScanResult {
	args := m.Called(ctx)
	return args.Get(0).(<-chan integrityDomain.ScanResult)
}
