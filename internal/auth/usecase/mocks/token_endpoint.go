// Package mocks provides mock implementations of the auth use case collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
)

// MockTokenEndpoint is a mock implementation of TokenEndpoint for testing.
type MockTokenEndpoint struct {
	mock.Mock
}

// Exchange mocks the Exchange method of TokenEndpoint.
func (m *MockTokenEndpoint) Exchange(ctx context.Context, code, verifier string) (*authDomain.TokenResponse, error) {
	args := m.Called(ctx, code, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenResponse), args.Error(1)
}

// Refresh mocks the Refresh method of TokenEndpoint.
func (m *MockTokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*authDomain.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenResponse), args.Error(1)
}

// Revoke mocks the Revoke method of TokenEndpoint.
func (m *MockTokenEndpoint) Revoke(ctx context.Context, token, hint string) error {
	args := m.Called(ctx, token, hint)
	return args.Error(0)
}
