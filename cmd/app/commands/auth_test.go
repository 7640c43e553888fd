package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
)

type mockURLGenerator struct {
	mock.Mock
}

func (m *mockURLGenerator) GenerateAuthorizationURL(
	ctx context.Context,
	req authDomain.AuthorizationRequest,
) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockLoginManager struct {
	mock.Mock
}

func (m *mockLoginManager) CompleteLogin(ctx context.Context, redirectURI string) (authDomain.Credential, error) {
	args := m.Called(ctx, redirectURI)
	return args.Get(0).(authDomain.Credential), args.Error(1)
}

func (m *mockLoginManager) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestRunAuthURL(t *testing.T) {
	ctx := context.Background()
	req := authDomain.AuthorizationRequest{
		AuthorizationEndpoint: "https://auth.example.com/authorize",
		ClientID:              "client",
		RedirectURI:           "com.example.app:/callback",
		Scope:                 "openid",
	}

	t.Run("success", func(t *testing.T) {
		flow := &mockURLGenerator{}
		flow.On("GenerateAuthorizationURL", ctx, req).
			Return("https://auth.example.com/authorize?client_id=client", nil)

		var out bytes.Buffer
		require.NoError(t, RunAuthURL(ctx, flow, discardLogger(), &out, req))
		require.Equal(t, "https://auth.example.com/authorize?client_id=client\n", out.String())
		flow.AssertExpectations(t)
	})

	t.Run("error", func(t *testing.T) {
		flow := &mockURLGenerator{}
		flow.On("GenerateAuthorizationURL", ctx, req).Return("", assertErr)

		err := RunAuthURL(ctx, flow, discardLogger(), &bytes.Buffer{}, req)
		require.ErrorIs(t, err, assertErr)
	})
}

func TestRunAuthComplete(t *testing.T) {
	ctx := context.Background()
	redirect := "com.example.app:/callback?code=abc&state=xyz"
	expiresAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success never prints tokens", func(t *testing.T) {
		logins := &mockLoginManager{}
		logins.On("CompleteLogin", ctx, redirect).Return(authDomain.Credential{
			AccessToken:  "access-secret",
			RefreshToken: "refresh-secret",
			Claims:       authDomain.Claims{ExpiresAt: expiresAt},
		}, nil)

		var out bytes.Buffer
		require.NoError(t, RunAuthComplete(ctx, logins, discardLogger(), &out, redirect))
		require.Contains(t, out.String(), "Login completed")
		require.Contains(t, out.String(), "2026-05-01T12:00:00Z")
		require.NotContains(t, out.String(), "secret")
	})

	t.Run("state mismatch", func(t *testing.T) {
		logins := &mockLoginManager{}
		logins.On("CompleteLogin", ctx, redirect).Return(authDomain.Credential{}, assertErr)

		err := RunAuthComplete(ctx, logins, discardLogger(), &bytes.Buffer{}, redirect)
		require.ErrorIs(t, err, assertErr)
	})
}

func TestRunLogout(t *testing.T) {
	ctx := context.Background()

	logins := &mockLoginManager{}
	logins.On("Logout", ctx).Return(nil)

	var out bytes.Buffer
	require.NoError(t, RunLogout(ctx, logins, discardLogger(), &out))
	require.Equal(t, "Logged out\n", out.String())
	logins.AssertExpectations(t)
}
