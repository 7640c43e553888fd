package usecase

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
	authService "github.com/allisson/trustcore/internal/auth/service"
	"github.com/allisson/trustcore/internal/auth/usecase/mocks"
	apperrors "github.com/allisson/trustcore/internal/errors"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

const redirectBase = "com.example.trustcore://oauth/callback"

type flowFixture struct {
	flow      *pkceFlow
	tokens    *tokenManager
	endpoint  *mocks.MockTokenEndpoint
	clock     *fakeClock
	publisher *capturePublisher
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	clock := newFakeClock()
	publisher := &capturePublisher{}
	tokens := newTestTokenManager(t, clock, publisher)
	endpoint := &mocks.MockTokenEndpoint{}

	flow := NewOAuth2PkceFlow(
		tokens.prefs,
		tokens,
		endpoint,
		authService.NewPkceGenerator(),
		0,
		publisher,
		discardLogger(),
	).(*pkceFlow)
	flow.now = clock.Now

	return &flowFixture{flow: flow, tokens: tokens, endpoint: endpoint, clock: clock, publisher: publisher}
}

func testRequest() authDomain.AuthorizationRequest {
	return authDomain.AuthorizationRequest{
		AuthorizationEndpoint: "https://auth.example.com/oauth2/authorize",
		ClientID:              "trustcore-cli",
		RedirectURI:           redirectBase,
		Scope:                 "openid profile email",
	}
}

// startAuthorization returns the state carried by the generated URL.
func startAuthorization(t *testing.T, f *flowFixture) (string, url.Values) {
	t.Helper()
	raw, err := f.flow.GenerateAuthorizationURL(context.Background(), testRequest())
	require.NoError(t, err)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	return parsed.Query().Get("state"), parsed.Query()
}

func TestOAuth2PkceFlow_GenerateAuthorizationURL(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)

	raw, err := f.flow.GenerateAuthorizationURL(ctx, testRequest())
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth.example.com", parsed.Host)
	assert.Equal(t, "/oauth2/authorize", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "trustcore-cli", q.Get("client_id"))
	assert.Equal(t, redirectBase, q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Len(t, q.Get("state"), 22)

	session, err := f.flow.loadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, q.Get("state"), session.State)
	assert.Equal(t, f.flow.GenerateCodeChallenge(session.CodeVerifier), q.Get("code_challenge"))
	assert.NotContains(t, raw, session.CodeVerifier)

	t.Run("invalid requests are rejected without a session change", func(t *testing.T) {
		bad := testRequest()
		bad.AuthorizationEndpoint = "http://auth.example.com/authorize"
		_, err := f.flow.GenerateAuthorizationURL(ctx, bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		bad = testRequest()
		bad.ClientID = "  "
		_, err = f.flow.GenerateAuthorizationURL(ctx, bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		still, err := f.flow.loadSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.State, still.State)
	})
}

func TestOAuth2PkceFlow_SessionHiddenFromDump(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	require.NoError(t, f.tokens.prefs.PutString(ctx, "theme", "dark"))

	state, _ := startAuthorization(t, f)
	session, err := f.flow.loadSession(ctx)
	require.NoError(t, err)

	dump, err := f.tokens.prefs.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark"}, dump)
	for _, key := range []string{authDomain.KeyCodeVerifier, authDomain.KeyState, authDomain.KeySessionCreatedAt} {
		assert.NotContains(t, dump, key)
	}
	for _, value := range dump {
		assert.NotEqual(t, state, value)
		assert.NotEqual(t, session.CodeVerifier, value)
	}
}

func TestOAuth2PkceFlow_ValidateAuthorizationResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("matching state returns code", func(t *testing.T) {
		f := newFlowFixture(t)
		state, _ := startAuthorization(t, f)

		code, err := f.flow.ValidateAuthorizationResponse(ctx, redirectBase+"?code=abc123&state="+url.QueryEscape(state))
		require.NoError(t, err)
		assert.Equal(t, "abc123", code)

		_, err = f.flow.loadSession(ctx)
		assert.NoError(t, err, "session is kept for the exchange")
	})

	t.Run("state mismatch is a CSRF error and discards the session", func(t *testing.T) {
		for range 20 {
			f := newFlowFixture(t)
			startAuthorization(t, f)
			other, err := authService.NewPkceGenerator().GenerateState()
			require.NoError(t, err)

			code, err := f.flow.ValidateAuthorizationResponse(ctx, redirectBase+"?code=abc123&state="+other)
			assert.ErrorIs(t, err, authDomain.ErrCSRFStateMismatch)
			assert.Empty(t, code)

			_, err = f.flow.loadSession(ctx)
			assert.ErrorIs(t, err, authDomain.ErrNoPkceSession)
		}
	})

	t.Run("missing state is a CSRF error", func(t *testing.T) {
		f := newFlowFixture(t)
		startAuthorization(t, f)

		_, err := f.flow.ValidateAuthorizationResponse(ctx, redirectBase+"?code=abc123")
		assert.ErrorIs(t, err, authDomain.ErrCSRFStateMismatch)
		assert.Equal(t, 1, f.publisher.count(eventsDomain.ThreatDetected, "", ""))
	})

	t.Run("oauth error", func(t *testing.T) {
		f := newFlowFixture(t)
		state, _ := startAuthorization(t, f)

		_, err := f.flow.ValidateAuthorizationResponse(ctx,
			redirectBase+"?error=access_denied&error_description=User+denied&state="+state)
		var oauthErr *authDomain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, "access_denied", oauthErr.Code)
		assert.Equal(t, "User denied", oauthErr.Description)

		_, err = f.flow.loadSession(ctx)
		assert.ErrorIs(t, err, authDomain.ErrNoPkceSession)
	})

	t.Run("blank code", func(t *testing.T) {
		f := newFlowFixture(t)
		state, _ := startAuthorization(t, f)

		_, err := f.flow.ValidateAuthorizationResponse(ctx, redirectBase+"?code=%20&state="+state)
		assert.ErrorIs(t, err, authDomain.ErrMissingAuthorizationCode)
	})

	t.Run("expired session", func(t *testing.T) {
		f := newFlowFixture(t)
		state, _ := startAuthorization(t, f)
		f.clock.Advance(authDomain.DefaultPkceSessionTTL)

		_, err := f.flow.ValidateAuthorizationResponse(ctx, redirectBase+"?code=abc123&state="+state)
		assert.ErrorIs(t, err, authDomain.ErrSessionExpired)
	})

	t.Run("no session", func(t *testing.T) {
		f := newFlowFixture(t)
		_, err := f.flow.ValidateAuthorizationResponse(ctx, redirectBase+"?code=abc123&state=x")
		assert.ErrorIs(t, err, authDomain.ErrNoPkceSession)
	})

	t.Run("unparseable redirect", func(t *testing.T) {
		f := newFlowFixture(t)
		_, err := f.flow.ValidateAuthorizationResponse(ctx, "::%zz")
		assert.ErrorIs(t, err, authDomain.ErrInvalidRedirect)
	})
}

func TestOAuth2PkceFlow_ExchangeCodeForToken(t *testing.T) {
	ctx := context.Background()

	t.Run("success consumes the verifier", func(t *testing.T) {
		f := newFlowFixture(t)
		startAuthorization(t, f)
		session, err := f.flow.loadSession(ctx)
		require.NoError(t, err)

		response := &authDomain.TokenResponse{AccessToken: "a", RefreshToken: "r"}
		f.endpoint.On("Exchange", ctx, "abc123", session.CodeVerifier).Return(response, nil).Once()

		got, err := f.flow.ExchangeCodeForToken(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, response, got)

		_, err = f.flow.loadSession(ctx)
		assert.ErrorIs(t, err, authDomain.ErrNoPkceSession)

		_, err = f.flow.ExchangeCodeForToken(ctx, "abc123")
		assert.ErrorIs(t, err, authDomain.ErrNoPkceSession)
		f.endpoint.AssertExpectations(t)
	})

	t.Run("failure discards the session", func(t *testing.T) {
		f := newFlowFixture(t)
		startAuthorization(t, f)

		f.endpoint.On("Exchange", ctx, "abc123", mock.Anything).
			Return(nil, &authDomain.OAuthError{Code: "invalid_grant"}).Once()

		_, err := f.flow.ExchangeCodeForToken(ctx, "abc123")
		assert.ErrorIs(t, err, apperrors.ErrAuth)

		_, err = f.flow.loadSession(ctx)
		assert.ErrorIs(t, err, authDomain.ErrNoPkceSession)
	})
}

func TestOAuth2PkceFlow_RefreshRevokeClear(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)

	_, err := f.flow.RefreshAccessToken(ctx, "")
	assert.ErrorIs(t, err, authDomain.ErrNoRefreshToken)

	f.endpoint.On("Refresh", ctx, "r1").Return(&authDomain.TokenResponse{AccessToken: "a2"}, nil).Once()
	resp, err := f.flow.RefreshAccessToken(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", resp.AccessToken)

	f.endpoint.On("Revoke", ctx, "r1", "refresh_token").Return(nil).Once()
	require.NoError(t, f.flow.RevokeToken(ctx, "r1", "refresh_token"))

	require.NoError(t, f.tokens.SaveTokens(ctx, makeToken(t, f.clock.Now().Add(time.Hour), nil), "r1"))
	startAuthorization(t, f)
	require.NoError(t, f.flow.ClearSession(ctx))
	require.NoError(t, f.flow.ClearSession(ctx))

	_, err = f.flow.loadSession(ctx)
	assert.ErrorIs(t, err, authDomain.ErrNoPkceSession)
	assert.Equal(t, authDomain.StateNoCredential, f.tokens.State(ctx))
	f.endpoint.AssertExpectations(t)
}
