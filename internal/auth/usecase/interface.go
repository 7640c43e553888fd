// Package usecase implements the credential lifecycle: the token manager
// state machine, the OAuth2 authorization code flow with PKCE, and the
// authenticator that hands out valid bearer tokens.
package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
)

// TokenEndpoint performs the network exchanges of the authorization server.
type TokenEndpoint interface {
	Exchange(ctx context.Context, code, verifier string) (*authDomain.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*authDomain.TokenResponse, error)
	Revoke(ctx context.Context, token, hint string) error
}

// TokenManager owns the stored Credential and its state machine
// NoCredential -> Valid -> Expired -> NoCredential.
type TokenManager interface {
	SaveTokens(ctx context.Context, accessToken, refreshToken string) error
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Credential(ctx context.Context) (authDomain.Credential, error)

	// IsTokenExpired fails closed: an unparseable token is expired.
	IsTokenExpired(token string) bool
	TokenExpiration(token string) (time.Time, error)
	ParseClaims(token string) (authDomain.Claims, error)
	ValidateTokenFormat(token string) bool

	// IsSessionValid requires recent activity and an unexpired token.
	IsSessionValid(ctx context.Context) bool
	UpdateActivity(ctx context.Context) error
	State(ctx context.Context) authDomain.SessionState

	// ClearTokens is idempotent.
	ClearTokens(ctx context.Context) error
}

// OAuth2PkceFlow drives one authorization code grant with PKCE.
type OAuth2PkceFlow interface {
	GenerateCodeVerifier() (string, error)
	GenerateCodeChallenge(verifier string) string

	// GenerateAuthorizationURL persists a new PkceSession and returns the
	// URL to open in the user agent.
	GenerateAuthorizationURL(ctx context.Context, req authDomain.AuthorizationRequest) (string, error)

	// ValidateAuthorizationResponse returns the authorization code carried
	// by redirectURI. Any failure discards the session.
	ValidateAuthorizationResponse(ctx context.Context, redirectURI string) (string, error)

	// ExchangeCodeForToken consumes the session verifier.
	ExchangeCodeForToken(ctx context.Context, code string) (*authDomain.TokenResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*authDomain.TokenResponse, error)
	RevokeToken(ctx context.Context, token, hint string) error

	// ClearSession discards the PkceSession and the stored credential.
	ClearSession(ctx context.Context) error
}
