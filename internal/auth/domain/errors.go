package domain

import (
	"github.com/allisson/trustcore/internal/errors"
)

// Authentication errors. Every error in this list discards the PKCE session
// or credential that produced it.
var (
	// ErrNoCredential indicates no access token is stored.
	ErrNoCredential = errors.Wrap(errors.ErrUnauthorized, "no credential")

	// ErrNoRefreshToken indicates a refresh was required but no refresh token is stored.
	ErrNoRefreshToken = errors.Wrap(errors.ErrUnauthorized, "no refresh token")

	// ErrInvalidTokenFormat indicates a token that is not three base64url segments.
	ErrInvalidTokenFormat = errors.Wrap(errors.ErrInvalidInput, "invalid token format")

	// ErrInvalidRedirect indicates a redirect URI that cannot be parsed.
	ErrInvalidRedirect = errors.Wrap(errors.ErrInvalidInput, "invalid redirect uri")

	// ErrNoPkceSession indicates a redirect or exchange without an active authorization attempt.
	ErrNoPkceSession = errors.Wrap(errors.ErrAuth, "no active pkce session")

	// ErrCSRFStateMismatch indicates the redirect state differs from the stored state.
	ErrCSRFStateMismatch = errors.Wrap(errors.ErrAuth, "state mismatch, possible CSRF")

	// ErrSessionExpired indicates the PKCE session outlived its TTL.
	ErrSessionExpired = errors.Wrap(errors.ErrAuth, "authorization session expired")

	// ErrMissingAuthorizationCode indicates a redirect without a code.
	ErrMissingAuthorizationCode = errors.Wrap(errors.ErrAuth, "missing authorization code")

	// ErrRevocationUnsupported indicates no revocation endpoint is configured.
	ErrRevocationUnsupported = errors.Wrap(errors.ErrAuth, "token revocation not configured")

	// ErrTokenEndpoint indicates a transport or protocol failure talking to the token endpoint.
	ErrTokenEndpoint = errors.Wrap(errors.ErrAuth, "token endpoint failure")
)

// OAuthError is an error response returned by the authorization server,
// either on the redirect or from the token endpoint.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return "oauth error: " + e.Code
	}
	return "oauth error: " + e.Code + ": " + e.Description
}

// Unwrap makes OAuthError match errors.ErrAuth.
func (e *OAuthError) Unwrap() error {
	return errors.ErrAuth
}
