// Package service provides the stateless pieces of the credential lifecycle:
// unverified token parsing, PKCE parameter generation, and the OAuth2 token
// endpoint client.
package service

import (
	"time"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
)

// TokenParser reads access tokens without verifying their signature.
// Signature verification is the resource server's job; these checks only
// drive proactive refresh.
type TokenParser interface {
	// ValidateFormat reports whether token is exactly three non-empty
	// base64url segments that each decode.
	ValidateFormat(token string) bool

	// ParseClaims decodes the payload segment.
	ParseClaims(token string) (authDomain.Claims, error)

	// Expiration returns the exp claim. A token without exp fails.
	Expiration(token string) (time.Time, error)
}

// PkceGenerator creates RFC 7636 parameters.
type PkceGenerator interface {
	// GenerateCodeVerifier returns 32 random bytes, base64url without padding.
	GenerateCodeVerifier() (string, error)

	// GenerateCodeChallenge returns base64url(sha256(verifier)) without padding.
	GenerateCodeChallenge(verifier string) string

	// GenerateState returns 16 random bytes, base64url without padding.
	GenerateState() (string, error)
}
