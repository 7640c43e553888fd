// Package domain defines credentials, PKCE sessions and the authentication
// errors shared by the token manager and the OAuth2 flow.
package domain

import (
	"log/slog"
	"time"
)

// SessionState is the credential lifecycle state.
type SessionState int

const (
	StateNoCredential SessionState = iota
	StateValid
	StateExpired
)

func (s SessionState) String() string {
	switch s {
	case StateNoCredential:
		return "no_credential"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Claims are the unverified claims read from an access token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	UserID    string
	Email     string
	Roles     []string
}

// Credential is the stored bearer credential.
type Credential struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	Claims       Claims
}

// LogValue redacts both tokens.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("has_refresh_token", c.RefreshToken != ""),
		slog.Time("issued_at", c.IssuedAt),
		slog.Time("expires_at", c.Claims.ExpiresAt),
	)
}

// TokenResponse is a successful token endpoint response.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	Expiry       time.Time
	Scope        string
	IDToken      string
}

// LogValue redacts every token.
func (r TokenResponse) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token_type", r.TokenType),
		slog.Int64("expires_in", r.ExpiresIn),
		slog.String("scope", r.Scope),
		slog.Bool("has_refresh_token", r.RefreshToken != ""),
	)
}
