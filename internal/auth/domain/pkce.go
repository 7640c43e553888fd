package domain

import (
	"log/slog"
	"time"
)

// ChallengeMethodS256 is the only supported PKCE challenge method.
const ChallengeMethodS256 = "S256"

// Preference keys holding the active PKCE session.
const (
	KeyCodeVerifier     = "oauth2_code_verifier"
	KeyState            = "oauth2_state"
	KeySessionCreatedAt = "oauth2_session_created_at"
)

// Defaults.
const (
	DefaultSessionIdleTimeout = 30 * time.Minute
	DefaultPkceSessionTTL     = 10 * time.Minute
)

// PkceSession is a single authorization attempt.
type PkceSession struct {
	CodeVerifier  string
	CodeChallenge string
	State         string
	CreatedAt     time.Time
}

// Expired reports whether the session is older than ttl at now.
func (s PkceSession) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(s.CreatedAt.Add(ttl))
}

// LogValue never includes the verifier or the state.
func (s PkceSession) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("code_challenge_method", ChallengeMethodS256),
		slog.Time("created_at", s.CreatedAt),
	)
}

// AuthorizationRequest describes where to send the user to authorize.
type AuthorizationRequest struct {
	AuthorizationEndpoint string
	ClientID              string
	RedirectURI           string
	Scope                 string
}
