package usecase

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	validation "github.com/jellydator/validation"
	"golang.org/x/oauth2"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
	authService "github.com/allisson/trustcore/internal/auth/service"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	prefsUsecase "github.com/allisson/trustcore/internal/preferences/usecase"
	customValidation "github.com/allisson/trustcore/internal/validation"
)

const pkceMethod = "pkce"

type pkceFlow struct {
	prefs     prefsUsecase.SecurePreferenceStore
	tokens    TokenManager
	endpoint  TokenEndpoint
	generator authService.PkceGenerator
	ttl       time.Duration
	publisher eventsDomain.Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewOAuth2PkceFlow creates an OAuth2PkceFlow. A non-positive ttl selects
// authDomain.DefaultPkceSessionTTL.
func NewOAuth2PkceFlow(
	prefs prefsUsecase.SecurePreferenceStore,
	tokens TokenManager,
	endpoint TokenEndpoint,
	generator authService.PkceGenerator,
	ttl time.Duration,
	publisher eventsDomain.Publisher,
	logger *slog.Logger,
) OAuth2PkceFlow {
	if ttl <= 0 {
		ttl = authDomain.DefaultPkceSessionTTL
	}
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &pkceFlow{
		prefs:     prefs,
		tokens:    tokens,
		endpoint:  endpoint,
		generator: generator,
		ttl:       ttl,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (f *pkceFlow) GenerateCodeVerifier() (string, error) {
	return f.generator.GenerateCodeVerifier()
}

func (f *pkceFlow) GenerateCodeChallenge(verifier string) string {
	return f.generator.GenerateCodeChallenge(verifier)
}

func validateAuthorizationRequest(req authDomain.AuthorizationRequest) error {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.AuthorizationEndpoint, validation.Required, customValidation.HTTPSURL),
		validation.Field(&req.ClientID, validation.Required, customValidation.NotBlank, customValidation.NoWhitespace),
		validation.Field(&req.RedirectURI, validation.Required, customValidation.AbsoluteURI),
		validation.Field(&req.Scope, customValidation.NoWhitespace),
	)
	return customValidation.WrapValidationError(err)
}

func (f *pkceFlow) GenerateAuthorizationURL(ctx context.Context, req authDomain.AuthorizationRequest) (string, error) {
	if err := validateAuthorizationRequest(req); err != nil {
		f.publisher.Publish(eventsDomain.ValidationFailure("authorization_request", "invalid"))
		return "", err
	}

	verifier, err := f.generator.GenerateCodeVerifier()
	if err != nil {
		return "", err
	}
	state, err := f.generator.GenerateState()
	if err != nil {
		return "", err
	}
	session := authDomain.PkceSession{
		CodeVerifier:  verifier,
		CodeChallenge: f.generator.GenerateCodeChallenge(verifier),
		State:         state,
		CreatedAt:     f.now().UTC(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.saveSession(ctx, session); err != nil {
		return "", err
	}

	cfg := oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Scopes:      strings.Fields(req.Scope),
		Endpoint:    oauth2.Endpoint{AuthURL: req.AuthorizationEndpoint},
	}
	f.logger.DebugContext(ctx, "authorization session started", slog.Any("session", session))
	return cfg.AuthCodeURL(session.State, oauth2.S256ChallengeOption(session.CodeVerifier)), nil
}

func (f *pkceFlow) saveSession(ctx context.Context, session authDomain.PkceSession) error {
	if err := f.prefs.PutString(ctx, authDomain.KeyCodeVerifier, session.CodeVerifier); err != nil {
		return err
	}
	if err := f.prefs.PutString(ctx, authDomain.KeyState, session.State); err != nil {
		return err
	}
	return f.prefs.PutLong(ctx, authDomain.KeySessionCreatedAt, session.CreatedAt.UnixMilli())
}

// loadSession returns authDomain.ErrNoPkceSession when no attempt is active.
func (f *pkceFlow) loadSession(ctx context.Context) (authDomain.PkceSession, error) {
	verifier, err := f.prefs.GetString(ctx, authDomain.KeyCodeVerifier, "")
	if err != nil {
		return authDomain.PkceSession{}, err
	}
	state, err := f.prefs.GetString(ctx, authDomain.KeyState, "")
	if err != nil {
		return authDomain.PkceSession{}, err
	}
	createdAt, err := f.prefs.GetLong(ctx, authDomain.KeySessionCreatedAt, 0)
	if err != nil {
		return authDomain.PkceSession{}, err
	}
	if verifier == "" || state == "" {
		return authDomain.PkceSession{}, authDomain.ErrNoPkceSession
	}
	return authDomain.PkceSession{
		CodeVerifier:  verifier,
		CodeChallenge: f.generator.GenerateCodeChallenge(verifier),
		State:         state,
		CreatedAt:     time.UnixMilli(createdAt).UTC(),
	}, nil
}

func (f *pkceFlow) discardSession(ctx context.Context) error {
	for _, key := range []string{authDomain.KeyCodeVerifier, authDomain.KeyState, authDomain.KeySessionCreatedAt} {
		if err := f.prefs.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// reject discards the session and records the failed attempt.
func (f *pkceFlow) reject(ctx context.Context, cause error, reason string) error {
	if err := f.discardSession(ctx); err != nil {
		f.logger.ErrorContext(ctx, "failed to discard authorization session", slog.Any("error", err))
	}
	f.publisher.Publish(eventsDomain.AuthenticationAttempt(false, pkceMethod, ""))
	f.logger.WarnContext(ctx, "authorization response rejected", slog.String("reason", reason))
	return cause
}

func (f *pkceFlow) ValidateAuthorizationResponse(ctx context.Context, redirectURI string) (string, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		f.publisher.Publish(eventsDomain.ValidationFailure("redirect_uri", "unparseable"))
		return "", authDomain.ErrInvalidRedirect
	}
	query := parsed.Query()

	f.mu.Lock()
	defer f.mu.Unlock()

	session, err := f.loadSession(ctx)
	if err != nil {
		return "", err
	}

	state := query.Get("state")
	if subtle.ConstantTimeCompare([]byte(state), []byte(session.State)) != 1 {
		f.publisher.Publish(eventsDomain.SecurityThreat("CSRFStateMismatch", eventsDomain.LevelWarning, map[string]string{
			"check": "oauth2_state",
		}))
		return "", f.reject(ctx, authDomain.ErrCSRFStateMismatch, "state_mismatch")
	}

	if session.Expired(f.now(), f.ttl) {
		return "", f.reject(ctx, authDomain.ErrSessionExpired, "session_expired")
	}

	if code := query.Get("error"); code != "" {
		return "", f.reject(ctx, &authDomain.OAuthError{
			Code:        code,
			Description: query.Get("error_description"),
		}, "oauth_error")
	}

	code := query.Get("code")
	if strings.TrimSpace(code) == "" {
		return "", f.reject(ctx, authDomain.ErrMissingAuthorizationCode, "missing_code")
	}
	return code, nil
}

func (f *pkceFlow) ExchangeCodeForToken(ctx context.Context, code string) (*authDomain.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, err := f.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	if session.Expired(f.now(), f.ttl) {
		return nil, f.reject(ctx, authDomain.ErrSessionExpired, "session_expired")
	}

	response, err := f.endpoint.Exchange(ctx, code, session.CodeVerifier)
	if err != nil {
		return nil, f.reject(ctx, err, "exchange_failed")
	}

	if err := f.discardSession(ctx); err != nil {
		return nil, err
	}
	f.publisher.Publish(eventsDomain.AuthenticationAttempt(true, pkceMethod, ""))
	return response, nil
}

func (f *pkceFlow) RefreshAccessToken(ctx context.Context, refreshToken string) (*authDomain.TokenResponse, error) {
	if refreshToken == "" {
		return nil, authDomain.ErrNoRefreshToken
	}
	response, err := f.endpoint.Refresh(ctx, refreshToken)
	f.publisher.Publish(eventsDomain.AuthenticationAttempt(err == nil, "refresh_token", ""))
	return response, err
}

func (f *pkceFlow) RevokeToken(ctx context.Context, token, hint string) error {
	if err := f.endpoint.Revoke(ctx, token, hint); err != nil {
		return err
	}
	f.publisher.Publish(eventsDomain.SessionEvent("token_revoked", ""))
	return nil
}

func (f *pkceFlow) ClearSession(ctx context.Context) error {
	f.mu.Lock()
	err := f.discardSession(ctx)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.tokens.ClearTokens(ctx)
}
