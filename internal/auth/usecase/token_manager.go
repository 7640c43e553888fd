package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
	authService "github.com/allisson/trustcore/internal/auth/service"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	prefsDomain "github.com/allisson/trustcore/internal/preferences/domain"
	prefsUsecase "github.com/allisson/trustcore/internal/preferences/usecase"
)

type tokenManager struct {
	prefs       prefsUsecase.SecurePreferenceStore
	parser      authService.TokenParser
	idleTimeout time.Duration
	publisher   eventsDomain.Publisher
	logger      *slog.Logger
	now         func() time.Time

	mu        sync.Mutex
	lastState authDomain.SessionState
}

// NewTokenManager creates a TokenManager persisting through prefs. A
// non-positive idleTimeout selects authDomain.DefaultSessionIdleTimeout.
func NewTokenManager(
	prefs prefsUsecase.SecurePreferenceStore,
	parser authService.TokenParser,
	idleTimeout time.Duration,
	publisher eventsDomain.Publisher,
	logger *slog.Logger,
) TokenManager {
	if idleTimeout <= 0 {
		idleTimeout = authDomain.DefaultSessionIdleTimeout
	}
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &tokenManager{
		prefs:       prefs,
		parser:      parser,
		idleTimeout: idleTimeout,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (t *tokenManager) SaveTokens(ctx context.Context, accessToken, refreshToken string) error {
	if !t.parser.ValidateFormat(accessToken) {
		t.publisher.Publish(eventsDomain.ValidationFailure("access_token", "malformed"))
		return authDomain.ErrInvalidTokenFormat
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.prefs.PutString(ctx, prefsDomain.KeyAuthToken, accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := t.prefs.PutString(ctx, prefsDomain.KeyRefreshToken, refreshToken); err != nil {
			return err
		}
	} else if err := t.prefs.Remove(ctx, prefsDomain.KeyRefreshToken); err != nil {
		return err
	}

	userID := ""
	if claims, err := t.parser.ParseClaims(accessToken); err == nil {
		userID = claims.UserID
		if userID == "" {
			userID = claims.Subject
		}
	}
	if userID != "" {
		if err := t.prefs.PutString(ctx, prefsDomain.KeyUserID, userID); err != nil {
			return err
		}
	}

	if err := t.prefs.PutLong(ctx, prefsDomain.KeyLastAuthTime, t.now().UnixMilli()); err != nil {
		return err
	}

	t.lastState = authDomain.StateValid
	t.publisher.Publish(eventsDomain.SessionEvent("tokens_saved", userID))
	return nil
}

func (t *tokenManager) AccessToken(ctx context.Context) (string, error) {
	token, err := t.prefs.GetString(ctx, prefsDomain.KeyAuthToken, "")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", authDomain.ErrNoCredential
	}
	return token, nil
}

func (t *tokenManager) RefreshToken(ctx context.Context) (string, error) {
	token, err := t.prefs.GetString(ctx, prefsDomain.KeyRefreshToken, "")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", authDomain.ErrNoRefreshToken
	}
	return token, nil
}

func (t *tokenManager) Credential(ctx context.Context) (authDomain.Credential, error) {
	access, err := t.AccessToken(ctx)
	if err != nil {
		return authDomain.Credential{}, err
	}
	refresh, err := t.prefs.GetString(ctx, prefsDomain.KeyRefreshToken, "")
	if err != nil {
		return authDomain.Credential{}, err
	}
	lastAuth, err := t.prefs.GetLong(ctx, prefsDomain.KeyLastAuthTime, 0)
	if err != nil {
		return authDomain.Credential{}, err
	}

	credential := authDomain.Credential{
		AccessToken:  access,
		RefreshToken: refresh,
		IssuedAt:     time.UnixMilli(lastAuth).UTC(),
	}
	if claims, err := t.parser.ParseClaims(access); err == nil {
		credential.Claims = claims
	}
	return credential, nil
}

func (t *tokenManager) IsTokenExpired(token string) bool {
	exp, err := t.parser.Expiration(token)
	if err != nil {
		return true
	}
	return !t.now().Before(exp)
}

func (t *tokenManager) TokenExpiration(token string) (time.Time, error) {
	return t.parser.Expiration(token)
}

func (t *tokenManager) ParseClaims(token string) (authDomain.Claims, error) {
	return t.parser.ParseClaims(token)
}

func (t *tokenManager) ValidateTokenFormat(token string) bool {
	return t.parser.ValidateFormat(token)
}

// evaluate derives the state from storage. Storage failures count as expired.
func (t *tokenManager) evaluate(ctx context.Context) authDomain.SessionState {
	token, err := t.AccessToken(ctx)
	if errors.Is(err, authDomain.ErrNoCredential) {
		return authDomain.StateNoCredential
	}
	if err != nil {
		t.logger.WarnContext(ctx, "failed to read access token", slog.Any("error", err))
		return authDomain.StateExpired
	}

	lastAuth, err := t.prefs.GetLong(ctx, prefsDomain.KeyLastAuthTime, 0)
	if err != nil {
		t.logger.WarnContext(ctx, "failed to read last activity", slog.Any("error", err))
		return authDomain.StateExpired
	}
	if t.now().Sub(time.UnixMilli(lastAuth)) >= t.idleTimeout {
		return authDomain.StateExpired
	}
	if t.IsTokenExpired(token) {
		return authDomain.StateExpired
	}
	return authDomain.StateValid
}

func (t *tokenManager) State(ctx context.Context) authDomain.SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transition(ctx, t.evaluate(ctx))
}

// transition records state and emits a SESSION event when a credential
// moves to Expired.
func (t *tokenManager) transition(ctx context.Context, state authDomain.SessionState) authDomain.SessionState {
	if state == authDomain.StateExpired && t.lastState != authDomain.StateExpired {
		userID, _ := t.prefs.GetString(ctx, prefsDomain.KeyUserID, "")
		t.publisher.Publish(eventsDomain.SessionEvent("session_expired", userID))
	}
	t.lastState = state
	return state
}

func (t *tokenManager) IsSessionValid(ctx context.Context) bool {
	return t.State(ctx) == authDomain.StateValid
}

func (t *tokenManager) UpdateActivity(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prefs.PutLong(ctx, prefsDomain.KeyLastAuthTime, t.now().UnixMilli())
}

func (t *tokenManager) ClearTokens(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	present, err := t.prefs.Contains(ctx, prefsDomain.KeyAuthToken)
	if err != nil {
		return err
	}
	userID, _ := t.prefs.GetString(ctx, prefsDomain.KeyUserID, "")

	for _, key := range []string{
		prefsDomain.KeyAuthToken,
		prefsDomain.KeyRefreshToken,
		prefsDomain.KeyUserID,
		prefsDomain.KeySessionID,
		prefsDomain.KeyLastAuthTime,
	} {
		if err := t.prefs.Remove(ctx, key); err != nil {
			return err
		}
	}

	t.lastState = authDomain.StateNoCredential
	if present {
		t.publisher.Publish(eventsDomain.SessionEvent("tokens_cleared", userID))
	}
	return nil
}
