package usecase

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

const refreshFlightKey = "refresh"

// Authenticator hands out valid bearer tokens, refreshing through a single
// in-flight exchange no matter how many callers observe an expired token.
type Authenticator struct {
	tokens    TokenManager
	flow      OAuth2PkceFlow
	publisher eventsDomain.Publisher
	logger    *slog.Logger
	group     singleflight.Group
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(
	tokens TokenManager,
	flow OAuth2PkceFlow,
	publisher eventsDomain.Publisher,
	logger *slog.Logger,
) *Authenticator {
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &Authenticator{tokens: tokens, flow: flow, publisher: publisher, logger: logger}
}

// AccessToken returns a non-expired access token, refreshing if needed.
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	token, err := a.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if !a.tokens.IsTokenExpired(token) {
		return token, nil
	}
	return a.refresh(ctx, token)
}

// HandleUnauthorized is called after the server rejected rejectedToken. It
// refreshes unless another caller already replaced that token.
func (a *Authenticator) HandleUnauthorized(ctx context.Context, rejectedToken string) (string, error) {
	return a.refresh(ctx, rejectedToken)
}

// refresh coalesces concurrent refreshes. Inside the flight the stored token
// is re-read: if it no longer equals stale, a previous flight already
// replaced it and no exchange is made.
func (a *Authenticator) refresh(ctx context.Context, stale string) (string, error) {
	ch := a.group.DoChan(refreshFlightKey, func() (any, error) {
		// one caller's cancellation must not fail the others
		flightCtx := context.WithoutCancel(ctx)

		current, err := a.tokens.AccessToken(flightCtx)
		if err != nil {
			return "", err
		}
		if current != stale && !a.tokens.IsTokenExpired(current) {
			return current, nil
		}

		refreshToken, err := a.tokens.RefreshToken(flightCtx)
		if err != nil {
			return "", err
		}

		response, err := a.flow.RefreshAccessToken(flightCtx, refreshToken)
		if err != nil {
			var oauthErr *authDomain.OAuthError
			if errors.As(err, &oauthErr) {
				a.logger.WarnContext(flightCtx, "refresh rejected, clearing credential", slog.String("code", oauthErr.Code))
				if clearErr := a.tokens.ClearTokens(flightCtx); clearErr != nil {
					a.logger.ErrorContext(flightCtx, "failed to clear credential", slog.Any("error", clearErr))
				}
			}
			return "", err
		}

		next := response.RefreshToken
		if next == "" {
			next = refreshToken
		}
		if err := a.tokens.SaveTokens(flightCtx, response.AccessToken, next); err != nil {
			return "", err
		}
		return response.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	}
}

// CompleteLogin validates the redirect, exchanges the code and stores the
// resulting credential.
func (a *Authenticator) CompleteLogin(ctx context.Context, redirectURI string) (authDomain.Credential, error) {
	code, err := a.flow.ValidateAuthorizationResponse(ctx, redirectURI)
	if err != nil {
		return authDomain.Credential{}, err
	}
	response, err := a.flow.ExchangeCodeForToken(ctx, code)
	if err != nil {
		return authDomain.Credential{}, err
	}
	if err := a.tokens.SaveTokens(ctx, response.AccessToken, response.RefreshToken); err != nil {
		return authDomain.Credential{}, err
	}
	return a.tokens.Credential(ctx)
}

// Logout revokes the refresh token when possible and clears all state.
// Revocation failures are logged and do not prevent local cleanup.
func (a *Authenticator) Logout(ctx context.Context) error {
	if refreshToken, err := a.tokens.RefreshToken(ctx); err == nil {
		if err := a.flow.RevokeToken(ctx, refreshToken, "refresh_token"); err != nil &&
			!errors.Is(err, authDomain.ErrRevocationUnsupported) {
			a.logger.WarnContext(ctx, "token revocation failed", slog.Any("error", err))
		}
	}
	if err := a.flow.ClearSession(ctx); err != nil {
		return err
	}
	a.publisher.Publish(eventsDomain.SessionEvent("logout", ""))
	return nil
}
