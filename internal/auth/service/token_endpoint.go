package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
	apperrors "github.com/allisson/trustcore/internal/errors"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 16

// TokenEndpointConfig describes a public OAuth2 client.
type TokenEndpointConfig struct {
	ClientID      string
	RedirectURI   string
	TokenURL      string
	RevocationURL string
	Scopes        []string
}

// OAuth2TokenEndpoint talks to the authorization server's token and
// revocation endpoints through golang.org/x/oauth2.
type OAuth2TokenEndpoint struct {
	config        *oauth2.Config
	revocationURL string
	client        *http.Client
	logger        *slog.Logger
}

// NewOAuth2TokenEndpoint creates a token endpoint client. The client is the
// pinned transport built by the trust package.
func NewOAuth2TokenEndpoint(cfg TokenEndpointConfig, client *http.Client, logger *slog.Logger) *OAuth2TokenEndpoint {
	return &OAuth2TokenEndpoint{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		revocationURL: cfg.RevocationURL,
		client:        client,
		logger:        logger,
	}
}

func (e *OAuth2TokenEndpoint) withClient(ctx context.Context) context.Context {
	if e.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, e.client)
}

// Exchange redeems an authorization code, proving possession of verifier.
func (e *OAuth2TokenEndpoint) Exchange(ctx context.Context, code, verifier string) (*authDomain.TokenResponse, error) {
	token, err := e.config.Exchange(e.withClient(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, mapTokenError(err)
	}
	return toTokenResponse(token), nil
}

// Refresh obtains a new access token with refreshToken.
func (e *OAuth2TokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*authDomain.TokenResponse, error) {
	source := e.config.TokenSource(e.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, mapTokenError(err)
	}
	return toTokenResponse(token), nil
}

// Revoke invalidates token per RFC 7009. hint is "access_token",
// "refresh_token" or empty.
func (e *OAuth2TokenEndpoint) Revoke(ctx context.Context, token, hint string) error {
	if e.revocationURL == "" {
		return authDomain.ErrRevocationUnsupported
	}

	form := url.Values{
		"token":     {token},
		"client_id": {e.config.ClientID},
	}
	if hint != "" {
		form.Set("token_type_hint", hint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrap(err, "failed to build revocation request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := e.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.Wrap(authDomain.ErrTokenEndpoint, err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return &authDomain.OAuthError{Code: payload.Error, Description: payload.ErrorDescription}
	}

	e.logger.WarnContext(ctx, "token revocation failed", slog.Int("status", resp.StatusCode))
	return apperrors.Wrap(authDomain.ErrTokenEndpoint, "revocation returned "+resp.Status)
}

func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
		return &authDomain.OAuthError{Code: retrieveErr.ErrorCode, Description: retrieveErr.ErrorDescription}
	}
	return apperrors.Wrap(authDomain.ErrTokenEndpoint, err.Error())
}

func toTokenResponse(token *oauth2.Token) *authDomain.TokenResponse {
	response := &authDomain.TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		ExpiresIn:    token.ExpiresIn,
		Expiry:       token.Expiry,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		response.Scope = scope
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		response.IDToken = idToken
	}
	return response
}
