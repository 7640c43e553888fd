package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	authService "github.com/allisson/trustcore/internal/auth/service"
	authUseCase "github.com/allisson/trustcore/internal/auth/usecase"
)

type authComponents struct {
	tokenManager  authUseCase.TokenManager
	tokenEndpoint authUseCase.TokenEndpoint
	pkceFlow      authUseCase.OAuth2PkceFlow
	authenticator *authUseCase.Authenticator
	apiClient     *http.Client

	tokenManagerInit  sync.Once
	tokenEndpointInit sync.Once
	pkceFlowInit      sync.Once
	authenticatorInit sync.Once
	apiClientInit     sync.Once
}

// TokenManager returns the credential lifecycle manager.
func (c *Container) TokenManager(ctx context.Context) (authUseCase.TokenManager, error) {
	err := c.lazy(&c.tokenManagerInit, "tokenManager", func() error {
		prefs, err := c.PreferenceStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to get preference store for token manager: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for token manager: %w", err)
		}
		c.tokenManager = authUseCase.NewTokenManager(
			prefs,
			authService.NewTokenParser(),
			c.config.SessionIdleTimeout,
			bus,
			c.Logger(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenManager, nil
}

// TokenEndpoint returns the OAuth2 token endpoint client. Its HTTP client
// enforces the configured trust policy.
func (c *Container) TokenEndpoint() (authUseCase.TokenEndpoint, error) {
	err := c.lazy(&c.tokenEndpointInit, "tokenEndpoint", func() error {
		factory, err := c.ClientFactory()
		if err != nil {
			return fmt.Errorf("failed to get client factory for token endpoint: %w", err)
		}
		c.tokenEndpoint = authService.NewOAuth2TokenEndpoint(
			authService.TokenEndpointConfig{
				ClientID:      c.config.OAuthClientID,
				RedirectURI:   c.config.OAuthRedirectURI,
				TokenURL:      c.config.OAuthTokenEndpoint,
				RevocationURL: c.config.OAuthRevocationEndpoint,
				Scopes:        strings.Fields(c.config.OAuthScope),
			},
			factory.NewClient(),
			c.Logger(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenEndpoint, nil
}

// PkceFlow returns the authorization code with PKCE flow.
func (c *Container) PkceFlow(ctx context.Context) (authUseCase.OAuth2PkceFlow, error) {
	err := c.lazy(&c.pkceFlowInit, "pkceFlow", func() error {
		prefs, err := c.PreferenceStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to get preference store for pkce flow: %w", err)
		}
		tokens, err := c.TokenManager(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token manager for pkce flow: %w", err)
		}
		endpoint, err := c.TokenEndpoint()
		if err != nil {
			return fmt.Errorf("failed to get token endpoint for pkce flow: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for pkce flow: %w", err)
		}
		c.pkceFlow = authUseCase.NewOAuth2PkceFlow(
			prefs,
			tokens,
			endpoint,
			authService.NewPkceGenerator(),
			c.config.PkceSessionTTL,
			bus,
			c.Logger(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.pkceFlow, nil
}

// Authenticator returns the component that serves fresh access tokens and
// collapses concurrent refreshes.
func (c *Container) Authenticator(ctx context.Context) (*authUseCase.Authenticator, error) {
	err := c.lazy(&c.authenticatorInit, "authenticator", func() error {
		tokens, err := c.TokenManager(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token manager for authenticator: %w", err)
		}
		flow, err := c.PkceFlow(ctx)
		if err != nil {
			return fmt.Errorf("failed to get pkce flow for authenticator: %w", err)
		}
		bus, err := c.EventBus()
		if err != nil {
			return fmt.Errorf("failed to get event bus for authenticator: %w", err)
		}
		c.authenticator = authUseCase.NewAuthenticator(tokens, flow, bus, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.authenticator, nil
}

// APIClient returns an HTTP client that enforces the trust policy, attaches
// the bearer token and refreshes it once on a 401.
func (c *Container) APIClient(ctx context.Context) (*http.Client, error) {
	err := c.lazy(&c.apiClientInit, "apiClient", func() error {
		factory, err := c.ClientFactory()
		if err != nil {
			return fmt.Errorf("failed to get client factory for api client: %w", err)
		}
		authenticator, err := c.Authenticator(ctx)
		if err != nil {
			return fmt.Errorf("failed to get authenticator for api client: %w", err)
		}
		c.apiClient = factory.NewAuthenticatedClient(authenticator)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.apiClient, nil
}
