package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
)

// AuthorizationURLGenerator starts an authorization code grant.
type AuthorizationURLGenerator interface {
	GenerateAuthorizationURL(ctx context.Context, req authDomain.AuthorizationRequest) (string, error)
}

// LoginManager completes and ends a login.
type LoginManager interface {
	CompleteLogin(ctx context.Context, redirectURI string) (authDomain.Credential, error)
	Logout(ctx context.Context) error
}

// RunAuthURL creates a PKCE session and prints the URL to open in a browser.
func RunAuthURL(
	ctx context.Context,
	flow AuthorizationURLGenerator,
	logger *slog.Logger,
	writer io.Writer,
	req authDomain.AuthorizationRequest,
) error {
	url, err := flow.GenerateAuthorizationURL(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate authorization URL: %w", err)
	}

	logger.Info("authorization session started", slog.String("client_id", req.ClientID))
	_, err = fmt.Fprintln(writer, url)
	return err
}

// RunAuthComplete validates the redirect the authorization server sent back,
// exchanges the code and stores the credential. Tokens are never printed.
func RunAuthComplete(
	ctx context.Context,
	logins LoginManager,
	logger *slog.Logger,
	writer io.Writer,
	redirectURI string,
) error {
	credential, err := logins.CompleteLogin(ctx, redirectURI)
	if err != nil {
		return fmt.Errorf("failed to complete login: %w", err)
	}

	logger.Info("login completed", slog.Any("credential", credential))
	_, _ = fmt.Fprintln(writer, "Login completed")
	if !credential.Claims.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintf(writer, "Access token expires at: %s\n", credential.Claims.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// RunLogout revokes the refresh token when possible and clears local state.
func RunLogout(ctx context.Context, logins LoginManager, logger *slog.Logger, writer io.Writer) error {
	if err := logins.Logout(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	logger.Info("logged out")
	_, err := fmt.Fprintln(writer, "Logged out")
	return err
}
