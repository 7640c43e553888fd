package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/cmd/app/commands"
	authDomain "github.com/allisson/trustcore/internal/auth/domain"
)

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "auth-url",
			Usage: "Start an OAuth2 PKCE login and print the authorization URL",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newBootstrappedContainer(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				flow, err := container.PkceFlow(ctx)
				if err != nil {
					return err
				}
				cfg := container.Config()
				return commands.RunAuthURL(
					ctx,
					flow,
					container.Logger(),
					commands.DefaultIO().Writer,
					authDomain.AuthorizationRequest{
						AuthorizationEndpoint: cfg.OAuthAuthorizationEndpoint,
						ClientID:              cfg.OAuthClientID,
						RedirectURI:           cfg.OAuthRedirectURI,
						Scope:                 cfg.OAuthScope,
					},
				)
			},
		},
		{
			Name:      "auth-complete",
			Usage:     "Finish a login with the redirect URI the browser landed on",
			ArgsUsage: "<redirect-uri>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if cmd.Args().Len() != 1 {
					return fmt.Errorf("expected exactly one redirect URI argument")
				}
				container, err := newBootstrappedContainer(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				authenticator, err := container.Authenticator(ctx)
				if err != nil {
					return err
				}
				return commands.RunAuthComplete(
					ctx,
					authenticator,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Args().First(),
				)
			},
		},
		{
			Name:  "logout",
			Usage: "Revoke the refresh token and clear the stored session",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newBootstrappedContainer(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				authenticator, err := container.Authenticator(ctx)
				if err != nil {
					return err
				}
				return commands.RunLogout(ctx, authenticator, container.Logger(), commands.DefaultIO().Writer)
			},
		},
	}
}
