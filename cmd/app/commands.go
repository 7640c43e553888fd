package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/internal/app"
	"github.com/allisson/trustcore/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getSecretCommands()...)
	cmds = append(cmds, getPrefsCommands()...)
	cmds = append(cmds, getAuthCommands()...)
	cmds = append(cmds, getTrustCommands()...)
	return cmds
}

// newContainer loads and validates the configuration.
func newContainer() (*app.Container, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.NewContainer(cfg), nil
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

// newBootstrappedContainer is newContainer followed by the startup integrity
// scan. Commands touching secrets or sessions refuse to run when the policy
// blocks.
func newBootstrappedContainer(ctx context.Context) (*app.Container, error) {
	container, err := newContainer()
	if err != nil {
		return nil, err
	}
	if _, err := container.Bootstrap(ctx); err != nil {
		_ = container.Shutdown(ctx)
		return nil, err
	}
	return container, nil
}

// newLoggerOnlyContainer skips validation for commands that run before the
// environment is fully configured.
func newLoggerOnlyContainer() *app.Container {
	return app.NewContainer(config.Load())
}
