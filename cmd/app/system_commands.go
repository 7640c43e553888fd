package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/cmd/app/commands"
	"github.com/allisson/trustcore/internal/config"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "serve",
			Usage: "Start the local diagnostics and metrics servers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations for the SQL preference backends",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				cfg := container.Config()
				if cfg.PrefsBackend == config.BackendBolt {
					return commands.RunMigrations(nil, container.Logger(), cfg.PrefsBackend, commands.MigrationsRoot)
				}
				db, err := container.DB(ctx)
				if err != nil {
					return err
				}
				return commands.RunMigrations(db, container.Logger(), cfg.PrefsBackend, commands.MigrationsRoot)
			},
		},
		{
			Name:  "create-kek",
			Usage: "Generate a local key encryption key URI for KEK_URI",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := newLoggerOnlyContainer()
				return commands.RunCreateKek(
					ctx,
					cryptoService.NewKMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "scan",
			Usage: "Run the runtime integrity scan and print the report",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				scanner, err := container.IntegrityScanner(ctx)
				if err != nil {
					return err
				}
				policy, err := container.IntegrityPolicy()
				if err != nil {
					return err
				}

				return commands.RunScan(
					ctx,
					scanner,
					policy,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
