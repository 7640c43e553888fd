package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/cmd/app/commands"
)

func getSecretCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "secret",
			Usage: "Encrypt and decrypt values under named keys",
			Commands: []*cli.Command{
				{
					Name:      "encrypt",
					Usage:     "Encrypt a value and print the base64 blob",
					ArgsUsage: "<plaintext|->",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "key",
							Aliases:  []string{"k"},
							Required: true,
							Usage:    "Key alias (created on first use)",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						if cmd.Args().Len() != 1 {
							return fmt.Errorf("expected exactly one plaintext argument")
						}
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.SecretStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunSecretEncrypt(
							ctx,
							store,
							container.Logger(),
							commands.DefaultIO(),
							cmd.String("key"),
							cmd.Args().First(),
						)
					},
				},
				{
					Name:      "decrypt",
					Usage:     "Decrypt a base64 blob",
					ArgsUsage: "<blob>",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "key",
							Aliases:  []string{"k"},
							Required: true,
							Usage:    "Key alias the blob was encrypted under",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						if cmd.Args().Len() != 1 {
							return fmt.Errorf("expected exactly one blob argument")
						}
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.SecretStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunSecretDecrypt(
							ctx,
							store,
							container.Logger(),
							commands.DefaultIO().Writer,
							cmd.String("key"),
							cmd.Args().First(),
						)
					},
				},
				{
					Name:  "rotate-key",
					Usage: "Delete a key and generate its replacement",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "old", Required: true, Usage: "Alias to delete"},
						&cli.StringFlag{Name: "new", Required: true, Usage: "Alias to generate"},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.SecretStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunRotateKey(
							ctx,
							store,
							container.Logger(),
							commands.DefaultIO().Writer,
							cmd.String("old"),
							cmd.String("new"),
						)
					},
				},
				{
					Name:  "delete-key",
					Usage: "Delete a key",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "key",
							Aliases:  []string{"k"},
							Required: true,
							Usage:    "Key alias",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.SecretStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunDeleteKey(
							ctx,
							store,
							container.Logger(),
							commands.DefaultIO().Writer,
							cmd.String("key"),
						)
					},
				},
			},
		},
	}
}
