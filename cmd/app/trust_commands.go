package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/cmd/app/commands"
)

func getTrustCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "pin",
			Usage: "Compute certificate pins for the pin file",
			Commands: []*cli.Command{
				{
					Name:      "discover",
					Usage:     "Print the pins of the chain a server presents (development only)",
					ArgsUsage: "<host[:port]>",
					Flags:     []cli.Flag{formatFlag()},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						if cmd.Args().Len() != 1 {
							return fmt.Errorf("expected exactly one host argument")
						}
						container, err := newContainer()
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						return commands.RunPinDiscover(
							ctx,
							container.PinDiscoverer(),
							commands.DefaultIO().Writer,
							cmd.Args().First(),
							cmd.String("format"),
						)
					},
				},
				{
					Name:      "hash",
					Usage:     "Print the pins of every certificate in a PEM file",
					ArgsUsage: "<cert.pem>",
					Flags:     []cli.Flag{formatFlag()},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						if cmd.Args().Len() != 1 {
							return fmt.Errorf("expected exactly one certificate file argument")
						}
						return commands.RunPinHash(commands.DefaultIO().Writer, cmd.Args().First(), cmd.String("format"))
					},
				},
			},
		},
	}
}
