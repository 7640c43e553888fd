package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/cmd/app/commands"
)

func typeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "type",
		Aliases: []string{"t"},
		Value:   commands.PrefTypeString,
		Usage:   "Value type: string, bool, int or long",
	}
}

func getPrefsCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "prefs",
			Usage: "Read and write encrypted preferences",
			Commands: []*cli.Command{
				{
					Name:      "get",
					Usage:     "Print a preference value",
					ArgsUsage: "<key>",
					Flags: []cli.Flag{
						typeFlag(),
						&cli.StringFlag{
							Name:    "default",
							Aliases: []string{"d"},
							Usage:   "Value printed when the key is missing",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						if cmd.Args().Len() != 1 {
							return fmt.Errorf("expected exactly one key argument")
						}
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.PreferenceStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunPrefsGet(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.Args().First(),
							cmd.String("type"),
							cmd.String("default"),
						)
					},
				},
				{
					Name:      "put",
					Usage:     "Store a preference value",
					ArgsUsage: "<key> <value|->",
					Flags:     []cli.Flag{typeFlag()},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						if cmd.Args().Len() != 2 {
							return fmt.Errorf("expected key and value arguments")
						}
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.PreferenceStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunPrefsPut(
							ctx,
							store,
							container.Logger(),
							commands.DefaultIO(),
							cmd.Args().Get(0),
							cmd.String("type"),
							cmd.Args().Get(1),
						)
					},
				},
				{
					Name:      "remove",
					Usage:     "Remove a preference, or every preference with --all",
					ArgsUsage: "[key]",
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "all", Usage: "Remove every preference"},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.PreferenceStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunPrefsRemove(
							ctx,
							store,
							container.Logger(),
							commands.DefaultIO().Writer,
							cmd.Args().First(),
							cmd.Bool("all"),
						)
					},
				},
				{
					Name:  "dump",
					Usage: "Print every non-sensitive preference",
					Flags: []cli.Flag{formatFlag()},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container, err := newBootstrappedContainer(ctx)
						if err != nil {
							return err
						}
						defer func() { _ = container.Shutdown(ctx) }()

						store, err := container.PreferenceStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunPrefsDump(ctx, store, commands.DefaultIO().Writer, cmd.String("format"))
					},
				},
			},
		},
	}
}
