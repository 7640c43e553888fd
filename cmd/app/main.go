// Package main provides the trustcore command line entry point.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// version is stamped at build time with -ldflags "-X main.version=<tag>".
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:     "trustcore",
		Usage:    "Client-side security core: secrets, preferences, sessions, trust and integrity",
		Version:  version,
		Commands: getCommands(version),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
