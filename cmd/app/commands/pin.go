package commands

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	trustService "github.com/allisson/trustcore/internal/trust/service"
)

// PinDiscoverer reads the chain a server presents.
type PinDiscoverer interface {
	DiscoverPin(ctx context.Context, host string, port int) ([]trustService.DiscoveredPin, error)
}

// RunPinDiscover prints the pin of every certificate host presents. Only
// available outside production with discovery enabled.
func RunPinDiscover(ctx context.Context, discoverer PinDiscoverer, writer io.Writer, target, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	host, port, err := splitHostPort(target)
	if err != nil {
		return err
	}

	pins, err := discoverer.DiscoverPin(ctx, host, port)
	if err != nil {
		return fmt.Errorf("failed to discover pins: %w", err)
	}
	return writePins(writer, pins, format)
}

// RunPinHash prints the pin of every certificate in a PEM file.
func RunPinHash(writer io.Writer, path, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read certificate file: %w", err)
	}
	pins, err := trustService.PinsFromPEM(data)
	if err != nil {
		return err
	}
	return writePins(writer, pins, format)
}

func writePins(writer io.Writer, pins []trustService.DiscoveredPin, format string) error {
	if format == "json" {
		return writeJSON(writer, pins)
	}
	for _, p := range pins {
		if _, err := fmt.Fprintf(writer, "%s\n  %s\n", p.Subject, p.Pin); err != nil {
			return err
		}
	}
	return nil
}

// splitHostPort accepts "host" or "host:port". The port defaults to 443.
func splitHostPort(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, 443, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port: %s", portStr)
	}
	return host, port, nil
}
