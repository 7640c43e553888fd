package service

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"net"
	"strconv"
	"time"

	apperrors "github.com/allisson/trustcore/internal/errors"
	trustDomain "github.com/allisson/trustcore/internal/trust/domain"
)

// ProductionEnvironment disables pin discovery regardless of configuration.
const ProductionEnvironment = "production"

// DiscoveredPin is one certificate of a discovered chain.
type DiscoveredPin struct {
	Subject string          `json:"subject"`
	Pin     trustDomain.Pin `json:"pin"`
}

// PinDiscoverer reads the chain a server presents so its pins can be copied
// into a pin file. It is a debugging aid and never used on a request path.
type PinDiscoverer struct {
	enabled     bool
	environment string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewPinDiscoverer creates a PinDiscoverer.
func NewPinDiscoverer(enabled bool, environment string, timeout time.Duration, logger *slog.Logger) *PinDiscoverer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PinDiscoverer{enabled: enabled, environment: environment, timeout: timeout, logger: logger}
}

// DiscoverPin connects to host:port without validating the chain and returns
// the pin of every presented certificate, leaf first.
func (d *PinDiscoverer) DiscoverPin(ctx context.Context, host string, port int) ([]DiscoveredPin, error) {
	if !d.enabled || d.environment == ProductionEnvironment {
		return nil, trustDomain.ErrDiscoveryDisabled
	}
	if port <= 0 {
		port = 443
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	dialer := &tls.Dialer{Config: &tls.Config{
		ServerName: host,
		// #nosec G402 -- discovery reports whatever chain is presented
		InsecureSkipVerify: true,
	}}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect for pin discovery")
	}
	defer func() { _ = conn.Close() }()

	state := conn.(*tls.Conn).ConnectionState()
	pins := describe(state.PeerCertificates)
	d.logger.Warn("pin discovery performed, do not use in production", slog.String("host", host))
	return pins, nil
}

// PinsFromPEM returns the pin of every certificate in a PEM bundle.
func PinsFromPEM(data []byte) ([]DiscoveredPin, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed certificate: "+err.Error())
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no certificate found in PEM data")
	}
	return describe(certs), nil
}

func describe(certs []*x509.Certificate) []DiscoveredPin {
	pins := make([]DiscoveredPin, 0, len(certs))
	for _, cert := range certs {
		pins = append(pins, DiscoveredPin{
			Subject: cert.Subject.String(),
			Pin:     trustDomain.ComputePin(cert),
		})
	}
	return pins
}
