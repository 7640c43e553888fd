// Package service enforces certificate pins on outbound connections and
// builds the HTTP clients every other component uses.
package service

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"strings"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	apperrors "github.com/allisson/trustcore/internal/errors"
	trustDomain "github.com/allisson/trustcore/internal/trust/domain"
)

// Validator checks presented certificates against a PinSet. Pinning
// augments platform chain validation, it never replaces it.
type Validator struct {
	pins      *trustDomain.PinSet
	publisher eventsDomain.Publisher
	logger    *slog.Logger
}

// NewValidator creates a Validator. A nil or empty pin set pins nothing.
func NewValidator(pins *trustDomain.PinSet, publisher eventsDomain.Publisher, logger *slog.Logger) *Validator {
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &Validator{pins: pins, publisher: publisher, logger: logger}
}

// VerifyConnection checks cs against the pins of cs.ServerName. It has the
// signature of tls.Config.VerifyConnection.
func (v *Validator) VerifyConnection(cs tls.ConnectionState) error {
	return v.VerifyHost(cs.ServerName, cs)
}

// VerifyHost checks cs against the pins of host. Unpinned hosts pass.
func (v *Validator) VerifyHost(host string, cs tls.ConnectionState) error {
	expected, pinned := v.pins.Lookup(host)
	if !pinned {
		return nil
	}

	for _, cert := range pinnableCertificates(cs) {
		presented := trustDomain.ComputePin(cert)
		for _, pin := range expected {
			if presented.Equal(pin) {
				return nil
			}
		}
	}

	v.publisher.Publish(eventsDomain.SecurityThreat("CertificatePinMismatch", eventsDomain.LevelCritical, map[string]string{
		"host": host,
	}))
	v.logger.Error("certificate pin mismatch, connection aborted", slog.String("host", host))
	return apperrors.Wrap(trustDomain.ErrPinMismatch, host)
}

// pinnableCertificates returns the certificates of every verified chain,
// without duplicates. Extra certificates the peer sent outside a verified
// chain never count. Without verified chains only the leaf is considered.
func pinnableCertificates(cs tls.ConnectionState) []*x509.Certificate {
	if len(cs.VerifiedChains) == 0 {
		if len(cs.PeerCertificates) == 0 {
			return nil
		}
		return cs.PeerCertificates[:1]
	}

	seen := make(map[string]bool)
	var certs []*x509.Certificate
	for _, chain := range cs.VerifiedChains {
		for _, cert := range chain {
			key := string(cert.Raw)
			if !seen[key] {
				seen[key] = true
				certs = append(certs, cert)
			}
		}
	}
	return certs
}

// TLSConfig returns a client configuration pinned for host, requiring TLS 1.2
// or later. roots may be nil to use the system pool.
func (v *Validator) TLSConfig(host string, roots *x509.CertPool) *tls.Config {
	host = strings.ToLower(host)
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: host,
		RootCAs:    roots,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return v.VerifyHost(host, cs)
		},
	}
}

// Pinned reports whether host has pins.
func (v *Validator) Pinned(host string) bool {
	_, ok := v.pins.Lookup(host)
	return ok
}
