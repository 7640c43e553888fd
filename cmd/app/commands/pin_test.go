package commands

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	trustDomain "github.com/allisson/trustcore/internal/trust/domain"
	trustService "github.com/allisson/trustcore/internal/trust/service"
)

type mockPinDiscoverer struct {
	mock.Mock
}

func (m *mockPinDiscoverer) DiscoverPin(ctx context.Context, host string, port int) ([]trustService.DiscoveredPin, error) {
	args := m.Called(ctx, host, port)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trustService.DiscoveredPin), args.Error(1)
}

func writeCertificate(t *testing.T) (string, *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "api.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path, cert
}

func TestRunPinHash(t *testing.T) {
	path, cert := writeCertificate(t)
	pin := string(trustDomain.ComputePin(cert))

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunPinHash(&out, path, "text"))
		require.Equal(t, "CN=api.example.com\n  "+pin+"\n", out.String())
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunPinHash(&out, path, "json"))
		require.Contains(t, out.String(), `"pin": "`+pin+`"`)
	})

	t.Run("missing file", func(t *testing.T) {
		err := RunPinHash(&bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.pem"), "text")
		require.ErrorContains(t, err, "failed to read certificate file")
	})
}

func TestRunPinDiscover(t *testing.T) {
	ctx := context.Background()
	pins := []trustService.DiscoveredPin{{Subject: "CN=api.example.com", Pin: "sha256/AAAA"}}

	t.Run("default port", func(t *testing.T) {
		discoverer := &mockPinDiscoverer{}
		discoverer.On("DiscoverPin", ctx, "api.example.com", 443).Return(pins, nil)

		var out bytes.Buffer
		require.NoError(t, RunPinDiscover(ctx, discoverer, &out, "api.example.com", "text"))
		require.Contains(t, out.String(), "sha256/AAAA")
		discoverer.AssertExpectations(t)
	})

	t.Run("explicit port", func(t *testing.T) {
		discoverer := &mockPinDiscoverer{}
		discoverer.On("DiscoverPin", ctx, "api.example.com", 8443).Return(pins, nil)

		require.NoError(t, RunPinDiscover(ctx, discoverer, &bytes.Buffer{}, "api.example.com:8443", "json"))
		discoverer.AssertExpectations(t)
	})

	t.Run("invalid port", func(t *testing.T) {
		err := RunPinDiscover(ctx, &mockPinDiscoverer{}, &bytes.Buffer{}, "api.example.com:99999", "text")
		require.ErrorContains(t, err, "invalid port")
	})

	t.Run("disabled", func(t *testing.T) {
		discoverer := &mockPinDiscoverer{}
		discoverer.On("DiscoverPin", ctx, "api.example.com", 443).Return(nil, trustDomain.ErrDiscoveryDisabled)

		err := RunPinDiscover(ctx, discoverer, &bytes.Buffer{}, "api.example.com", "text")
		require.ErrorIs(t, err, trustDomain.ErrDiscoveryDisabled)
	})
}
