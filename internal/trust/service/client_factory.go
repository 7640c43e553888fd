package service

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

// DefaultTimeout bounds connect, handshake, response headers and the whole
// request.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent when ClientOptions.UserAgent is empty.
const DefaultUserAgent = "trustcore/1.0"

// ClientOptions tunes the clients built by ClientFactory.
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	// RootCAs replaces the system roots. Nil uses the system pool.
	RootCAs *x509.CertPool
}

// TokenSource supplies bearer tokens.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// UnauthorizedHandler replaces a token the server rejected with a 401.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context, rejectedToken string) (string, error)
}

// ClientFactory builds pinned HTTP clients.
type ClientFactory struct {
	validator *Validator
	opts      ClientOptions
	publisher eventsDomain.Publisher
	logger    *slog.Logger
}

// NewClientFactory creates a ClientFactory.
func NewClientFactory(
	validator *Validator,
	opts ClientOptions,
	publisher eventsDomain.Publisher,
	logger *slog.Logger,
) *ClientFactory {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &ClientFactory{validator: validator, opts: opts, publisher: publisher, logger: logger}
}

// Transport returns the pinned base transport. Direct connections are
// verified against the dialed host; proxied connections against SNI.
func (f *ClientFactory) Transport() *http.Transport {
	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSHandshakeTimeout = f.opts.Timeout
	transport.ResponseHeaderTimeout = f.opts.Timeout
	transport.TLSClientConfig = &tls.Config{
		MinVersion:       tls.VersionTLS12,
		RootCAs:          f.opts.RootCAs,
		VerifyConnection: f.validator.VerifyConnection,
	}

	dialer := &net.Dialer{Timeout: f.opts.Timeout, KeepAlive: 30 * time.Second}
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()

		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    f.validator.TLSConfig(host, f.opts.RootCAs),
		}
		return tlsDialer.DialContext(ctx, network, addr)
	}
	return transport
}

// NewClient returns a client that rejects plain http, pins TLS and adds the
// security headers.
func (f *ClientFactory) NewClient() *http.Client {
	return &http.Client{
		Timeout: f.opts.Timeout,
		Transport: &SecurityHeadersTransport{
			Base:      f.Transport(),
			UserAgent: f.opts.UserAgent,
			Publisher: f.publisher,
		},
	}
}

// NewAuthenticatedClient returns NewClient with bearer injection. When
// tokens also implements UnauthorizedHandler a 401 triggers one retry with
// the replacement token.
func (f *ClientFactory) NewAuthenticatedClient(tokens TokenSource) *http.Client {
	client := f.NewClient()
	client.Transport = &BearerTransport{
		Base:   client.Transport,
		Tokens: tokens,
		Logger: f.logger,
	}
	return client
}
