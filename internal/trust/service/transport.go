package service

import (
	"log/slog"
	"net/http"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	trustDomain "github.com/allisson/trustcore/internal/trust/domain"
)

// Security headers added to every outbound request.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
}

// SecurityHeadersTransport rejects non-https requests before they are sent
// and adds the security headers and User-Agent.
type SecurityHeadersTransport struct {
	Base      http.RoundTripper
	UserAgent string
	Publisher eventsDomain.Publisher
}

// RoundTrip implements http.RoundTripper.
func (t *SecurityHeadersTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		closeBody(req)
		return nil, trustDomain.ErrInsecureScheme
	}

	req = req.Clone(req.Context())
	for name, value := range securityHeaders {
		req.Header.Set(name, value)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if t.Publisher != nil {
		t.Publisher.Publish(eventsDomain.APIRequestEvent(req.URL.Host+req.URL.Path, req.Method, resp.StatusCode))
	}
	return resp, nil
}

func (t *SecurityHeadersTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

// BearerTransport adds "Authorization: Bearer <token>". On a 401 it asks an
// UnauthorizedHandler for a replacement and retries once when the request
// body can be replayed.
type BearerTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	token, err := t.Tokens.AccessToken(ctx)
	if err != nil {
		closeBody(req)
		return nil, err
	}

	resp, err := t.Base.RoundTrip(withBearer(req, token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	handler, ok := t.Tokens.(UnauthorizedHandler)
	if !ok || (req.Body != nil && req.Body != http.NoBody && req.GetBody == nil) {
		return resp, nil
	}

	replacement, err := handler.HandleUnauthorized(ctx, token)
	if err != nil || replacement == token {
		if err != nil && t.Logger != nil {
			t.Logger.WarnContext(ctx, "token replacement after 401 failed", slog.Any("error", err))
		}
		return resp, nil
	}

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}
	_ = resp.Body.Close()
	return t.Base.RoundTrip(withBearer(retry, replacement))
}

func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	return out
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
