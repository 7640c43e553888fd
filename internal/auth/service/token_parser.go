package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authDomain "github.com/allisson/trustcore/internal/auth/domain"
	apperrors "github.com/allisson/trustcore/internal/errors"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles,omitempty"`
}

type jwtTokenParser struct {
	parser *jwt.Parser
}

// NewTokenParser creates a TokenParser backed by golang-jwt.
func NewTokenParser() TokenParser {
	return &jwtTokenParser{parser: jwt.NewParser()}
}

func (p *jwtTokenParser) ValidateFormat(token string) bool {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return false
	}
	for _, segment := range segments {
		if segment == "" {
			return false
		}
		if _, err := p.parser.DecodeSegment(segment); err != nil {
			return false
		}
	}
	return true
}

// parse decodes the payload segment only. The header is never consulted, so
// a missing or unregistered alg does not hide the claims.
func (p *jwtTokenParser) parse(token string) (*tokenClaims, error) {
	if !p.ValidateFormat(token) {
		return nil, authDomain.ErrInvalidTokenFormat
	}
	payload, err := p.parser.DecodeSegment(strings.Split(token, ".")[1])
	if err != nil {
		return nil, apperrors.Wrap(authDomain.ErrInvalidTokenFormat, err.Error())
	}
	claims := &tokenClaims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, apperrors.Wrap(authDomain.ErrInvalidTokenFormat, err.Error())
	}
	return claims, nil
}

func (p *jwtTokenParser) ParseClaims(token string) (authDomain.Claims, error) {
	claims, err := p.parse(token)
	if err != nil {
		return authDomain.Claims{}, err
	}

	out := authDomain.Claims{
		Subject:  claims.Subject,
		Issuer:   claims.Issuer,
		Audience: []string(claims.Audience),
		UserID:   claims.UserID,
		Email:    claims.Email,
		Roles:    claims.Roles,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (p *jwtTokenParser) Expiration(token string) (time.Time, error) {
	claims, err := p.parse(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, apperrors.Wrap(authDomain.ErrInvalidTokenFormat, "missing exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
