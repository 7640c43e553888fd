package service

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

const stateBytes = 16

type pkceGenerator struct{}

// NewPkceGenerator creates a PkceGenerator using the S256 method.
func NewPkceGenerator() PkceGenerator {
	return &pkceGenerator{}
}

func (g *pkceGenerator) GenerateCodeVerifier() (string, error) {
	return oauth2.GenerateVerifier(), nil
}

func (g *pkceGenerator) GenerateCodeChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

func (g *pkceGenerator) GenerateState() (string, error) {
	randomBytes := make([]byte, stateBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate state")
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
