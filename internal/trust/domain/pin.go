// Package domain defines certificate pins and the immutable pin set that
// maps host patterns to them.
package domain

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"slices"
	"sort"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/trustcore/internal/errors"
	customValidation "github.com/allisson/trustcore/internal/validation"
)

// PinPrefix is the only supported pin hash.
const PinPrefix = "sha256/"

// MinPinsPerHost requires a primary and a backup pin.
const MinPinsPerHost = 2

// Pin is "sha256/" followed by the standard base64 SHA-256 digest of a
// certificate's DER-encoded SubjectPublicKeyInfo.
type Pin string

// ComputePin returns the pin of cert's public key.
func ComputePin(cert *x509.Certificate) Pin {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return Pin(PinPrefix + base64.StdEncoding.EncodeToString(sum[:]))
}

// ParsePin validates s.
func ParsePin(s string) (Pin, error) {
	if err := validation.Validate(s, validation.Required, customValidation.Pin); err != nil {
		return "", apperrors.Wrap(ErrInvalidPin, err.Error())
	}
	return Pin(s), nil
}

// Equal compares pins in constant time.
func (p Pin) Equal(other Pin) bool {
	return subtle.ConstantTimeCompare([]byte(p), []byte(other)) == 1
}

// PinSet maps host patterns to their ordered pins. A pattern is an exact
// host or "*." followed by a host, matching exactly one extra label.
type PinSet struct {
	pins map[string][]Pin
}

// NewPinSet validates every pattern and pin and requires MinPinsPerHost pins
// per pattern. Patterns are case-insensitive.
func NewPinSet(entries map[string][]string) (*PinSet, error) {
	pins := make(map[string][]Pin, len(entries))
	for pattern, raw := range entries {
		normalized := strings.ToLower(strings.TrimSpace(pattern))
		if err := validation.Validate(normalized, validation.Required, customValidation.HostPattern); err != nil {
			return nil, apperrors.Wrap(ErrInvalidHostPattern, pattern)
		}

		parsed := make([]Pin, 0, len(raw))
		for _, s := range raw {
			pin, err := ParsePin(s)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(parsed, pin) {
				parsed = append(parsed, pin)
			}
		}
		if len(parsed) < MinPinsPerHost {
			return nil, apperrors.Wrap(ErrInsufficientPins, pattern)
		}
		pins[normalized] = append(pins[normalized], parsed...)
	}
	return &PinSet{pins: pins}, nil
}

// Patterns returns the configured patterns, sorted.
func (s *PinSet) Patterns() []string {
	if s == nil {
		return nil
	}
	patterns := make([]string, 0, len(s.pins))
	for p := range s.pins {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	return patterns
}

// PinsFor returns a copy of the pins configured for pattern.
func (s *PinSet) PinsFor(pattern string) []Pin {
	if s == nil {
		return nil
	}
	return slices.Clone(s.pins[strings.ToLower(pattern)])
}

// Lookup returns every pin applying to host, from its exact pattern and any
// matching wildcard. ok is false when host is not pinned.
func (s *PinSet) Lookup(host string) (pins []Pin, ok bool) {
	if s == nil {
		return nil, false
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, pattern := range s.Patterns() {
		if MatchesPattern(pattern, host) {
			pins = append(pins, s.pins[pattern]...)
		}
	}
	return pins, len(pins) > 0
}

// MatchesPattern reports whether host matches pattern. "*.example.com"
// matches "api.example.com" but neither "example.com" nor "a.b.example.com".
func MatchesPattern(pattern, host string) bool {
	suffix, wildcard := strings.CutPrefix(pattern, "*.")
	if !wildcard {
		return pattern == host
	}
	label, rest, found := strings.Cut(host, ".")
	return found && label != "" && rest == suffix
}

// Len returns the number of patterns.
func (s *PinSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pins)
}
