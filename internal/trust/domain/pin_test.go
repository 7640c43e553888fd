package domain

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

func fakePin(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return PinPrefix + base64.StdEncoding.EncodeToString(sum[:])
}

func TestComputePin(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pin := ComputePin(&x509.Certificate{RawSubjectPublicKeyInfo: spki})
	sum := sha256.Sum256(spki)
	assert.Equal(t, Pin(PinPrefix+base64.StdEncoding.EncodeToString(sum[:])), pin)

	_, err = ParsePin(string(pin))
	assert.NoError(t, err)
}

func TestParsePin(t *testing.T) {
	_, err := ParsePin(fakePin("a"))
	assert.NoError(t, err)

	for _, bad := range []string{"", "sha1/abc=", "sha256/short=", strings.TrimPrefix(fakePin("a"), PinPrefix)} {
		_, err := ParsePin(bad)
		assert.ErrorIs(t, err, ErrInvalidPin, bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestNewPinSet(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		set, err := NewPinSet(map[string][]string{
			"API.example.com":   {fakePin("primary"), fakePin("backup")},
			"*.cdn.example.com": {fakePin("c1"), fakePin("c2")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"*.cdn.example.com", "api.example.com"}, set.Patterns())
		assert.Len(t, set.PinsFor("api.example.com"), 2)
		assert.Equal(t, 2, set.Len())
	})

	t.Run("single pin is rejected", func(t *testing.T) {
		_, err := NewPinSet(map[string][]string{"api.example.com": {fakePin("only")}})
		assert.ErrorIs(t, err, ErrInsufficientPins)
	})

	t.Run("duplicate pins do not count twice", func(t *testing.T) {
		_, err := NewPinSet(map[string][]string{"api.example.com": {fakePin("x"), fakePin("x")}})
		assert.ErrorIs(t, err, ErrInsufficientPins)
	})

	t.Run("bad pattern", func(t *testing.T) {
		for _, pattern := range []string{"", "**.example.com", "api..example.com", "*", "a.*.example.com"} {
			_, err := NewPinSet(map[string][]string{pattern: {fakePin("a"), fakePin("b")}})
			assert.ErrorIs(t, err, ErrInvalidHostPattern, pattern)
		}
	})

	t.Run("bad pin", func(t *testing.T) {
		_, err := NewPinSet(map[string][]string{"api.example.com": {fakePin("a"), "sha256/nope"}})
		assert.ErrorIs(t, err, ErrInvalidPin)
	})
}

func TestPinSet_Lookup(t *testing.T) {
	set, err := NewPinSet(map[string][]string{
		"example.com":   {fakePin("root1"), fakePin("root2")},
		"*.example.com": {fakePin("w1"), fakePin("w2")},
	})
	require.NoError(t, err)

	tests := []struct {
		host   string
		pinned bool
		count  int
	}{
		{host: "example.com", pinned: true, count: 2},
		{host: "MANAGR.app.", pinned: true, count: 2},
		{host: "api.example.com", pinned: true, count: 2},
		{host: "a.b.example.com", pinned: false},
		{host: "evilexample.com", pinned: false},
		{host: "example.com", pinned: false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			pins, ok := set.Lookup(tt.host)
			assert.Equal(t, tt.pinned, ok)
			assert.Len(t, pins, tt.count)
		})
	}

	var empty *PinSet
	_, ok := empty.Lookup("example.com")
	assert.False(t, ok)
}

func TestPin_Equal(t *testing.T) {
	a := Pin(fakePin("a"))
	assert.True(t, a.Equal(Pin(fakePin("a"))))
	assert.False(t, a.Equal(Pin(fakePin("b"))))
}
