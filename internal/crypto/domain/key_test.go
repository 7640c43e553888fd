package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/allisson/trustcore/internal/errors"
)

func TestValidateAlias(t *testing.T) {
	tests := []struct {
		name    string
		alias   string
		wantErr bool
	}{
		{name: "simple", alias: "secrets"},
		{name: "with separators", alias: "trustcore.prefs-kek_1"},
		{name: "64 chars", alias: strings.Repeat("a", 64)},
		{name: "empty", alias: "", wantErr: true},
		{name: "65 chars", alias: strings.Repeat("a", 65), wantErr: true},
		{name: "space", alias: "a b", wantErr: true},
		{name: "colon", alias: "a:b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAlias(tt.alias)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidKeyAlias)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestKeySpec(t *testing.T) {
	spec := DefaultKeySpec()
	assert.Equal(t, AESGCM, spec.Algorithm)
	assert.True(t, spec.RandomizedEncryption)
	assert.False(t, spec.RequiresRecentAuth)
	assert.Zero(t, spec.AuthValidity)

	wrapped := WrappedKey{Algorithm: AESGCM, RequiresAuth: true, AuthValidity: int64(30 * time.Second)}
	assert.Equal(t, KeySpec{
		Algorithm:            AESGCM,
		RandomizedEncryption: true,
		RequiresRecentAuth:   true,
		AuthValidity:         30 * time.Second,
	}, wrapped.Spec())
}

func TestErrorCategories(t *testing.T) {
	assert.ErrorIs(t, ErrDecryptionFailed, errors.ErrCrypto)
	assert.ErrorIs(t, ErrKeyNotFound, errors.ErrNotFound)
	assert.ErrorIs(t, ErrMalformedBlob, errors.ErrInvalidInput)
	assert.ErrorIs(t, ErrKeyAuthRequired, errors.ErrUnauthorized)
}
