// Package domain defines the encrypted preference records, the stable key
// namespace shared with other components, and the store's errors.
package domain

import (
	"slices"
	"strings"
	"time"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	"github.com/allisson/trustcore/internal/errors"
)

// Reserved keys. Their names are a stable external contract.
const (
	KeyAuthToken          = "auth_token"
	KeyRefreshToken       = "refresh_token"
	KeyUserID             = "user_id"
	KeyAPIKey             = "api_key"
	KeySessionID          = "session_id"
	KeyBiometricEnabled   = "biometric_enabled"
	KeyLastAuthTime       = "last_auth_time"
	KeyDatabasePassphrase = "database_passphrase"
)

// SessionKeyPrefix namespaces the keys of an in-flight authorization
// session. Every key under it is sensitive.
const SessionKeyPrefix = "oauth2_"

var sensitiveKeys = []string{
	KeyAuthToken,
	KeyRefreshToken,
	KeyUserID,
	KeyAPIKey,
	KeySessionID,
	KeyBiometricEnabled,
	KeyLastAuthTime,
	KeyDatabasePassphrase,
}

// SensitiveKeys returns the reserved keys excluded from diagnostic dumps.
func SensitiveKeys() []string {
	return slices.Clone(sensitiveKeys)
}

// IsSensitiveKey reports whether key is reserved or lives under
// SessionKeyPrefix. Sensitive keys are never dumped.
func IsSensitiveKey(key string) bool {
	return slices.Contains(sensitiveKeys, key) || strings.HasPrefix(key, SessionKeyPrefix)
}

// MetaRecordID is the repository id holding the wrapped store key. Regular
// record ids are 64 hex characters so they never collide with it.
const MetaRecordID = "__store_meta__"

// KEKAlias is the SecretStore alias of the key encryption key wrapping the
// per-store data key.
const KEKAlias = "trustcore.prefs.kek"

// ValueType tags the typed value held by a record.
type ValueType uint8

const (
	TypeString ValueType = iota + 1
	TypeBool
	TypeInt
	TypeLong
)

// String returns the lower-case type name.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	default:
		return "unknown"
	}
}

// Record is the plaintext payload sealed into one repository entry. The key
// name travels inside the ciphertext; the repository only sees its HMAC.
type Record struct {
	Name   string    `cbor:"1,keyasint"`
	Type   ValueType `cbor:"2,keyasint"`
	String string    `cbor:"3,keyasint,omitempty"`
	Bool   bool      `cbor:"4,keyasint,omitempty"`
	Int    int64     `cbor:"5,keyasint,omitempty"`
}

// StoreMeta is persisted under MetaRecordID.
type StoreMeta struct {
	Algorithm  cryptoDomain.Algorithm `cbor:"1,keyasint"`
	WrappedDEK []byte                 `cbor:"2,keyasint"`
	CreatedAt  time.Time              `cbor:"3,keyasint"`
}

// Entry is an encrypted repository row.
type Entry struct {
	ID      string
	Payload []byte
}

var (
	// ErrRecordNotFound is returned by repositories for a missing id.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "preference not found")

	// ErrInvalidKey indicates an empty or oversized preference key.
	ErrInvalidKey = errors.Wrap(errors.ErrInvalidInput, "invalid preference key")

	// ErrCorruptRecord indicates a record that decrypted but did not decode,
	// or that belongs to a different key name.
	ErrCorruptRecord = errors.Wrap(errors.ErrCrypto, "corrupt preference record")

	// ErrUnsupportedBackend indicates an unknown PREFS_BACKEND value.
	ErrUnsupportedBackend = errors.Wrap(errors.ErrInvalidInput, "unsupported preference backend")
)

// MaxKeyLength bounds preference key names.
const MaxKeyLength = 256

// ValidateKey checks a preference key is non-empty and bounded.
func ValidateKey(key string) error {
	if key == "" || len(key) > MaxKeyLength {
		return ErrInvalidKey
	}
	return nil
}
