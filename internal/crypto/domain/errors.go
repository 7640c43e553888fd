package domain

import (
	"github.com/allisson/trustcore/internal/errors"
)

// Cryptographic error definitions.
//
// They wrap the base categories from internal/errors so callers can match
// either the specific failure or its category with errors.Is.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is unknown.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key that is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidKeyAlias indicates an alias that is empty, longer than 64
	// characters, or contains characters outside [A-Za-z0-9._-].
	ErrInvalidKeyAlias = errors.Wrap(errors.ErrInvalidInput, "invalid key alias")

	// ErrMalformedBlob indicates a serialized blob shorter than IV plus tag.
	ErrMalformedBlob = errors.Wrap(errors.ErrInvalidInput, "malformed encrypted blob")

	// ErrKeyNotFound indicates no key exists under the requested alias.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrKeyExists indicates a wrapped key is already stored under the alias.
	ErrKeyExists = errors.Wrap(errors.ErrInvalidInput, "key already exists")

	// ErrDecryptionFailed indicates an authentication tag mismatch. The
	// specific cause (wrong key, tampering, wrong associated data) is never
	// disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrCrypto, "decryption failed")

	// ErrKeyAuthRequired indicates a key generated with RequiresRecentAuth was
	// used without a user authentication inside its validity window.
	ErrKeyAuthRequired = errors.Wrap(errors.ErrUnauthorized, "key requires recent user authentication")

	// ErrKeyWrapFailed indicates the key encryption key could not wrap or
	// unwrap a stored data key.
	ErrKeyWrapFailed = errors.Wrap(errors.ErrCrypto, "key wrap failed")
)
