package domain

// Algorithm represents the AEAD algorithm used for encryption.
//
// Both supported algorithms use 256-bit keys, 12-byte nonces and 16-byte
// authentication tags, so blobs produced by either share the same layout.
type Algorithm string

const (
	// AESGCM is AES-256-GCM. Secrets stored through SecretStore always use it.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305, selectable for the preference store on
	// hosts without AES hardware acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the size in bytes of every symmetric key.
	KeySize = 32
	// IVSize is the size in bytes of the per-encryption nonce.
	IVSize = 12
	// TagSize is the size in bytes of the authentication tag.
	TagSize = 16
	// MaxAliasLength bounds key alias names.
	MaxAliasLength = 64
)
