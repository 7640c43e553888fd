package domain

// EncryptedBlob is the output of one authenticated encryption.
//
// The serialized form is IV || ciphertext || tag with no header and no
// padding. The ciphertext has the same length as the plaintext. Values are
// immutable: accessors return copies.
type EncryptedBlob struct {
	iv         [IVSize]byte
	ciphertext []byte
	tag        [TagSize]byte
}

// NewEncryptedBlob assembles a blob from its parts. The ciphertext is copied.
func NewEncryptedBlob(iv [IVSize]byte, ciphertext []byte, tag [TagSize]byte) EncryptedBlob {
	return EncryptedBlob{
		iv:         iv,
		ciphertext: append([]byte(nil), ciphertext...),
		tag:        tag,
	}
}

// ParseEncryptedBlob splits a serialized blob. Inputs shorter than
// IVSize+TagSize bytes return ErrMalformedBlob.
func ParseEncryptedBlob(data []byte) (EncryptedBlob, error) {
	if len(data) < IVSize+TagSize {
		return EncryptedBlob{}, ErrMalformedBlob
	}

	var blob EncryptedBlob
	copy(blob.iv[:], data[:IVSize])
	blob.ciphertext = append([]byte(nil), data[IVSize:len(data)-TagSize]...)
	copy(blob.tag[:], data[len(data)-TagSize:])
	return blob, nil
}

// IV returns the 12-byte nonce.
func (b EncryptedBlob) IV() [IVSize]byte { return b.iv }

// Ciphertext returns a copy of the ciphertext without the tag.
func (b EncryptedBlob) Ciphertext() []byte { return append([]byte(nil), b.ciphertext...) }

// AuthTag returns the 16-byte authentication tag.
func (b EncryptedBlob) AuthTag() [TagSize]byte { return b.tag }

// IsZero reports whether the blob was never populated.
func (b EncryptedBlob) IsZero() bool {
	return b.ciphertext == nil && b.iv == [IVSize]byte{} && b.tag == [TagSize]byte{}
}

// Bytes serializes the blob as IV || ciphertext || tag.
func (b EncryptedBlob) Bytes() []byte {
	out := make([]byte, 0, IVSize+len(b.ciphertext)+TagSize)
	out = append(out, b.iv[:]...)
	out = append(out, b.ciphertext...)
	return append(out, b.tag[:]...)
}

// SealedWithTag returns ciphertext || tag, the layout Go AEAD implementations open.
func (b EncryptedBlob) SealedWithTag() []byte {
	out := make([]byte, 0, len(b.ciphertext)+TagSize)
	out = append(out, b.ciphertext...)
	return append(out, b.tag[:]...)
}

// BlobFromSealed builds a blob from a nonce and the ciphertext || tag output
// of an AEAD Seal call.
func BlobFromSealed(nonce, sealed []byte) (EncryptedBlob, error) {
	if len(nonce) != IVSize || len(sealed) < TagSize {
		return EncryptedBlob{}, ErrMalformedBlob
	}

	var blob EncryptedBlob
	copy(blob.iv[:], nonce)
	blob.ciphertext = append([]byte(nil), sealed[:len(sealed)-TagSize]...)
	copy(blob.tag[:], sealed[len(sealed)-TagSize:])
	return blob, nil
}
