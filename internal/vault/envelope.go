package vault

import (
	"encoding/base64"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

// Envelope framing constants. The binary layout is
// salt(16) || nonce(12) || ciphertext_with_tag(variable).
const (
	// SaltSize is the length of the random KDF salt in bytes.
	SaltSize = 16

	// NonceSize is the length of the AES-GCM nonce in bytes.
	NonceSize = 12

	// tagSize is the length of the GCM authentication tag in bytes.
	tagSize = 16

	// minEnvelopeSize is the smallest decodable envelope: framing plus a
	// tag over an empty plaintext.
	minEnvelopeSize = SaltSize + NonceSize + tagSize
)

// Envelope is a self-contained sealed secret: the KDF salt, the AEAD
// nonce, and the ciphertext with its authentication tag. An envelope is
// immutable once created; a password change produces a new envelope.
type Envelope struct {
	Salt       [SaltSize]byte
	Nonce      [NonceSize]byte
	Ciphertext []byte
}

// Encode returns the base64 string form used for storage.
func (e *Envelope) Encode() string {
	return base64.StdEncoding.EncodeToString(e.Bytes())
}

// Bytes returns the binary layout salt || nonce || ciphertext.
func (e *Envelope) Bytes() []byte {
	out := make([]byte, 0, SaltSize+NonceSize+len(e.Ciphertext))
	out = append(out, e.Salt[:]...)
	out = append(out, e.Nonce[:]...)
	out = append(out, e.Ciphertext...)
	return out
}

// Decode parses the base64 storage form back into an Envelope.
// Malformed input is reported as ErrDecryptionFailed so that a corrupt
// envelope is indistinguishable from a wrong password downstream.
func Decode(s string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, lumenerr.ErrDecryptionFailed
	}
	return DecodeBytes(raw)
}

// DecodeBytes parses the binary layout back into an Envelope.
func DecodeBytes(raw []byte) (*Envelope, error) {
	if len(raw) < minEnvelopeSize {
		return nil, lumenerr.ErrDecryptionFailed
	}

	env := &Envelope{
		Ciphertext: make([]byte, len(raw)-SaltSize-NonceSize),
	}
	copy(env.Salt[:], raw[:SaltSize])
	copy(env.Nonce[:], raw[SaltSize:SaltSize+NonceSize])
	copy(env.Ciphertext, raw[SaltSize+NonceSize:])

	return env, nil
}
