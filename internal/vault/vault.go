// Package vault seals and opens the wallet recovery phrase under a
// password-derived key. A sealed secret travels as a self-contained
// Envelope (salt, nonce, ciphertext+tag); the package also provides the
// durable single-envelope store and secure memory helpers.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	lumenerr "github.com/lumenwallet/lumen/pkg/errors"
)

const (
	// defaultKDFIterations is the PBKDF2 iteration count for production use.
	defaultKDFIterations = 100_000

	// keySize is the derived AES-256 key length in bytes.
	keySize = 32
)

// kdfIterations is variable so tests can lower the work factor.
//
//nolint:gochecknoglobals // test-tunable work factor, same pattern as the KDF cost knobs elsewhere
var kdfIterations = defaultKDFIterations

// SetKDFIterations overrides the PBKDF2 iteration count. Intended for
// tests only; returns the previous value so callers can restore it.
func SetKDFIterations(n int) int {
	prev := kdfIterations
	kdfIterations = n
	return prev
}

// deriveKey stretches a passphrase into an AES-256 key.
func deriveKey(passphrase []byte, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, kdfIterations, keySize, sha256.New)
}

// Seal encrypts secret under a key derived from passphrase. Salt and
// nonce are freshly random on every call, so sealing the same secret
// twice yields different envelopes and a (key, nonce) pair is never
// reused.
func Seal(secret, passphrase []byte) (*Envelope, error) {
	env := &Envelope{}

	if _, err := io.ReadFull(rand.Reader, env.Salt[:]); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, env.Nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	key := deriveKey(passphrase, env.Salt[:])
	defer ZeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	env.Ciphertext = aead.Seal(nil, env.Nonce[:], secret, nil)
	return env, nil
}

// Open decrypts an envelope with a key derived from passphrase. Every
// failure mode (wrong password, flipped ciphertext bit, truncated data)
// collapses into ErrDecryptionFailed; callers cannot tell them apart.
func Open(env *Envelope, passphrase []byte) ([]byte, error) {
	key := deriveKey(passphrase, env.Salt[:])
	defer ZeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, lumenerr.ErrDecryptionFailed
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, lumenerr.ErrDecryptionFailed
	}

	secret, err := aead.Open(nil, env.Nonce[:], env.Ciphertext, nil)
	if err != nil {
		return nil, lumenerr.ErrDecryptionFailed
	}

	return secret, nil
}
