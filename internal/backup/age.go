package backup

import (
	"bytes"
	"io"

	"filippo.io/age"
)

// scryptWorkFactor is the age scrypt cost exponent. Tests lower it via
// SetScryptWorkFactor to keep the suite fast.
var scryptWorkFactor = 18

// SetScryptWorkFactor overrides the scrypt cost. Test use only.
func SetScryptWorkFactor(n int) {
	scryptWorkFactor = n
}

// encrypt encrypts plaintext using age with a password-based recipient.
func encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, err
	}
	recipient.SetWorkFactor(scryptWorkFactor)

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decrypt decrypts ciphertext using age with a password-based identity.
func decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, err
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, err
	}

	return io.ReadAll(r)
}
