package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Cipher encrypts and decrypts text under the key of a Session. Envelopes
// are base64(nonce || ciphertext || tag).
type Cipher struct {
	session *Session
}

func NewCipher(s *Session) *Cipher {
	return &Cipher{session: s}
}

// Session returns the session the cipher reads its key from.
func (c *Cipher) Session() *Session {
	return c.session
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	key, err := c.session.Key()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	sealed, err := aeadSeal(key.Bytes(), []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Authentication failures
// are reported as ErrDecryptionFailed without further detail.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	key, err := c.session.Key()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	sealed, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	pt, err := aeadOpen(key.Bytes(), sealed)
	if err != nil {
		if errors.Is(err, ErrMalformedCiphertext) || errors.Is(err, ErrDecryptionFailed) {
			return "", err
		}
		return "", ErrDecryptionFailed
	}
	defer zero(pt)

	return string(pt), nil
}
