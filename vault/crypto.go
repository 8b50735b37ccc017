package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Zero securely wipes a byte slice from memory.
func Zero(b []byte) {
	zero(b)
}

// RandomBytes reads n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// ConstantTimeEqual compares two strings without leaking where they differ.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// DeriveKey stretches password into a 256-bit AES key with
// PBKDF2-HMAC-SHA-256. Salt is used exactly as given: callers pass the
// ASCII bytes of the base64 salt string, which is what existing vault
// files were written with.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, PBKDF2Iterations, KeyLen, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cannot create aes block cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceLen)
	if err != nil {
		return nil, fmt.Errorf("cannot create gcm cipher: %w", err)
	}
	return gcm, nil
}

// aeadSeal returns nonce || ciphertext || tag.
func aeadSeal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, err := RandomBytes(NonceLen)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func aeadOpen(key, sealed []byte) ([]byte, error) {
	if len(sealed) < NonceLen+1 {
		return nil, ErrMalformedCiphertext
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, sealed[:NonceLen], sealed[NonceLen:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return pt, nil
}
