package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))

	for _, pt := range []string{"a", "hunter2AAAA", "Gmail,user@example.com,x", "ünïcødé ✓"} {
		enc, err := c.Encrypt(pt)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(enc)
		require.NoError(t, err)
		assert.Len(t, raw, NonceLen+len(pt)+TagLen)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, pt, dec)
	}
}

func TestCipher_NonceUniqueness(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		enc, err := c.Encrypt("same plaintext")
		require.NoError(t, err)
		assert.False(t, seen[enc], "ciphertext repeated")
		seen[enc] = true
	}
}

func TestCipher_WrongKey(t *testing.T) {
	enc, err := NewCipher(newTestSession(t, "password-one")).Encrypt("secret")
	require.NoError(t, err)

	_, err = NewCipher(newTestSession(t, "password-two")).Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestCipher_Tamper(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))

	enc, err := c.Encrypt("secret value")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)

	for i := range raw {
		flipped := append([]byte(nil), raw...)
		flipped[i] ^= 0x01

		_, err := c.Decrypt(base64.StdEncoding.EncodeToString(flipped))
		assert.ErrorIs(t, err, ErrDecryptionFailed, "byte %d", i)
	}
}

func TestCipher_Malformed(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))

	tests := []struct {
		name  string
		input string
	}{
		{name: "not base64", input: "!!!not-base64!!!"},
		{name: "empty", input: ""},
		{name: "too short", input: base64.StdEncoding.EncodeToString(make([]byte, NonceLen))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.input)
			assert.ErrorIs(t, err, ErrMalformedCiphertext)
		})
	}
}

func TestCipher_ShortButWellFormedFailsAuth(t *testing.T) {
	c := NewCipher(newTestSession(t, "hunter42"))

	_, err := c.Decrypt(base64.StdEncoding.EncodeToString(make([]byte, NonceLen+1)))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestCipher_SessionNotReady(t *testing.T) {
	c := NewCipher(NewSession())

	_, err := c.Encrypt("x")
	assert.ErrorIs(t, err, ErrSessionNotReady)
	_, err = c.Decrypt("x")
	assert.ErrorIs(t, err, ErrSessionNotReady)
}
