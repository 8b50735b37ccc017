package totp

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPAuthURL(t *testing.T) {
	t.Parallel()

	u, err := OTPAuthURL(rfcSecret, "user@example.com", "SecurePasswordManager")
	require.NoError(t, err)
	assert.Equal(t,
		"otpauth://totp/SecurePasswordManager:user@example.com?secret=GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ&issuer=SecurePasswordManager",
		u)

	key, err := ParseURL(u)
	require.NoError(t, err)
	assert.Equal(t, "SecurePasswordManager", key.Issuer())
	assert.Equal(t, "user@example.com", key.AccountName())
	assert.Equal(t, "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ", key.Secret())
}

func TestOTPAuthURL_BadSecret(t *testing.T) {
	t.Parallel()

	_, err := OTPAuthURL("%%%", "a", "b")
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestParseURL_Rejects(t *testing.T) {
	t.Parallel()

	_, err := ParseURL("otpauth://hotp/Issuer:acct?secret=GEZDGNBV&counter=1")
	assert.Error(t, err)

	_, err = ParseURL("otpauth://totp/Issuer:acct?issuer=Issuer")
	assert.Error(t, err)
}

func TestWriteQRCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "totp.png")

	u, err := OTPAuthURL(rfcSecret, "user@example.com", "SecurePasswordManager")
	require.NoError(t, err)
	require.NoError(t, WriteQRCode(u, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())
}
