package totp

import (
	"fmt"
	"image/png"
	"os"

	"github.com/pquerna/otp"
)

const qrSize = 256

// OTPAuthURL builds the provisioning URL authenticator apps scan. account
// and issuer are inserted verbatim and must already be sanitized.
func OTPAuthURL(secret, account, issuer string) (string, error) {
	b32, err := Base32Secret(secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s", issuer, account, b32, issuer), nil
}

// ParseURL parses an otpauth URL and checks it describes a TOTP key.
func ParseURL(u string) (*otp.Key, error) {
	key, err := otp.NewKeyFromURL(u)
	if err != nil {
		return nil, fmt.Errorf("failed to parse otpauth url: %w", err)
	}
	if key.Type() != "totp" {
		return nil, fmt.Errorf("otpauth url is %q, want totp", key.Type())
	}
	if key.Secret() == "" {
		return nil, fmt.Errorf("otpauth url has no secret: %w", ErrInvalidSecret)
	}
	return key, nil
}

// WriteQRCode renders the otpauth URL as a PNG QR code at path.
func WriteQRCode(u, path string) error {
	key, err := ParseURL(u)
	if err != nil {
		return err
	}

	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return fmt.Errorf("failed to render qr code: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create qr code file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode qr code: %w", err)
	}
	return f.Close()
}
