// Package totp implements RFC 6238 time-based one-time passwords over the
// RFC 4226 HOTP construction: HMAC-SHA-1, 30 second steps, 6 digits and a
// drift window of one step either side.
//
// Secrets are handled in their on-disk form, the base64 encoding of 20
// random bytes. Authenticator apps get the RFC 4648 base32 form instead,
// either directly or inside an otpauth:// URL.
package totp

import (
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"

	"github.com/fahmaliyi/totpvault/vault"
)

const (
	Period    = 30
	Digits    = 6
	Skew      = 1
	SecretLen = 20
)

var (
	ErrInvalidSecret = errors.New("totp: invalid secret")
	ErrInvalidStep   = errors.New("totp: invalid step")
)

// GenerateSecret returns base64(20 random bytes).
func GenerateSecret() (string, error) {
	raw, err := vault.RandomBytes(SecretLen)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeSecret(secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

// Step returns the time step number t falls in.
func Step(t time.Time) int64 {
	return t.Unix() / Period
}

// CodeAt returns the 6 digit code for the given step number.
func CodeAt(secret string, step int64) (string, error) {
	return codeAt(secret, step, otp.DigitsSix)
}

func codeAt(secret string, step int64, digits otp.Digits) (string, error) {
	if step < 0 {
		return "", ErrInvalidStep
	}
	b32, err := Base32Secret(secret)
	if err != nil {
		return "", err
	}

	code, err := hotp.GenerateCodeCustom(b32, uint64(step), hotp.ValidateOpts{
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return code, nil
}

// Engine validates codes against a clock.
type Engine struct {
	Now  func() time.Time
	Skew int
}

func NewEngine() *Engine {
	return &Engine{Now: time.Now, Skew: Skew}
}

// Current returns the code for the engine's current step.
func (e *Engine) Current(secret string) (string, error) {
	return CodeAt(secret, Step(e.Now()))
}

// Validate reports whether candidate is the code of the current step or of
// a step within the skew window. Anything that is not exactly Digits
// decimal digits is rejected without computing a MAC.
func (e *Engine) Validate(secret, candidate string) bool {
	if !wellFormed(candidate) {
		return false
	}

	now := Step(e.Now())
	ok := false
	for k := -e.Skew; k <= e.Skew; k++ {
		code, err := CodeAt(secret, now+int64(k))
		if err != nil {
			continue
		}
		if vault.ConstantTimeEqual(code, candidate) {
			ok = true
		}
	}
	return ok
}

func wellFormed(candidate string) bool {
	if len(candidate) != Digits {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		if candidate[i] < '0' || candidate[i] > '9' {
			return false
		}
	}
	return true
}

// LoadOrCreateSecret reads the secret stored at path, generating and
// persisting a new one when the file does not exist. created reports which
// happened. An existing secret is never replaced.
func LoadOrCreateSecret(path string) (secret string, created bool, err error) {
	secret, err = vault.ReadLine(path)
	switch {
	case err == nil:
		raw, decErr := base64.StdEncoding.DecodeString(secret)
		if decErr != nil || len(raw) != SecretLen {
			return "", false, fmt.Errorf("totp secret: %w", vault.ErrCorrupt)
		}
		return secret, false, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", false, fmt.Errorf("failed to read totp secret: %w", err)
	}

	secret, err = GenerateSecret()
	if err != nil {
		return "", false, err
	}
	if err := vault.WriteLine(path, secret); err != nil {
		return "", false, fmt.Errorf("failed to write totp secret: %w", err)
	}
	return secret, true, nil
}

// Base32Secret converts a stored secret to unpadded RFC 4648 base32.
func Base32Secret(secret string) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	defer vault.Zero(key)
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(key), nil
}
