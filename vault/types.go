package vault

import "errors"

const (
	KeyLen           = 32
	NonceLen         = 12
	TagLen           = 16
	SaltLen          = 16
	PBKDF2Iterations = 65536
)

var (
	ErrSessionNotReady     = errors.New("vault: session not ready")
	ErrMalformedCiphertext = errors.New("vault: malformed ciphertext")
	ErrDecryptionFailed    = errors.New("vault: decryption failed")
	ErrCorrupt             = errors.New("vault: corrupt file")
	ErrInvalidIndex        = errors.New("vault: invalid index")
	ErrEmptyField          = errors.New("vault: empty field")
)

// Credential is one stored service login. EncryptedPassword is a base64
// AES-GCM envelope produced by Cipher.Encrypt.
type Credential struct {
	Service           string
	Username          string
	EncryptedPassword string
}

func (c Credential) valid() bool {
	return c.Service != "" && c.Username != "" && c.EncryptedPassword != ""
}
