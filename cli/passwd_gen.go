package cli

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/fahmaliyi/totpvault/sanitize"
)

const (
	MinGeneratedLen     = 8
	MaxGeneratedLen     = sanitize.MaxPassword
	DefaultGeneratedLen = 20
)

var (
	alphabetUppercase = `ABCDEFGHIJKLMNOPQRSTUVWXYZ`
	alphabetLowercase = `abcdefghijklmnopqrstuvwxyz`
	alphabetNumbers   = `0123456789`
	alphabetSymbols   = `!@#$%^&*-_=+?.`
)

var (
	ErrPasswordLength = errors.New("password length must be between 8 and 64")
	ErrNoCharClass    = errors.New("at least one character type must be selected")
)

// Policy selects the character classes of a generated password.
type Policy struct {
	Upper   bool
	Lower   bool
	Numbers bool
	Symbols bool
}

// DefaultPolicy enables every class.
var DefaultPolicy = Policy{Upper: true, Lower: true, Numbers: true, Symbols: true}

func (p Policy) alphabets() []string {
	var out []string
	if p.Upper {
		out = append(out, alphabetUppercase)
	}
	if p.Lower {
		out = append(out, alphabetLowercase)
	}
	if p.Numbers {
		out = append(out, alphabetNumbers)
	}
	if p.Symbols {
		out = append(out, alphabetSymbols)
	}
	return out
}

// GeneratePassword returns a random password of the given length holding at
// least one character of every class the policy enables.
func GeneratePassword(length int, p Policy) (string, error) {
	if length < MinGeneratedLen || length > MaxGeneratedLen {
		return "", ErrPasswordLength
	}
	alphabets := p.alphabets()
	if len(alphabets) == 0 {
		return "", ErrNoCharClass
	}

	all := ""
	password := make([]byte, 0, length)
	for _, a := range alphabets {
		c, err := pick(a)
		if err != nil {
			return "", err
		}
		password = append(password, c)
		all += a
	}

	for len(password) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	// Fisher-Yates so the guaranteed characters are not always up front
	for i := len(password) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", err
		}
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func pick(alphabet string) (byte, error) {
	i, err := randIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randIndex(n int) (int, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(i.Int64()), nil
}
