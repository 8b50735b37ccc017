// Package sanitize validates text typed at the terminal before it reaches
// the vault or a log line.
package sanitize

import (
	"fmt"
	"strings"
)

const (
	MaxService  = 50
	MaxUsername = 50
	MaxPassword = 64
	TOTPLen     = 6

	unsafeChars = `;'"<>,`
)

// ValidationError describes rejected input. It never carries the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Input trims s and checks it is non-empty, at most maxLen characters and
// either all digits (numericOnly) or free of the characters ; ' " < > ,
func Input(field, s string, maxLen int, numericOnly bool) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: field, Reason: "cannot be empty"}
	}
	if len([]rune(s)) > maxLen {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("exceeds %d characters", maxLen)}
	}
	if numericOnly {
		if !digits(s) {
			return "", &ValidationError{Field: field, Reason: "must contain only digits"}
		}
		return s, nil
	}
	if strings.ContainsAny(s, unsafeChars) {
		return "", &ValidationError{Field: field, Reason: "contains unsafe characters"}
	}
	return s, nil
}

func Service(s string) (string, error)  { return Input("service", s, MaxService, false) }
func Username(s string) (string, error) { return Input("username", s, MaxUsername, false) }
func Password(s string) (string, error) { return Input("password", s, MaxPassword, false) }

// TOTP accepts exactly TOTPLen digits.
func TOTP(s string) (string, error) {
	s, err := Input("totp code", s, TOTPLen, true)
	if err != nil {
		return "", err
	}
	if len(s) != TOTPLen {
		return "", &ValidationError{Field: "totp code", Reason: fmt.Sprintf("must be %d digits", TOTPLen)}
	}
	return s, nil
}

// Index parses a 1-based menu index.
func Index(s string) (int, error) {
	s, err := Input("index", s, 9, true)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	if n < 1 {
		return 0, &ValidationError{Field: "index", Reason: "must be at least 1"}
	}
	return n, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
