package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordWhitespace = errors.New("password must not contain whitespace")
	ErrPasswordLength     = errors.New("password length out of range")
	ErrPasswordCharset    = errors.New("password contains disallowed characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// PasswordPolicy validates plaintext passwords before hashing. Checks run
// in a fixed order and the first violation wins.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

func (p PasswordPolicy) Validate(password, confirm string) error {
	if strings.ContainsFunc(password, unicode.IsSpace) {
		return ErrPasswordWhitespace
	}
	if len(password) < p.MinLength || len(password) > p.MaxLength {
		return fmt.Errorf("%w: must be between %d and %d characters", ErrPasswordLength, p.MinLength, p.MaxLength)
	}
	for _, r := range password {
		if !allowedPasswordRune(r) {
			return ErrPasswordCharset
		}
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// ASCII letters, digits and punctuation only.
func allowedPasswordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r):
		return true
	}
	return false
}

// HashPassword returns the bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
// A malformed hash is treated as a mismatch, never an error.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
