// Package password provides one-way hashing of credentials and password
// strength validation for the authentication flows.
package password

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor. A single hash takes a few hundred
// milliseconds on commodity hardware, which is the point.
const HashCost = 12

const (
	minLength = 8
	maxLength = 128

	specialChars = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"
)

// weakSubstrings is a deny list of common weak fragments matched
// case-insensitively anywhere in the password.
var weakSubstrings = []string{
	"password",
	"qwerty",
	"12345678",
	"letmein",
	"iloveyou",
	"admin",
	"welcome",
	"abc123",
}

// Hash applies bcrypt with the fixed work factor.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored bcrypt hash.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// StrengthResult reports every violated rule at once so a client can show a
// complete checklist.
type StrengthResult struct {
	Valid  bool
	Errors []string
}

// ValidateStrength checks the password against the storefront policy:
// length bounds, character-class requirements, and the weak-substring deny
// list. It does not fail fast.
func ValidateStrength(password string) StrengthResult {
	var errs []string

	if len(password) < minLength {
		errs = append(errs, fmt.Sprintf("must be at least %d characters", minLength))
	}
	if len(password) > maxLength {
		errs = append(errs, fmt.Sprintf("must be at most %d characters", maxLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		errs = append(errs, "must contain an uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "must contain a lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "must contain a digit")
	}
	if !hasSpecial {
		errs = append(errs, "must contain a special character")
	}

	lowered := strings.ToLower(password)
	for _, weak := range weakSubstrings {
		if strings.Contains(lowered, weak) {
			errs = append(errs, fmt.Sprintf("must not contain %q", weak))
		}
	}

	return StrengthResult{Valid: len(errs) == 0, Errors: errs}
}
