package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials is returned both for an unknown email and for a
	// wrong password, so the two cases cannot be told apart by a client.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSocialLoginOnly is returned when the account exists but has no
	// password hash. The distinguishing signal is the login method, which the
	// legitimate account owner already knows.
	ErrSocialLoginOnly = errors.New("account uses social login")

	ErrAccountNotActive = errors.New("account is not active")

	// ErrEmailTaken is returned when account provisioning collides with an
	// existing email. Only staff-facing flows surface it; unauthenticated
	// flows never reveal whether an email is registered.
	ErrEmailTaken = errors.New("email already in use")

	// ErrOTPInvalid covers a missing, expired, mismatched or attempt-exhausted
	// one-time code.
	ErrOTPInvalid = errors.New("invalid or expired code")
)

// ValidationError reports every violated input rule at once so a client can
// render a complete checklist.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// RateLimitError is returned when a client identity exceeds a fixed-window
// request budget.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}
