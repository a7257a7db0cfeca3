package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasswordReset is a single-use reset authorization minted after a one-time
// code has been verified. UsedAt flips once and is never reset.
type PasswordReset struct {
	Token     string
	Email     string
	Audience  Audience
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// PasswordResetStore defines persistence operations for reset authorizations.
type PasswordResetStore interface {
	Create(ctx context.Context, reset PasswordReset) error
	// ConsumeWithPassword marks the reset token used, replaces the owning
	// account's password hash, and revokes every refresh token held by that
	// account, all in one transaction. Returns the owner's id on success,
	// ErrNotFound for an unknown token, ErrTokenExpired for a stale one and
	// ErrTokenRevoked for one already used.
	ConsumeWithPassword(ctx context.Context, token string, passwordHash string) (uuid.UUID, error)
}

// OTPStore holds short-lived one-time codes keyed by audience and email,
// backed by a TTL key-value store.
type OTPStore interface {
	Save(ctx context.Context, audience Audience, email, code string, ttl time.Duration) error
	// Consume verifies the code and deletes it on success. Failed attempts are
	// counted; the code is destroyed after too many. Any failure returns
	// ErrOTPInvalid.
	Consume(ctx context.Context, audience Audience, email, code string) error
}
