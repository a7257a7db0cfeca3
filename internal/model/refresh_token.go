package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore defines persistence operations for issued refresh
// tokens. Records are revoked, never deleted, to keep an audit trail.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByJTI(ctx context.Context, jti string) (RefreshToken, error)
	// Rotate revokes the record identified by oldJTI and inserts next in a
	// single transaction. It returns ErrTokenRevoked when oldJTI was already
	// revoked, so at most one of two concurrent rotations can succeed.
	Rotate(ctx context.Context, oldJTI string, next RefreshToken) error
	RevokeByJTI(ctx context.Context, jti string) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken is the persisted record of one issued refresh token.
// TokenHash holds a SHA-256 digest of the signed token; the raw token is
// never stored.
type RefreshToken struct {
	ID             uuid.UUID
	JTI            string
	UserID         uuid.UUID
	Audience       Audience
	TokenHash      []byte
	IssuedAt       time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	RotatedFromJTI *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
