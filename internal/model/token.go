package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind distinguishes the two bearer token kinds. The kind claim is
// checked at verification time in addition to the per-kind signing secret.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Audience distinguishes which application surface a token is valid for.
// Tokens minted for one audience are rejected when presented for the other.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceAdmin    Audience = "admin"
)

// TokenClaims is the verified claim set carried by a bearer token.
type TokenClaims struct {
	UserID    uuid.UUID
	Email     string
	Role      Role
	Kind      TokenKind
	Audience  Audience
	JTI       string
	ExpiresAt time.Time
}

// TokenManager mints and verifies access and refresh tokens. Verification
// failures of any cause (malformed, expired, bad signature, wrong kind or
// audience) are collapsed into ErrInvalidToken so callers cannot build an
// oracle out of the failure mode.
type TokenManager interface {
	GenerateAccessToken(user User, audience Audience) (string, error)
	GenerateRefreshToken(user User, audience Audience) (token string, jti string, err error)
	VerifyAccessToken(token string, audience Audience) (TokenClaims, error)
	VerifyRefreshToken(token string, audience Audience) (TokenClaims, error)
	Decode(token string) (TokenClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}
