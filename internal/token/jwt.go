package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/velora-beauty/velora-server/internal/model"
)

// Claims represents JWT claims with token kind, role and user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID  `json:"user_id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	TokenType string     `json:"typ"`
}

// Config holds signing parameters for the JWT manager.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// JWT implements model.TokenManager backed by symmetric HMAC. Access and
// refresh tokens are signed with distinct secrets, and the kind claim is
// checked at parse time on top of the secret split.
type JWT struct {
	cfg Config
}

// NewJWT creates a new JWT token manager.
func NewJWT(cfg Config) *JWT {
	return &JWT{cfg: cfg}
}

var _ model.TokenManager = (*JWT)(nil)

// GenerateAccessToken creates a short-lived access token for the audience.
func (j *JWT) GenerateAccessToken(user model.User, audience model.Audience) (string, error) {
	signed, _, err := j.sign(user, audience, model.TokenKindAccess, j.cfg.AccessSecret, j.cfg.AccessTTL)
	return signed, err
}

// GenerateRefreshToken creates a long-lived refresh token and returns its JTI.
func (j *JWT) GenerateRefreshToken(user model.User, audience model.Audience) (string, string, error) {
	return j.sign(user, audience, model.TokenKindRefresh, j.cfg.RefreshSecret, j.cfg.RefreshTTL)
}

func (j *JWT) sign(user model.User, audience model.Audience, kind model.TokenKind, secret string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    j.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{string(audience)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: string(kind),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", model.ErrInvalidToken
	}

	return signed, jti, nil
}

// VerifyAccessToken validates an access token for the audience.
func (j *JWT) VerifyAccessToken(tokenString string, audience model.Audience) (model.TokenClaims, error) {
	return j.verify(tokenString, audience, model.TokenKindAccess, j.cfg.AccessSecret)
}

// VerifyRefreshToken validates a refresh token for the audience.
func (j *JWT) VerifyRefreshToken(tokenString string, audience model.Audience) (model.TokenClaims, error) {
	return j.verify(tokenString, audience, model.TokenKindRefresh, j.cfg.RefreshSecret)
}

// verify collapses every failure into model.ErrInvalidToken. Expired, forged,
// wrong-kind and wrong-audience tokens must be indistinguishable to a caller.
func (j *JWT) verify(tokenString string, audience model.Audience, kind model.TokenKind, secret string) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(j.cfg.Issuer),
		jwt.WithAudience(string(audience)),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return model.TokenClaims{}, model.ErrInvalidToken
	}
	if claims.TokenType != string(kind) {
		return model.TokenClaims{}, model.ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return model.TokenClaims{}, model.ErrInvalidToken
	}

	return toModelClaims(claims), nil
}

// Decode parses claims without verifying the signature. Display-only reads
// such as expiry countdowns; never an input to access control.
func (j *JWT) Decode(tokenString string) (model.TokenClaims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return model.TokenClaims{}, model.ErrInvalidToken
	}
	return toModelClaims(claims), nil
}

// AccessTTL returns the configured access token lifetime.
func (j *JWT) AccessTTL() time.Duration { return j.cfg.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (j *JWT) RefreshTTL() time.Duration { return j.cfg.RefreshTTL }

func toModelClaims(claims *Claims) model.TokenClaims {
	out := model.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Kind:   model.TokenKind(claims.TokenType),
		JTI:    claims.ID,
	}
	if len(claims.Audience) > 0 {
		out.Audience = model.Audience(claims.Audience[0])
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out
}
