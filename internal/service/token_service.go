package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
)

// TokenService provides high-level operations for issuing, rotating, and
// revoking bearer tokens. It composes the TokenManager and RefreshTokenStore.
type TokenService struct {
	manager model.TokenManager
	store   model.RefreshTokenStore
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger}
}

// Issue mints an access+refresh pair for the user and persists the refresh
// token record.
func (s *TokenService) Issue(ctx context.Context, user model.User, audience model.Audience) (accessToken string, refreshToken string, err error) {
	access, err := s.manager.GenerateAccessToken(user, audience)
	if err != nil {
		return "", "", fmt.Errorf("issue access: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(user, audience)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh: %w", err)
	}

	now := time.Now()
	rt := model.RefreshToken{
		ID:        uuid.New(),
		JTI:       jti,
		UserID:    user.ID,
		Audience:  audience,
		TokenHash: hashRefresh(refresh),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.manager.RefreshTTL()),
		RevokedAt: nil,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, rt); err != nil {
		return "", "", fmt.Errorf("persist refresh: %w", err)
	}

	return access, refresh, nil
}

// ParseRefresh verifies the presented refresh token cryptographically and
// against its stored record. All verification failures collapse into the
// token error sentinels; callers map them to a single unauthenticated
// outcome.
func (s *TokenService) ParseRefresh(ctx context.Context, presentedRefresh string, audience model.Audience) (model.RefreshToken, error) {
	claims, err := s.manager.VerifyRefreshToken(presentedRefresh, audience)
	if err != nil {
		return model.RefreshToken{}, model.ErrInvalidToken
	}

	rt, err := s.store.GetByJTI(ctx, claims.JTI)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.RefreshToken{}, model.ErrInvalidToken
		}
		return model.RefreshToken{}, err
	}

	if err := validateRecord(rt, hashRefresh(presentedRefresh), time.Now()); err != nil {
		return model.RefreshToken{}, err
	}

	return rt, nil
}

// Rotate revokes the old record and issues a new access+refresh pair in its
// place. A refresh token is single-use: of two concurrent rotations of the
// same token at most one succeeds, the other observes ErrTokenRevoked.
func (s *TokenService) Rotate(ctx context.Context, old model.RefreshToken, user model.User) (newAccess string, newRefresh string, err error) {
	access, err := s.manager.GenerateAccessToken(user, old.Audience)
	if err != nil {
		return "", "", fmt.Errorf("issue new access: %w", err)
	}

	refresh, newJTI, err := s.manager.GenerateRefreshToken(user, old.Audience)
	if err != nil {
		return "", "", fmt.Errorf("issue new refresh: %w", err)
	}

	now := time.Now()
	rotatedFrom := old.JTI
	next := model.RefreshToken{
		ID:             uuid.New(),
		JTI:            newJTI,
		UserID:         user.ID,
		Audience:       old.Audience,
		TokenHash:      hashRefresh(refresh),
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.manager.RefreshTTL()),
		RevokedAt:      nil,
		RotatedFromJTI: &rotatedFrom,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Rotate(ctx, old.JTI, next); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// RevokeByToken revokes the record behind the presented refresh token.
func (s *TokenService) RevokeByToken(ctx context.Context, presentedRefresh string, audience model.Audience) error {
	claims, err := s.manager.VerifyRefreshToken(presentedRefresh, audience)
	if err != nil {
		return model.ErrInvalidToken
	}
	return s.store.RevokeByJTI(ctx, claims.JTI)
}

// RevokeAllForUser revokes every refresh token the user holds.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// VerifyAccess validates an access token for the audience.
func (s *TokenService) VerifyAccess(ctx context.Context, token string, audience model.Audience) (model.TokenClaims, error) {
	return s.manager.VerifyAccessToken(token, audience)
}

// AccessTTL returns the access token lifetime for cookie Max-Age.
func (s *TokenService) AccessTTL() time.Duration { return s.manager.AccessTTL() }

// RefreshTTL returns the refresh token lifetime for cookie Max-Age.
func (s *TokenService) RefreshTTL() time.Duration { return s.manager.RefreshTTL() }

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func validateRecord(rt model.RefreshToken, presentedHash []byte, now time.Time) error {
	if rt.RevokedAt != nil {
		return model.ErrTokenRevoked
	}
	if now.After(rt.ExpiresAt) {
		return model.ErrTokenExpired
	}
	if !equalBytes(rt.TokenHash, presentedHash) {
		return model.ErrTokenMismatch
	}
	return nil
}

func equalBytes(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
