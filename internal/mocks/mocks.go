// Package mocks holds testify mocks for the model interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/velora-beauty/velora-server/internal/model"
)

type CredentialStore struct {
	mock.Mock
}

func (m *CredentialStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *CredentialStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *CredentialStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *CredentialStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *CredentialStore) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type RefreshTokenStore struct {
	mock.Mock
}

func (m *RefreshTokenStore) Create(ctx context.Context, token model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenStore) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	args := m.Called(ctx, jti)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, oldJTI string, next model.RefreshToken) error {
	args := m.Called(ctx, oldJTI, next)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeByJTI(ctx context.Context, jti string) error {
	args := m.Called(ctx, jti)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type TokenManager struct {
	mock.Mock
}

func (m *TokenManager) GenerateAccessToken(user model.User, audience model.Audience) (string, error) {
	args := m.Called(user, audience)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) GenerateRefreshToken(user model.User, audience model.Audience) (string, string, error) {
	args := m.Called(user, audience)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *TokenManager) VerifyAccessToken(token string, audience model.Audience) (model.TokenClaims, error) {
	args := m.Called(token, audience)
	return args.Get(0).(model.TokenClaims), args.Error(1)
}

func (m *TokenManager) VerifyRefreshToken(token string, audience model.Audience) (model.TokenClaims, error) {
	args := m.Called(token, audience)
	return args.Get(0).(model.TokenClaims), args.Error(1)
}

func (m *TokenManager) Decode(token string) (model.TokenClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.TokenClaims), args.Error(1)
}

func (m *TokenManager) AccessTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *TokenManager) RefreshTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

type RateLimiter struct {
	mock.Mock
}

func (m *RateLimiter) Check(ctx context.Context, key string, max int, window time.Duration) (model.RateResult, error) {
	args := m.Called(ctx, key, max, window)
	return args.Get(0).(model.RateResult), args.Error(1)
}

type OTPStore struct {
	mock.Mock
}

func (m *OTPStore) Save(ctx context.Context, audience model.Audience, email, code string, ttl time.Duration) error {
	args := m.Called(ctx, audience, email, code, ttl)
	return args.Error(0)
}

func (m *OTPStore) Consume(ctx context.Context, audience model.Audience, email, code string) error {
	args := m.Called(ctx, audience, email, code)
	return args.Error(0)
}

type PasswordResetStore struct {
	mock.Mock
}

func (m *PasswordResetStore) Create(ctx context.Context, reset model.PasswordReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

func (m *PasswordResetStore) ConsumeWithPassword(ctx context.Context, token string, passwordHash string) (uuid.UUID, error) {
	args := m.Called(ctx, token, passwordHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type Mailer struct {
	mock.Mock
}

func (m *Mailer) SendOTP(ctx context.Context, to, code string) error {
	args := m.Called(ctx, to, code)
	return args.Error(0)
}
