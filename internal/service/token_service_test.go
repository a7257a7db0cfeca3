package service

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/velora-beauty/velora-server/internal/mocks"
	"github.com/velora-beauty/velora-server/internal/model"
	"github.com/velora-beauty/velora-server/internal/testutil"
	"github.com/velora-beauty/velora-server/internal/token"
)

func newTestManager() model.TokenManager {
	return token.NewJWT(token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "velora-auth",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func activeCustomer() model.User {
	hash := "$2a$12$abcdefghijklmnopqrstuv"
	return model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		Name:         "Mira",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}
}

func TestIssuePersistsHashedRefreshRecord(t *testing.T) {
	manager := newTestManager()
	store := &mocks.RefreshTokenStore{}
	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())
	user := activeCustomer()

	var stored model.RefreshToken
	store.On("Create", mock.Anything, mock.AnythingOfType("model.RefreshToken")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(model.RefreshToken)
		}).
		Return(nil)

	access, refresh, err := svc.Issue(context.Background(), user, model.AudienceCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := manager.VerifyRefreshToken(refresh, model.AudienceCustomer)
	require.NoError(t, err)

	assert.Equal(t, claims.JTI, stored.JTI)
	assert.Equal(t, user.ID, stored.UserID)
	assert.Equal(t, model.AudienceCustomer, stored.Audience)

	// The raw token never reaches the store, only its digest.
	wantHash := sha256.Sum256([]byte(refresh))
	assert.Equal(t, wantHash[:], stored.TokenHash)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), stored.ExpiresAt, time.Minute)

	store.AssertExpectations(t)
}

func TestParseRefresh(t *testing.T) {
	manager := newTestManager()
	user := activeCustomer()

	signed, jti, err := manager.GenerateRefreshToken(user, model.AudienceCustomer)
	require.NoError(t, err)

	hash := sha256.Sum256([]byte(signed))
	goodRecord := model.RefreshToken{
		JTI:       jti,
		UserID:    user.ID,
		Audience:  model.AudienceCustomer,
		TokenHash: hash[:],
		ExpiresAt: time.Now().Add(time.Hour),
	}

	revokedAt := time.Now().Add(-time.Minute)

	tests := []struct {
		name    string
		record  model.RefreshToken
		getErr  error
		wantErr error
	}{
		{
			name:   "valid token",
			record: goodRecord,
		},
		{
			name:    "unknown record",
			getErr:  model.ErrNotFound,
			wantErr: model.ErrInvalidToken,
		},
		{
			name: "revoked record",
			record: model.RefreshToken{
				JTI:       jti,
				TokenHash: hash[:],
				ExpiresAt: time.Now().Add(time.Hour),
				RevokedAt: &revokedAt,
			},
			wantErr: model.ErrTokenRevoked,
		},
		{
			name: "expired record",
			record: model.RefreshToken{
				JTI:       jti,
				TokenHash: hash[:],
				ExpiresAt: time.Now().Add(-time.Hour),
			},
			wantErr: model.ErrTokenExpired,
		},
		{
			name: "hash mismatch",
			record: model.RefreshToken{
				JTI:       jti,
				TokenHash: []byte("some other digest"),
				ExpiresAt: time.Now().Add(time.Hour),
			},
			wantErr: model.ErrTokenMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.RefreshTokenStore{}
			store.On("GetByJTI", mock.Anything, jti).Return(tt.record, tt.getErr)
			svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

			rt, err := svc.ParseRefresh(context.Background(), signed, model.AudienceCustomer)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, jti, rt.JTI)
			assert.Equal(t, user.ID, rt.UserID)
		})
	}
}

func TestParseRefreshRejectsForgedToken(t *testing.T) {
	store := &mocks.RefreshTokenStore{}
	svc := NewTokenService(newTestManager(), store, testutil.MakeNoopLogger())

	_, err := svc.ParseRefresh(context.Background(), "not-a-token", model.AudienceCustomer)
	assert.ErrorIs(t, err, model.ErrInvalidToken)

	// The store is never consulted for a token that fails verification.
	store.AssertNotCalled(t, "GetByJTI", mock.Anything, mock.Anything)
}

func TestRotateLinksNewRecordToOld(t *testing.T) {
	manager := newTestManager()
	store := &mocks.RefreshTokenStore{}
	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())
	user := activeCustomer()

	old := model.RefreshToken{
		JTI:      uuid.NewString(),
		UserID:   user.ID,
		Audience: model.AudienceCustomer,
	}

	var next model.RefreshToken
	store.On("Rotate", mock.Anything, old.JTI, mock.AnythingOfType("model.RefreshToken")).
		Run(func(args mock.Arguments) {
			next = args.Get(2).(model.RefreshToken)
		}).
		Return(nil)

	access, refresh, err := svc.Rotate(context.Background(), old, user)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	require.NotNil(t, next.RotatedFromJTI)
	assert.Equal(t, old.JTI, *next.RotatedFromJTI)
	assert.NotEqual(t, old.JTI, next.JTI)

	wantHash := sha256.Sum256([]byte(refresh))
	assert.Equal(t, wantHash[:], next.TokenHash)

	store.AssertExpectations(t)
}

func TestRotateReplayObservesRevoked(t *testing.T) {
	store := &mocks.RefreshTokenStore{}
	store.On("Rotate", mock.Anything, mock.Anything, mock.Anything).Return(model.ErrTokenRevoked)
	svc := NewTokenService(newTestManager(), store, testutil.MakeNoopLogger())

	old := model.RefreshToken{JTI: uuid.NewString(), Audience: model.AudienceCustomer}
	_, _, err := svc.Rotate(context.Background(), old, activeCustomer())
	assert.ErrorIs(t, err, model.ErrTokenRevoked)
}

func TestRevokeByToken(t *testing.T) {
	manager := newTestManager()
	user := activeCustomer()

	signed, jti, err := manager.GenerateRefreshToken(user, model.AudienceCustomer)
	require.NoError(t, err)

	store := &mocks.RefreshTokenStore{}
	store.On("RevokeByJTI", mock.Anything, jti).Return(nil)
	svc := NewTokenService(manager, store, testutil.MakeNoopLogger())

	require.NoError(t, svc.RevokeByToken(context.Background(), signed, model.AudienceCustomer))
	store.AssertExpectations(t)
}

func TestRevokeByTokenRejectsForgedToken(t *testing.T) {
	store := &mocks.RefreshTokenStore{}
	svc := NewTokenService(newTestManager(), store, testutil.MakeNoopLogger())

	err := svc.RevokeByToken(context.Background(), "garbage", model.AudienceCustomer)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
	store.AssertNotCalled(t, "RevokeByJTI", mock.Anything, mock.Anything)
}
