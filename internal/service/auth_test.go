package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/velora-beauty/velora-server/internal/mocks"
	"github.com/velora-beauty/velora-server/internal/model"
	"github.com/velora-beauty/velora-server/internal/password"
	"github.com/velora-beauty/velora-server/internal/testutil"
)

// bcrypt of "Tr0ub4dor&3" is too slow to mint per test case, so each test
// that needs a real hash mints it once via password.Hash.

type authFixture struct {
	auth       *Auth
	userStore  *mocks.CredentialStore
	tokenStore *mocks.RefreshTokenStore
	limiter    *mocks.RateLimiter
}

func newAuthFixture(t *testing.T, audience model.Audience) *authFixture {
	t.Helper()

	userStore := &mocks.CredentialStore{}
	tokenStore := &mocks.RefreshTokenStore{}
	limiter := &mocks.RateLimiter{}

	cfg := AudienceConfig{
		Audience:    audience,
		Store:       userStore,
		Permissions: CustomerPermissions,
		LoginMax:    5,
		LoginWindow: 15 * time.Minute,
		ResetMax:    3,
		ResetWindow: time.Hour,
	}
	if audience == model.AudienceAdmin {
		cfg.Permissions = AdminPermissions
	}

	tokenService := NewTokenService(newTestManager(), tokenStore, testutil.MakeNoopLogger())
	return &authFixture{
		auth:       NewAuth(cfg, tokenService, limiter, testutil.MakeNoopLogger()),
		userStore:  userStore,
		tokenStore: tokenStore,
		limiter:    limiter,
	}
}

func (f *authFixture) allowRate() {
	f.limiter.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.RateResult{Allowed: true, Remaining: 4, ResetIn: time.Minute}, nil)
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)
	f.allowRate()

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		Name:         "Mira",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}

	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(user, nil)
	f.userStore.On("TouchLastLogin", mock.Anything, user.ID).Return(nil)
	f.tokenStore.On("Create", mock.Anything, mock.AnythingOfType("model.RefreshToken")).Return(nil)

	session, err := f.auth.Login(context.Background(), "  Mira@Example.COM ", "Tr0ub4dor&3", "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, user.ID, session.User.ID)
	assert.Equal(t, CustomerPermissions[model.RoleCustomer], session.Permissions)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	f.userStore.AssertExpectations(t)
	f.tokenStore.AssertExpectations(t)
}

func TestLoginUnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)
	f.allowRate()

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	known := model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}

	f.userStore.On("GetByEmail", mock.Anything, "nobody@example.com").Return(model.User{}, model.ErrNotFound)
	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(known, nil)

	_, unknownErr := f.auth.Login(context.Background(), "nobody@example.com", "whatever", "10.0.0.1")
	_, wrongPassErr := f.auth.Login(context.Background(), "mira@example.com", "WrongPass1!", "10.0.0.1")

	assert.ErrorIs(t, unknownErr, model.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, model.ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongPassErr)
}

func TestLoginSocialOnlyAccount(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)
	f.allowRate()

	user := model.User{
		ID:     uuid.New(),
		Email:  "mira@example.com",
		Role:   model.RoleCustomer,
		Status: model.StatusActive,
	}
	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(user, nil)

	_, err := f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.1")
	assert.ErrorIs(t, err, model.ErrSocialLoginOnly)
}

func TestLoginInactiveAccount(t *testing.T) {
	for _, status := range []model.Status{model.StatusSuspended, model.StatusDeleted} {
		t.Run(string(status), func(t *testing.T) {
			f := newAuthFixture(t, model.AudienceCustomer)
			f.allowRate()

			hash, err := password.Hash("Tr0ub4dor&3")
			require.NoError(t, err)
			user := model.User{
				ID:           uuid.New(),
				Email:        "mira@example.com",
				PasswordHash: &hash,
				Role:         model.RoleCustomer,
				Status:       status,
			}
			f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(user, nil)

			_, err = f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.1")
			assert.ErrorIs(t, err, model.ErrAccountNotActive)
		})
	}
}

func TestLoginRateLimitedBeforeLookup(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)
	f.limiter.On("Check", mock.Anything, "login:customer:10.0.0.9", 5, 15*time.Minute).
		Return(model.RateResult{Allowed: false, Remaining: 0, ResetIn: 3 * time.Minute}, nil)

	_, err := f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.9")

	var rateErr *model.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 3*time.Minute, rateErr.RetryAfter)

	// A throttled attempt never touches the credential store.
	f.userStore.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestLoginFailsClosedOnStoreError(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)
	f.allowRate()

	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").
		Return(model.User{}, errors.New("connection refused"))

	_, err := f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLoginSurvivesLastLoginBookkeepingFailure(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)
	f.allowRate()

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}

	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(user, nil)
	f.userStore.On("TouchLastLogin", mock.Anything, user.ID).Return(errors.New("deadlock"))
	f.tokenStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	session, err := f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}

	// Mint a real refresh token so ParseRefresh verifies it.
	f.allowRate()
	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(user, nil)
	f.userStore.On("TouchLastLogin", mock.Anything, user.ID).Return(nil)

	var stored model.RefreshToken
	f.tokenStore.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(model.RefreshToken) }).
		Return(nil)

	session, err := f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.1")
	require.NoError(t, err)

	f.userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.tokenStore.On("GetByJTI", mock.Anything, stored.JTI).Return(stored, nil)
	f.tokenStore.On("Rotate", mock.Anything, stored.JTI, mock.AnythingOfType("model.RefreshToken")).Return(nil)

	next, err := f.auth.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)
	assert.Equal(t, user.ID, next.User.ID)
}

func TestRefreshBlockedForInactiveAccount(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}

	f.allowRate()
	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(user, nil)
	f.userStore.On("TouchLastLogin", mock.Anything, user.ID).Return(nil)

	var stored model.RefreshToken
	f.tokenStore.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(model.RefreshToken) }).
		Return(nil)

	session, err := f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.1")
	require.NoError(t, err)

	suspended := user
	suspended.Status = model.StatusSuspended
	f.userStore.On("GetByID", mock.Anything, user.ID).Return(suspended, nil)
	f.tokenStore.On("GetByJTI", mock.Anything, stored.JTI).Return(stored, nil)

	_, err = f.auth.Refresh(context.Background(), session.RefreshToken)
	assert.ErrorIs(t, err, model.ErrAccountNotActive)
	f.tokenStore.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	_, err := f.auth.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestLogoutIsAlwaysSilent(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	// No tokens at all, garbage tokens, and store failures all pass quietly.
	f.auth.Logout(context.Background(), "", "")
	f.auth.Logout(context.Background(), "garbage", "garbage")

	f.tokenStore.AssertNotCalled(t, "RevokeByJTI", mock.Anything, mock.Anything)
	f.tokenStore.AssertNotCalled(t, "RevokeAllByUser", mock.Anything, mock.Anything)
}

func TestAdminLogoutRevokesAllSessionsWithValidAccessToken(t *testing.T) {
	f := newAuthFixture(t, model.AudienceAdmin)

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		Email:        "ops@example.com",
		PasswordHash: &hash,
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
	}

	f.allowRate()
	f.userStore.On("GetByEmail", mock.Anything, "ops@example.com").Return(user, nil)
	f.userStore.On("TouchLastLogin", mock.Anything, user.ID).Return(nil)
	f.tokenStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	session, err := f.auth.Login(context.Background(), "ops@example.com", "Tr0ub4dor&3", "10.0.0.1")
	require.NoError(t, err)

	f.tokenStore.On("RevokeByJTI", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	f.tokenStore.On("RevokeAllByUser", mock.Anything, user.ID).Return(nil)

	f.auth.Logout(context.Background(), session.RefreshToken, session.AccessToken)

	f.tokenStore.AssertCalled(t, "RevokeAllByUser", mock.Anything, user.ID)
}

// A customer logging out on one device must not sign out their other
// devices, even when a perfectly valid access token rides along.
func TestCustomerLogoutKeepsOtherSessions(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}

	f.allowRate()
	f.userStore.On("GetByEmail", mock.Anything, "mira@example.com").Return(user, nil)
	f.userStore.On("TouchLastLogin", mock.Anything, user.ID).Return(nil)
	f.tokenStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	session, err := f.auth.Login(context.Background(), "mira@example.com", "Tr0ub4dor&3", "10.0.0.1")
	require.NoError(t, err)

	f.tokenStore.On("RevokeByJTI", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	f.auth.Logout(context.Background(), session.RefreshToken, session.AccessToken)

	f.tokenStore.AssertCalled(t, "RevokeByJTI", mock.Anything, mock.AnythingOfType("string"))
	f.tokenStore.AssertNotCalled(t, "RevokeAllByUser", mock.Anything, mock.Anything)
}

func TestChangePasswordReplacesHashAndRevokesSessions(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		Email:        "mira@example.com",
		PasswordHash: &hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
	}

	f.userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.userStore.On("UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string")).Return(nil)
	f.tokenStore.On("RevokeAllByUser", mock.Anything, user.ID).Return(nil)

	err = f.auth.ChangePassword(context.Background(), user.ID, "Tr0ub4dor&3", "N3w&Stronger1")
	require.NoError(t, err)

	f.userStore.AssertCalled(t, "UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string"))
	f.tokenStore.AssertCalled(t, "RevokeAllByUser", mock.Anything, user.ID)
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		PasswordHash: &hash,
		Status:       model.StatusActive,
	}
	f.userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err = f.auth.ChangePassword(context.Background(), user.ID, "NotMyPassword1!", "N3w&Stronger1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	f.userStore.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	f.tokenStore.AssertNotCalled(t, "RevokeAllByUser", mock.Anything, mock.Anything)
}

func TestChangePasswordRejectsWeakReplacement(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	hash, err := password.Hash("Tr0ub4dor&3")
	require.NoError(t, err)
	user := model.User{
		ID:           uuid.New(),
		PasswordHash: &hash,
		Status:       model.StatusActive,
	}
	f.userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err = f.auth.ChangePassword(context.Background(), user.ID, "Tr0ub4dor&3", "short")

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	f.userStore.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAccountProvisionsActiveRecord(t *testing.T) {
	f := newAuthFixture(t, model.AudienceAdmin)

	f.userStore.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "new.editor@example.com" &&
			u.Role == model.RoleEditor &&
			u.Status == model.StatusActive &&
			u.PasswordHash != nil
	})).Return(model.User{
		ID:     uuid.New(),
		Email:  "new.editor@example.com",
		Name:   "New Editor",
		Role:   model.RoleEditor,
		Status: model.StatusActive,
	}, nil)

	safe, err := f.auth.CreateAccount(context.Background(),
		"  New.Editor@Example.COM ", "New Editor", "Str0ng&Enough1", model.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, safe.Role)

	f.userStore.AssertExpectations(t)
}

// A role outside the audience's permission table is rejected before any
// store call, so the storefront orchestrator can never mint staff roles.
func TestCreateAccountRejectsForeignRole(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	_, err := f.auth.CreateAccount(context.Background(),
		"mira@example.com", "Mira", "Str0ng&Enough1", model.RoleSuperAdmin)

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	f.userStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, model.AudienceAdmin)

	f.userStore.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrEmailTaken)

	_, err := f.auth.CreateAccount(context.Background(),
		"taken@example.com", "Taken", "Str0ng&Enough1", model.RoleAdmin)
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestMeRefetchesRecord(t *testing.T) {
	f := newAuthFixture(t, model.AudienceAdmin)

	user := model.User{
		ID:     uuid.New(),
		Email:  "ops@example.com",
		Name:   "Ops",
		Role:   model.RoleSuperAdmin,
		Status: model.StatusActive,
	}
	f.userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	safe, perms, err := f.auth.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, safe.Email)
	assert.Contains(t, perms, "admins:manage")
}

func TestMeBlockedForSuspendedAccount(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	user := model.User{
		ID:     uuid.New(),
		Status: model.StatusSuspended,
	}
	f.userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	_, _, err := f.auth.Me(context.Background(), user.ID)
	assert.ErrorIs(t, err, model.ErrAccountNotActive)
}

func TestMeUnknownSubject(t *testing.T) {
	f := newAuthFixture(t, model.AudienceCustomer)

	id := uuid.New()
	f.userStore.On("GetByID", mock.Anything, id).Return(model.User{}, model.ErrNotFound)

	_, _, err := f.auth.Me(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}
