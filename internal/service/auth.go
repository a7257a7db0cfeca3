package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
	"github.com/velora-beauty/velora-server/internal/password"
)

// Auth is the session orchestrator for one audience. It composes the rate
// limiter, password verification, token codec and refresh-token store into
// the login/refresh/logout/verify protocol.
type Auth struct {
	cfg          AudienceConfig
	tokenService *TokenService
	limiter      model.RateLimiter
	logger       *logger.Logger
}

func NewAuth(cfg AudienceConfig, tokenService *TokenService, limiter model.RateLimiter, logger *logger.Logger) *Auth {
	return &Auth{
		cfg:          cfg,
		tokenService: tokenService,
		limiter:      limiter,
		logger:       logger,
	}
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	User         model.SafeUser
	Permissions  []string
	AccessToken  string
	RefreshToken string
}

// Audience returns the audience this orchestrator serves.
func (a *Auth) Audience() model.Audience { return a.cfg.Audience }

// Tokens exposes the composed token service.
func (a *Auth) Tokens() *TokenService { return a.tokenService }

// NormalizeEmail lowercases and trims an email for case-insensitive lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login runs the credential check sequence: rate limit, lookup, status,
// password, issue. Steps run strictly in order and short-circuit on the
// first failure; the rate check happens before any lookup so a throttled
// client learns nothing about account existence.
func (a *Auth) Login(ctx context.Context, email, pass, clientIP string) (Session, error) {
	key := fmt.Sprintf("login:%s:%s", a.cfg.Audience, clientIP)
	res, err := a.limiter.Check(ctx, key, a.cfg.LoginMax, a.cfg.LoginWindow)
	if err != nil {
		return Session{}, fmt.Errorf("failed to rate-check login: %w", err)
	}
	if !res.Allowed {
		a.logger.Info("Auth service: login rate limited",
			"audience", a.cfg.Audience,
			"ip", clientIP)
		return Session{}, &model.RateLimitError{RetryAfter: res.ResetIn}
	}

	email = NormalizeEmail(email)

	user, err := a.cfg.Store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Same outcome as a wrong password; account existence must not leak.
			return Session{}, model.ErrInvalidCredentials
		}
		// Credential store failures deny: fail closed.
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.PasswordHash == nil {
		return Session{}, model.ErrSocialLoginOnly
	}

	if user.Status != model.StatusActive {
		a.logger.Info("Auth service: login blocked for inactive account",
			"audience", a.cfg.Audience,
			"user_id", user.ID)
		return Session{}, model.ErrAccountNotActive
	}

	if !password.Verify(pass, *user.PasswordHash) {
		a.logger.Info("Auth service: login password mismatch",
			"audience", a.cfg.Audience,
			"user_id", user.ID,
			"ip", clientIP)
		return Session{}, model.ErrInvalidCredentials
	}

	access, refresh, err := a.tokenService.Issue(ctx, user, a.cfg.Audience)
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	if err := a.cfg.Store.TouchLastLogin(ctx, user.ID); err != nil {
		// Bookkeeping only; the session is already valid.
		a.logger.Error("Auth service: failed to update last login",
			"user_id", user.ID,
			"error", err.Error())
	}

	a.logger.Info("Auth service: login succeeded",
		"audience", a.cfg.Audience,
		"user_id", user.ID)

	return Session{
		User:         user.Safe(),
		Permissions:  a.cfg.PermissionsFor(user.Role),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh rotates the presented refresh token: verify, look up the record,
// re-check the account, then atomically revoke-and-replace.
func (a *Auth) Refresh(ctx context.Context, presentedRefresh string) (Session, error) {
	rt, err := a.tokenService.ParseRefresh(ctx, presentedRefresh, a.cfg.Audience)
	if err != nil {
		return Session{}, err
	}

	user, err := a.cfg.Store.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, model.ErrInvalidToken
		}
		return Session{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.Status != model.StatusActive {
		return Session{}, model.ErrAccountNotActive
	}

	access, refresh, err := a.tokenService.Rotate(ctx, rt, user)
	if err != nil {
		return Session{}, err
	}

	a.logger.Info("Auth service: refresh rotated",
		"audience", a.cfg.Audience,
		"user_id", user.ID)

	return Session{
		User:         user.Safe(),
		Permissions:  a.cfg.PermissionsFor(user.Role),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Logout revokes the presented refresh token. On the admin console a valid
// access token additionally revokes every other session the subject holds;
// the storefront revokes only the presented token, so a customer's other
// devices stay signed in. Every step is best-effort: logout never fails from
// the client's perspective.
func (a *Auth) Logout(ctx context.Context, refreshToken, accessToken string) {
	if refreshToken != "" {
		if err := a.tokenService.RevokeByToken(ctx, refreshToken, a.cfg.Audience); err != nil {
			a.logger.Info("Auth service: logout could not revoke refresh token",
				"audience", a.cfg.Audience,
				"error", err.Error())
		}
	}

	if accessToken != "" && a.cfg.Audience == model.AudienceAdmin {
		claims, err := a.tokenService.VerifyAccess(ctx, accessToken, a.cfg.Audience)
		if err != nil {
			return
		}
		if err := a.tokenService.RevokeAllForUser(ctx, claims.UserID); err != nil {
			a.logger.Error("Auth service: logout could not revoke all sessions",
				"audience", a.cfg.Audience,
				"user_id", claims.UserID,
				"error", err.Error())
		}
	}
}

// ChangePassword replaces the password of an authenticated account after
// re-proving the current one. Every refresh token the account holds is
// revoked afterwards, so other devices must log in with the new password.
func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := a.cfg.Store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidToken
		}
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.Status != model.StatusActive {
		return model.ErrAccountNotActive
	}
	if user.PasswordHash == nil {
		return model.ErrSocialLoginOnly
	}
	if !password.Verify(currentPassword, *user.PasswordHash) {
		a.logger.Info("Auth service: change password rejected, current password mismatch",
			"audience", a.cfg.Audience,
			"user_id", user.ID)
		return model.ErrInvalidCredentials
	}

	strength := password.ValidateStrength(newPassword)
	if !strength.Valid {
		return &model.ValidationError{Violations: strength.Errors}
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := a.cfg.Store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to replace password hash: %w", err)
	}

	if err := a.tokenService.RevokeAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions after password change: %w", err)
	}

	a.logger.Info("Auth service: password changed, all sessions revoked",
		"audience", a.cfg.Audience,
		"user_id", user.ID)
	return nil
}

// CreateAccount provisions a credential record for this audience. The role
// must exist in the audience's permission table, which also keeps a
// storefront orchestrator from minting staff roles.
func (a *Auth) CreateAccount(ctx context.Context, email, name, pass string, role model.Role) (model.SafeUser, error) {
	if _, ok := a.cfg.Permissions[role]; !ok {
		return model.SafeUser{}, &model.ValidationError{
			Violations: []string{fmt.Sprintf("unknown role %q", role)},
		}
	}

	strength := password.ValidateStrength(pass)
	if !strength.Valid {
		return model.SafeUser{}, &model.ValidationError{Violations: strength.Errors}
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return model.SafeUser{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.cfg.Store.Create(ctx, model.User{
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: &hash,
		Role:         role,
		Status:       model.StatusActive,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.SafeUser{}, model.ErrEmailTaken
		}
		return model.SafeUser{}, fmt.Errorf("failed to create account: %w", err)
	}

	a.logger.Info("Auth service: account created",
		"audience", a.cfg.Audience,
		"user_id", user.ID,
		"role", user.Role)
	return user.Safe(), nil
}

// Me re-fetches the credential record behind a verified access token.
// Claims are not trusted for role or status; a suspension or role change
// takes effect within the access-token TTL, not at its expiry.
func (a *Auth) Me(ctx context.Context, userID uuid.UUID) (model.SafeUser, []string, error) {
	user, err := a.cfg.Store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.SafeUser{}, nil, model.ErrInvalidToken
		}
		return model.SafeUser{}, nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.Status != model.StatusActive {
		return model.SafeUser{}, nil, model.ErrAccountNotActive
	}

	return user.Safe(), a.cfg.PermissionsFor(user.Role), nil
}
