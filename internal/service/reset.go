package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
	"github.com/velora-beauty/velora-server/internal/password"
)

const (
	otpTTL        = 10 * time.Minute
	resetTokenTTL = 15 * time.Minute
)

// Reset implements the three-step password reset: request a one-time code,
// verify it, submit the new password.
type Reset struct {
	cfg        AudienceConfig
	otpStore   model.OTPStore
	resetStore model.PasswordResetStore
	mailer     model.Mailer
	limiter    model.RateLimiter
	logger     *logger.Logger
	exposeOTP  bool
}

// NewReset creates the reset orchestrator for one audience. exposeOTP echoes
// the code in the response and must stay false outside local development.
func NewReset(
	cfg AudienceConfig,
	otpStore model.OTPStore,
	resetStore model.PasswordResetStore,
	mailer model.Mailer,
	limiter model.RateLimiter,
	logger *logger.Logger,
	exposeOTP bool,
) *Reset {
	return &Reset{
		cfg:        cfg,
		otpStore:   otpStore,
		resetStore: resetStore,
		mailer:     mailer,
		limiter:    limiter,
		logger:     logger,
		exposeOTP:  exposeOTP,
	}
}

// Forgot dispatches a one-time code when the account exists. The outcome is
// success-shaped either way so the endpoint cannot be used to enumerate
// accounts. The returned code is empty unless OTP exposure is enabled for
// local development.
func (r *Reset) Forgot(ctx context.Context, email, clientIP string) (string, error) {
	key := fmt.Sprintf("reset:%s:%s", r.cfg.Audience, clientIP)
	res, err := r.limiter.Check(ctx, key, r.cfg.ResetMax, r.cfg.ResetWindow)
	if err != nil {
		return "", fmt.Errorf("failed to rate-check reset request: %w", err)
	}
	if !res.Allowed {
		return "", &model.RateLimitError{RetryAfter: res.ResetIn}
	}

	email = NormalizeEmail(email)

	user, err := r.cfg.Store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.Status != model.StatusActive {
		return "", nil
	}

	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	if err := r.otpStore.Save(ctx, r.cfg.Audience, email, code, otpTTL); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	if err := r.mailer.SendOTP(ctx, email, code); err != nil {
		// Swallowed: a distinct failure response here would leak that the
		// account exists.
		r.logger.Error("Reset service: failed to send code",
			"audience", r.cfg.Audience,
			"user_id", user.ID,
			"error", err.Error())
	}

	r.logger.Info("Reset service: code dispatched",
		"audience", r.cfg.Audience,
		"user_id", user.ID)

	if r.exposeOTP {
		return code, nil
	}
	return "", nil
}

// VerifyOTP consumes the one-time code and mints a single-use, short-lived
// reset token.
func (r *Reset) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = NormalizeEmail(email)

	if err := r.otpStore.Consume(ctx, r.cfg.Audience, email, code); err != nil {
		return "", err
	}

	reset := model.PasswordReset{
		Token:     uuid.NewString(),
		Email:     email,
		Audience:  r.cfg.Audience,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := r.resetStore.Create(ctx, reset); err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	r.logger.Info("Reset service: code verified",
		"audience", r.cfg.Audience,
		"email", email)

	return reset.Token, nil
}

// SubmitNewPassword validates the new password, then atomically consumes the
// reset token, replaces the hash, and revokes every refresh token the owner
// holds. Revocation forces re-login everywhere after a password change.
func (r *Reset) SubmitNewPassword(ctx context.Context, resetToken, newPassword string) error {
	strength := password.ValidateStrength(newPassword)
	if !strength.Valid {
		return &model.ValidationError{Violations: strength.Errors}
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	userID, err := r.resetStore.ConsumeWithPassword(ctx, resetToken, hash)
	if err != nil {
		return err
	}

	r.logger.Info("Reset service: password replaced, all sessions revoked",
		"audience", r.cfg.Audience,
		"user_id", userID)

	return nil
}

// generateOTP returns a uniformly random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
