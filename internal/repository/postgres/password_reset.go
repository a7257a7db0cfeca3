package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/velora-beauty/velora-server/internal/model"
)

var _ model.PasswordResetStore = (*PasswordResetRepository)(nil)

type PasswordResetRepository struct {
	db *Connection
}

func NewPasswordResetRepository(db *Connection) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset model.PasswordReset) error {
	const query = `
        INSERT INTO password_resets (token, email, audience, expires_at, used_at, created_at)
        VALUES ($1, $2, $3, $4, NULL, NOW())
    `
	_, err := r.db.Exec(ctx, query, reset.Token, reset.Email, reset.Audience, reset.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

// ConsumeWithPassword runs the whole remediation in one transaction: mark
// the reset token used, replace the owner's password hash, and revoke every
// refresh token the owner holds. The row lock on the reset record means a
// token can be consumed at most once even under concurrent submissions.
func (r *PasswordResetRepository) ConsumeWithPassword(ctx context.Context, token string, passwordHash string) (uuid.UUID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin reset consumption: %w", err)
	}
	defer tx.Rollback(ctx)

	const selectQuery = `
        SELECT email, audience, expires_at, used_at
        FROM password_resets WHERE token = $1
        FOR UPDATE
    `
	var (
		email     string
		audience  model.Audience
		expiresAt time.Time
		usedAt    *time.Time
	)
	err = tx.QueryRow(ctx, selectQuery, token).Scan(&email, &audience, &expiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, model.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get password reset: %w", err)
	}

	if usedAt != nil {
		return uuid.Nil, model.ErrTokenRevoked
	}
	if time.Now().After(expiresAt) {
		return uuid.Nil, model.ErrTokenExpired
	}

	table, err := credentialTableFor(audience)
	if err != nil {
		return uuid.Nil, err
	}

	var userID uuid.UUID
	if err := tx.QueryRow(ctx, replacePasswordHashQuery(table), email, passwordHash).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, model.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to replace password hash: %w", err)
	}

	const markUsedQuery = `UPDATE password_resets SET used_at = NOW() WHERE token = $1`
	if _, err := tx.Exec(ctx, markUsedQuery, token); err != nil {
		return uuid.Nil, fmt.Errorf("failed to mark reset used: %w", err)
	}

	const revokeQuery = `
        UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
        WHERE user_id = $1 AND revoked_at IS NULL
    `
	if _, err := tx.Exec(ctx, revokeQuery, userID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to revoke refresh tokens on reset: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit reset consumption: %w", err)
	}
	return userID, nil
}

// replacePasswordHashQuery matches the owner row on lower(email), the same
// predicate credential lookups use, so a mixed-case stored address still
// completes its reset.
func replacePasswordHashQuery(table string) string {
	return fmt.Sprintf(`UPDATE %s SET password_hash = $2, updated_at = NOW() WHERE lower(email) = $1 RETURNING id`, table)
}

func credentialTableFor(audience model.Audience) (string, error) {
	switch audience {
	case model.AudienceCustomer:
		return "users", nil
	case model.AudienceAdmin:
		return "admins", nil
	default:
		return "", fmt.Errorf("unknown audience %q", audience)
	}
}
