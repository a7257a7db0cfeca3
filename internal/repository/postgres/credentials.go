package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/velora-beauty/velora-server/internal/model"
)

var _ model.CredentialStore = (*CredentialRepository)(nil)

// CredentialRepository persists credential records for one audience.
// Storefront customers and admin-console staff live in separate tables with
// an identical column layout.
type CredentialRepository struct {
	db    *Connection
	table string
}

// NewUserRepository returns the credential store for storefront customers.
func NewUserRepository(db *Connection) *CredentialRepository {
	return &CredentialRepository{db: db, table: "users"}
}

// NewAdminRepository returns the credential store for admin-console staff.
func NewAdminRepository(db *Connection) *CredentialRepository {
	return &CredentialRepository{db: db, table: "admins"}
}

const credentialColumns = "id, email, name, password_hash, role, status, last_login_at, created_at, updated_at"

// credentialByEmailQuery matches on lower(email) so lookups stay
// case-insensitive regardless of how the row was seeded. The unique index on
// lower(email) keeps the predicate indexed.
func credentialByEmailQuery(table string) string {
	return fmt.Sprintf(`SELECT %s FROM %s WHERE lower(email) = $1`, credentialColumns, table)
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(ctx, credentialByEmailQuery(r.table), email)
}

func (r *CredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, credentialColumns, r.table)

	return r.scanOne(ctx, query, id)
}

func (r *CredentialRepository) scanOne(ctx context.Context, query string, arg any) (model.User, error) {
	var user model.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role, &user.Status,
		&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get credential record: %w", err)
	}

	return user, nil
}

func (r *CredentialRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := fmt.Sprintf(`INSERT INTO %s (id, email, name, password_hash, role, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			  RETURNING %s`, r.table, credentialColumns)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	var saved model.User
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.Status,
	).Scan(
		&saved.ID, &saved.Email, &saved.Name, &saved.PasswordHash, &saved.Role, &saved.Status,
		&saved.LastLoginAt, &saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		// 23505 is the unique-violation SQLSTATE; the only unique
		// constraint on these tables is the lower(email) index.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, model.ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("failed to create credential record: %w", err)
	}

	return saved, nil
}

func (r *CredentialRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET password_hash = $2, updated_at = NOW() WHERE id = $1`, r.table)

	tag, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *CredentialRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE %s SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, r.table)

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
