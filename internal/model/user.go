package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a credential record.
// Any status other than StatusActive blocks authentication.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusDeleted   Status = "DELETED"
)

// Role is the capability tier attached to a credential record.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// CredentialStore defines persistence operations for one audience's
// credential records. The storefront and the admin console each get their
// own implementation backed by separate tables.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

// User represents a stored credential record. PasswordHash is nil for
// social-login-only accounts, which cannot authenticate with a password.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash *string
	Role         Role
	Status       Status
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser is the client-visible projection of a credential record.
// It never carries the password hash.
type SafeUser struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Safe returns the client-visible projection of the user.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
	}
}
