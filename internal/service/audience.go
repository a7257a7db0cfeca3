package service

import (
	"time"

	"github.com/velora-beauty/velora-server/internal/model"
)

// AudienceConfig parameterizes the auth flows for one application surface.
// The storefront and the admin console run the same state machine against
// different credential tables, audiences and budgets.
type AudienceConfig struct {
	Audience    model.Audience
	Store       model.CredentialStore
	Permissions map[model.Role][]string

	LoginMax    int
	LoginWindow time.Duration
	ResetMax    int
	ResetWindow time.Duration
}

// CustomerPermissions maps storefront roles to their capabilities.
var CustomerPermissions = map[model.Role][]string{
	model.RoleCustomer: {
		"orders:read",
		"reviews:write",
		"wishlist:write",
		"loyalty:read",
	},
}

// AdminPermissions is the static role→permission table for the admin
// console. Permissions derive from the role at request time; they are not
// stored per-user.
var AdminPermissions = map[model.Role][]string{
	model.RoleEditor: {
		"content:read",
		"content:write",
	},
	model.RoleAdmin: {
		"content:read",
		"content:write",
		"orders:read",
		"orders:write",
		"marketing:read",
		"marketing:write",
		"inbox:read",
		"inbox:write",
	},
	model.RoleSuperAdmin: {
		"content:read",
		"content:write",
		"orders:read",
		"orders:write",
		"marketing:read",
		"marketing:write",
		"inbox:read",
		"inbox:write",
		"admins:manage",
		"settings:write",
	},
}

// PermissionsFor returns the permission list for the role, or nil when the
// role carries none.
func (c AudienceConfig) PermissionsFor(role model.Role) []string {
	return c.Permissions[role]
}
