package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/grupovitta/backoffice-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Roles       []domain.UserRoleType
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if user has the admin role
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}

// HasPermission checks if user has a specific permission based on their roles
func (u *UserContext) HasPermission(permission domain.PermissionType) bool {
	if u.IsAdmin() {
		return true
	}
	for _, role := range u.Roles {
		if hasRolePermission(role, permission) {
			return true
		}
	}
	return false
}

// hasRolePermission checks if a role has a specific permission by default
func hasRolePermission(role domain.UserRoleType, permission domain.PermissionType) bool {
	rolePermissions := map[domain.UserRoleType][]domain.PermissionType{
		domain.RoleBackoffice: {
			domain.PermissionContractsRead, domain.PermissionContractsWrite, domain.PermissionContractsCancel,
			domain.PermissionContractsTrash,
			domain.PermissionClientsRead, domain.PermissionClientsWrite,
			domain.PermissionProductsRead,
			domain.PermissionEventsRead,
		},
		domain.RoleReadonly: {
			domain.PermissionContractsRead,
			domain.PermissionClientsRead,
			domain.PermissionProductsRead,
			domain.PermissionEventsRead,
		},
	}

	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}
