package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grupovitta/backoffice-api/internal/auth"
	"github.com/grupovitta/backoffice-api/internal/domain"
)

func TestUserContext_HasRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		role     domain.UserRoleType
		expected bool
	}{
		{
			name:     "has role",
			roles:    []domain.UserRoleType{domain.RoleAdmin, domain.RoleBackoffice},
			role:     domain.RoleAdmin,
			expected: true,
		},
		{
			name:     "does not have role",
			roles:    []domain.UserRoleType{domain.RoleReadonly},
			role:     domain.RoleAdmin,
			expected: false,
		},
		{
			name:     "empty roles",
			roles:    []domain.UserRoleType{},
			role:     domain.RoleAdmin,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasRole(tt.role))
		})
	}
}

func TestUserContext_HasAnyRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		check    []domain.UserRoleType
		expected bool
	}{
		{
			name:     "has one of the roles",
			roles:    []domain.UserRoleType{domain.RoleBackoffice},
			check:    []domain.UserRoleType{domain.RoleAdmin, domain.RoleBackoffice},
			expected: true,
		},
		{
			name:     "has none of the roles",
			roles:    []domain.UserRoleType{domain.RoleReadonly},
			check:    []domain.UserRoleType{domain.RoleAdmin, domain.RoleBackoffice},
			expected: false,
		},
		{
			name:     "empty check list",
			roles:    []domain.UserRoleType{domain.RoleBackoffice},
			check:    []domain.UserRoleType{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasAnyRole(tt.check...))
		})
	}
}

func TestUserContext_HasPermission(t *testing.T) {
	tests := []struct {
		name       string
		roles      []domain.UserRoleType
		permission domain.PermissionType
		expected   bool
	}{
		{
			name:       "admin has every permission",
			roles:      []domain.UserRoleType{domain.RoleAdmin},
			permission: domain.PermissionContractsForceDelete,
			expected:   true,
		},
		{
			name:       "backoffice can write contracts",
			roles:      []domain.UserRoleType{domain.RoleBackoffice},
			permission: domain.PermissionContractsWrite,
			expected:   true,
		},
		{
			name:       "backoffice can cancel contracts",
			roles:      []domain.UserRoleType{domain.RoleBackoffice},
			permission: domain.PermissionContractsCancel,
			expected:   true,
		},
		{
			name:       "backoffice cannot force delete",
			roles:      []domain.UserRoleType{domain.RoleBackoffice},
			permission: domain.PermissionContractsForceDelete,
			expected:   false,
		},
		{
			name:       "backoffice cannot write products",
			roles:      []domain.UserRoleType{domain.RoleBackoffice},
			permission: domain.PermissionProductsWrite,
			expected:   false,
		},
		{
			name:       "readonly can read contracts",
			roles:      []domain.UserRoleType{domain.RoleReadonly},
			permission: domain.PermissionContractsRead,
			expected:   true,
		},
		{
			name:       "readonly cannot write",
			roles:      []domain.UserRoleType{domain.RoleReadonly},
			permission: domain.PermissionContractsWrite,
			expected:   false,
		},
		{
			name:       "no roles has nothing",
			roles:      []domain.UserRoleType{},
			permission: domain.PermissionContractsRead,
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasPermission(tt.permission))
		})
	}
}

func TestUserContext_IsAdmin(t *testing.T) {
	admin := &auth.UserContext{Roles: []domain.UserRoleType{domain.RoleAdmin}}
	assert.True(t, admin.IsAdmin())

	backoffice := &auth.UserContext{Roles: []domain.UserRoleType{domain.RoleBackoffice}}
	assert.False(t, backoffice.IsAdmin())
}

func TestUserContext_RoundTrip(t *testing.T) {
	userCtx := &auth.UserContext{
		DisplayName: "Ana Souza",
		Email:       "ana@example.com",
		Roles:       []domain.UserRoleType{domain.RoleBackoffice},
	}

	ctx := auth.WithUserContext(context.Background(), userCtx)
	got, ok := auth.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, userCtx, got)

	_, ok = auth.FromContext(context.Background())
	assert.False(t, ok)
}

func TestUserContext_RolesAsStrings(t *testing.T) {
	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleAdmin, domain.RoleReadonly},
	}
	assert.Equal(t, []string{"admin", "readonly"}, userCtx.RolesAsStrings())
}
