package domain

// UserRoleType represents a role carried in the access token
type UserRoleType string

const (
	RoleAdmin      UserRoleType = "admin"
	RoleBackoffice UserRoleType = "backoffice"
	RoleReadonly   UserRoleType = "readonly"
)

// IsValid checks if the UserRoleType is a valid enum value
func (r UserRoleType) IsValid() bool {
	switch r {
	case RoleAdmin, RoleBackoffice, RoleReadonly:
		return true
	}
	return false
}

// PermissionType represents a granular permission
type PermissionType string

const (
	PermissionContractsRead        PermissionType = "contracts:read"
	PermissionContractsWrite       PermissionType = "contracts:write"
	PermissionContractsCancel      PermissionType = "contracts:cancel"
	PermissionContractsTrash       PermissionType = "contracts:trash"
	PermissionContractsForceDelete PermissionType = "contracts:force_delete"
	PermissionClientsRead          PermissionType = "clients:read"
	PermissionClientsWrite         PermissionType = "clients:write"
	PermissionProductsRead         PermissionType = "products:read"
	PermissionProductsWrite        PermissionType = "products:write"
	PermissionEventsRead           PermissionType = "events:read"
)

// AllPermissions lists every permission the API knows about
var AllPermissions = []PermissionType{
	PermissionContractsRead,
	PermissionContractsWrite,
	PermissionContractsCancel,
	PermissionContractsTrash,
	PermissionContractsForceDelete,
	PermissionClientsRead,
	PermissionClientsWrite,
	PermissionProductsRead,
	PermissionProductsWrite,
	PermissionEventsRead,
}
