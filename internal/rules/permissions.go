// Package rules holds the pure derivation rules and transition guards of the
// maintenance domain. Nothing here performs I/O; callers load records, apply
// a rule and persist the result.
package rules

import "github.com/noah-isme/maintenance-api/internal/models"

// PermissionsFor derives the capability record for role. Administrators hold
// every capability, technician roles a fixed subset, unknown roles none.
func PermissionsFor(role models.Role) models.Permissions {
	switch role {
	case models.RoleAdmin:
		return models.Permissions{
			CanCreateEquipment: true,
			CanEditEquipment:   true,
			CanDeleteEquipment: true,
			CanCreateRequest:   true,
			CanAssignRequest:   true,
			CanViewReports:     true,
			CanManageTeams:     true,
			CanManageUsers:     true,
		}
	case models.RoleMechanic, models.RoleElectrician, models.RoleITSupport:
		return models.Permissions{
			CanEditEquipment: true,
			CanCreateRequest: true,
			CanViewReports:   true,
		}
	default:
		return models.Permissions{}
	}
}

// DeriveUser recomputes every role-dependent field of u.
func DeriveUser(u *models.User) {
	u.Permissions = PermissionsFor(u.Role)
}

// PermissionView builds the RBAC summary returned by the permissions route.
func PermissionView(u models.User) models.UserPermissions {
	return models.UserPermissions{
		UserID:          u.ID,
		Role:            u.Role,
		RoleDisplayName: u.Role.DisplayName(),
		Permissions:     PermissionsFor(u.Role),
	}
}
