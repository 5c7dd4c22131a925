package models

import "time"

// Permission names one capability derived from a role.
type Permission string

const (
	PermCreateEquipment Permission = "canCreateEquipment"
	PermEditEquipment   Permission = "canEditEquipment"
	PermDeleteEquipment Permission = "canDeleteEquipment"
	PermCreateRequest   Permission = "canCreateRequest"
	PermAssignRequest   Permission = "canAssignRequest"
	PermViewReports     Permission = "canViewReports"
	PermManageTeams     Permission = "canManageTeams"
	PermManageUsers     Permission = "canManageUsers"
)

// Permissions is the capability record derived from a user's role. It is
// never accepted from clients.
type Permissions struct {
	CanCreateEquipment bool `json:"canCreateEquipment" bson:"canCreateEquipment"`
	CanEditEquipment   bool `json:"canEditEquipment" bson:"canEditEquipment"`
	CanDeleteEquipment bool `json:"canDeleteEquipment" bson:"canDeleteEquipment"`
	CanCreateRequest   bool `json:"canCreateRequest" bson:"canCreateRequest"`
	CanAssignRequest   bool `json:"canAssignRequest" bson:"canAssignRequest"`
	CanViewReports     bool `json:"canViewReports" bson:"canViewReports"`
	CanManageTeams     bool `json:"canManageTeams" bson:"canManageTeams"`
	CanManageUsers     bool `json:"canManageUsers" bson:"canManageUsers"`
}

// Has reports whether the capability p is granted.
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermCreateEquipment:
		return p.CanCreateEquipment
	case PermEditEquipment:
		return p.CanEditEquipment
	case PermDeleteEquipment:
		return p.CanDeleteEquipment
	case PermCreateRequest:
		return p.CanCreateRequest
	case PermAssignRequest:
		return p.CanAssignRequest
	case PermViewReports:
		return p.CanViewReports
	case PermManageTeams:
		return p.CanManageTeams
	case PermManageUsers:
		return p.CanManageUsers
	default:
		return false
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID          string      `db:"id" json:"id" bson:"_id"`
	Name        string      `db:"name" json:"name" bson:"name"`
	Email       string      `db:"email" json:"email" bson:"email"`
	Role        Role        `db:"role" json:"role" bson:"role"`
	Department  Department  `db:"department" json:"department,omitempty" bson:"department,omitempty"`
	Phone       string      `db:"phone" json:"phone,omitempty" bson:"phone,omitempty"`
	IsActive    bool        `db:"is_active" json:"isActive" bson:"isActive"`
	Permissions Permissions `db:"permissions" json:"permissions" bson:"permissions"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// UserFilter captures equality filters for listing users. Zero values are ignored.
type UserFilter struct {
	Role       Role
	Department Department
	Active     *bool
}

// RoleStat counts users per role.
type RoleStat struct {
	Role        Role   `db:"role" json:"role" bson:"_id"`
	DisplayName string `db:"-" json:"displayName" bson:"-"`
	Count       int    `db:"count" json:"count" bson:"count"`
	Active      int    `db:"active" json:"active" bson:"active"`
}

// UserPermissions is the RBAC view of one user.
type UserPermissions struct {
	UserID          string      `json:"userId"`
	Role            Role        `json:"role"`
	RoleDisplayName string      `json:"roleDisplayName"`
	Permissions     Permissions `json:"permissions"`
}
