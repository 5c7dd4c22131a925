package models

import "fmt"

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleMechanic    Role = "MECHANIC"
	RoleElectrician Role = "ELECTRICIAN"
	RoleITSupport   Role = "IT_SUPPORT"
)

var Roles = []Role{RoleAdmin, RoleMechanic, RoleElectrician, RoleITSupport}

func (r Role) Valid() bool { return contains(Roles, r) }

// DisplayName returns the human readable role label.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleMechanic:
		return "Mechanic"
	case RoleElectrician:
		return "Electrician"
	case RoleITSupport:
		return "IT Support"
	default:
		return string(r)
	}
}

// Department is shared by users, equipment and teams.
type Department string

const (
	DepartmentProduction Department = "Production"
	DepartmentIT         Department = "IT"
	DepartmentHR         Department = "HR"
	DepartmentFinance    Department = "Finance"
	DepartmentOperations Department = "Operations"
	DepartmentOther      Department = "Other"
)

var Departments = []Department{DepartmentProduction, DepartmentIT, DepartmentHR, DepartmentFinance, DepartmentOperations, DepartmentOther}

func (d Department) Valid() bool { return contains(Departments, d) }

type EquipmentCategory string

const (
	CategoryMachinery  EquipmentCategory = "Machinery"
	CategoryVehicle    EquipmentCategory = "Vehicle"
	CategoryComputer   EquipmentCategory = "Computer"
	CategoryElectrical EquipmentCategory = "Electrical"
	CategoryOther      EquipmentCategory = "Other"
)

var EquipmentCategories = []EquipmentCategory{CategoryMachinery, CategoryVehicle, CategoryComputer, CategoryElectrical, CategoryOther}

func (c EquipmentCategory) Valid() bool { return contains(EquipmentCategories, c) }

type EquipmentStatus string

const (
	EquipmentActive   EquipmentStatus = "Active"
	EquipmentInactive EquipmentStatus = "Inactive"
	EquipmentScrap    EquipmentStatus = "Scrap"
)

var EquipmentStatuses = []EquipmentStatus{EquipmentActive, EquipmentInactive, EquipmentScrap}

func (s EquipmentStatus) Valid() bool { return contains(EquipmentStatuses, s) }

type TeamName string

const (
	TeamMechanics          TeamName = "Mechanics Team"
	TeamElectricians       TeamName = "Electricians Team"
	TeamITSupport          TeamName = "IT Support Team"
	TeamGeneralMaintenance TeamName = "General Maintenance"
	TeamSpecialized        TeamName = "Specialized Team"
)

var TeamNames = []TeamName{TeamMechanics, TeamElectricians, TeamITSupport, TeamGeneralMaintenance, TeamSpecialized}

func (n TeamName) Valid() bool { return contains(TeamNames, n) }

type TeamSpecialization string

const (
	SpecializationMechanic    TeamSpecialization = "MECHANIC"
	SpecializationElectrician TeamSpecialization = "ELECTRICIAN"
	SpecializationITSupport   TeamSpecialization = "IT_SUPPORT"
	SpecializationGeneral     TeamSpecialization = "GENERAL"
)

var TeamSpecializations = []TeamSpecialization{SpecializationMechanic, SpecializationElectrician, SpecializationITSupport, SpecializationGeneral}

func (s TeamSpecialization) Valid() bool { return contains(TeamSpecializations, s) }

// MemberRole is a user's role inside one team.
type MemberRole string

const (
	MemberManager    MemberRole = "Manager"
	MemberTechnician MemberRole = "Technician"
	MemberLead       MemberRole = "Lead"
)

var MemberRoles = []MemberRole{MemberManager, MemberTechnician, MemberLead}

func (r MemberRole) Valid() bool { return contains(MemberRoles, r) }

type RequestType string

const (
	RequestCorrective RequestType = "Corrective"
	RequestPreventive RequestType = "Preventive"
)

var RequestTypes = []RequestType{RequestCorrective, RequestPreventive}

func (t RequestType) Valid() bool { return contains(RequestTypes, t) }

type RequestStatus string

const (
	StatusNew        RequestStatus = "New"
	StatusInProgress RequestStatus = "In Progress"
	StatusRepaired   RequestStatus = "Repaired"
	StatusScrap      RequestStatus = "Scrap"
	StatusOnHold     RequestStatus = "On Hold"
)

var RequestStatuses = []RequestStatus{StatusNew, StatusInProgress, StatusRepaired, StatusScrap, StatusOnHold}

func (s RequestStatus) Valid() bool { return contains(RequestStatuses, s) }

// Terminal reports whether no further status change is defined from s.
func (s RequestStatus) Terminal() bool { return s == StatusRepaired || s == StatusScrap }

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool { return contains(Priorities, p) }

// Enum is implemented by every closed string set above.
type Enum interface {
	~string
	Valid() bool
}

// ParseEnum converts raw into T. The empty string yields the zero value so
// optional query filters can pass through unchanged.
func ParseEnum[T Enum](field, raw string) (T, error) {
	v := T(raw)
	if raw == "" || v.Valid() {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", field, raw)
}

func contains[T comparable](set []T, v T) bool {
	for _, item := range set {
		if item == v {
			return true
		}
	}
	return false
}
