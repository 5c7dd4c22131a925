package models

import "time"

// Equipment is a tracked asset serviced by one maintenance team.
type Equipment struct {
	ID                   string            `db:"id" json:"id" bson:"_id"`
	Name                 string            `db:"name" json:"name" bson:"name"`
	SerialNumber         string            `db:"serial_number" json:"serialNumber" bson:"serialNumber"`
	Category             EquipmentCategory `db:"category" json:"category" bson:"category"`
	Department           Department        `db:"department" json:"department" bson:"department"`
	AssignedEmployeeID   *string           `db:"assigned_employee_id" json:"assignedEmployeeId,omitempty" bson:"assignedEmployeeId,omitempty"`
	MaintenanceTeamID    string            `db:"maintenance_team_id" json:"maintenanceTeamId" bson:"maintenanceTeamId"`
	AssignedTechnicianID *string           `db:"assigned_technician_id" json:"assignedTechnicianId,omitempty" bson:"assignedTechnicianId,omitempty"`
	PurchaseDate         time.Time         `db:"purchase_date" json:"purchaseDate" bson:"purchaseDate"`
	WarrantyExpiryDate   *time.Time        `db:"warranty_expiry_date" json:"warrantyExpiryDate,omitempty" bson:"warrantyExpiryDate,omitempty"`
	Location             string            `db:"location" json:"location" bson:"location"`
	Description          string            `db:"description" json:"description,omitempty" bson:"description,omitempty"`
	Status               EquipmentStatus   `db:"status" json:"status" bson:"status"`
	Notes                string            `db:"notes" json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt            time.Time         `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time         `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// EquipmentDetail is Equipment with its references resolved.
type EquipmentDetail struct {
	Equipment
	AssignedEmployee   *User `json:"assignedEmployee,omitempty"`
	MaintenanceTeam    *Team `json:"maintenanceTeam,omitempty"`
	AssignedTechnician *User `json:"assignedTechnician,omitempty"`
}

// EquipmentFilter holds conjunctive equality filters. Zero values are ignored.
type EquipmentFilter struct {
	Department Department
	Category   EquipmentCategory
	Status     EquipmentStatus
	TeamID     string
}
