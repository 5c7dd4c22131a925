package models

import "time"

type Part struct {
	Name     string  `json:"name" bson:"name"`
	Quantity float64 `json:"quantity" bson:"quantity"`
	Cost     float64 `json:"cost" bson:"cost"`
}

type Parts []Part

type Attachment struct {
	URL        string    `json:"url" bson:"url"`
	FileName   string    `json:"fileName" bson:"fileName"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

type Attachments []Attachment

// MaintenanceRequest is a work order against one piece of equipment.
// EquipmentCategory and MaintenanceTeamID are creation-time snapshots.
type MaintenanceRequest struct {
	ID                string            `db:"id" json:"id" bson:"_id"`
	RequestNumber     string            `db:"request_number" json:"requestNumber" bson:"requestNumber"`
	Type              RequestType       `db:"type" json:"type" bson:"type"`
	Subject           string            `db:"subject" json:"subject" bson:"subject"`
	Description       string            `db:"description" json:"description,omitempty" bson:"description,omitempty"`
	EquipmentID       string            `db:"equipment_id" json:"equipmentId" bson:"equipmentId"`
	EquipmentCategory EquipmentCategory `db:"equipment_category" json:"equipmentCategory" bson:"equipmentCategory"`
	MaintenanceTeamID string            `db:"maintenance_team_id" json:"maintenanceTeamId" bson:"maintenanceTeamId"`
	CreatedByID       string            `db:"created_by_id" json:"createdById" bson:"createdById"`
	AssignedToID      *string           `db:"assigned_to_id" json:"assignedToId,omitempty" bson:"assignedToId,omitempty"`
	Status            RequestStatus     `db:"status" json:"status" bson:"status"`
	Priority          Priority          `db:"priority" json:"priority" bson:"priority"`
	ScheduledDate     *time.Time        `db:"scheduled_date" json:"scheduledDate,omitempty" bson:"scheduledDate,omitempty"`
	StartDate         *time.Time        `db:"start_date" json:"startDate,omitempty" bson:"startDate,omitempty"`
	CompletionDate    *time.Time        `db:"completion_date" json:"completionDate,omitempty" bson:"completionDate,omitempty"`
	Duration          float64           `db:"duration" json:"duration" bson:"duration"`
	EstimatedDuration float64           `db:"estimated_duration" json:"estimatedDuration" bson:"estimatedDuration"`
	Cost              float64           `db:"cost" json:"cost" bson:"cost"`
	Parts             Parts             `db:"parts" json:"parts" bson:"parts"`
	Notes             string            `db:"notes" json:"notes,omitempty" bson:"notes,omitempty"`
	IsOverdue         bool              `db:"is_overdue" json:"isOverdue" bson:"isOverdue"`
	Attachments       Attachments       `db:"attachments" json:"attachments" bson:"attachments"`
	CreatedAt         time.Time         `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// RequestDetail is a request with its references resolved.
type RequestDetail struct {
	MaintenanceRequest
	Equipment       *Equipment `json:"equipment,omitempty"`
	MaintenanceTeam *Team      `json:"maintenanceTeam,omitempty"`
	CreatedBy       *User      `json:"createdBy,omitempty"`
	AssignedTo      *User      `json:"assignedTo,omitempty"`
}

// RequestSort selects the ordering of a request listing.
type RequestSort string

const (
	SortCreatedDesc  RequestSort = "created_desc"
	SortScheduledAsc RequestSort = "scheduled_asc"
)

// DateWindow matches requests whose scheduled date or creation time falls
// within [From, To].
type DateWindow struct {
	From time.Time
	To   time.Time
}

// RequestFilter holds conjunctive filters for listing requests. Zero values are ignored.
type RequestFilter struct {
	Status          RequestStatus
	Type            RequestType
	EquipmentID     string
	TeamID          string
	Priority        Priority
	StatusIn        []RequestStatus
	ExcludeStatuses []RequestStatus
	Window          *DateWindow
	Sort            RequestSort
}

// Board holds the kanban buckets keyed by status.
type Board map[RequestStatus][]RequestDetail

// RequestGroup selects the aggregation key of a request count.
type RequestGroup string

const (
	GroupByTeam     RequestGroup = "team"
	GroupByCategory RequestGroup = "category"
)

// GroupCount is one aggregation bucket: total and open requests per key.
type GroupCount struct {
	Key       string `db:"key" json:"key" bson:"_id"`
	Count     int    `db:"count" json:"count" bson:"count"`
	OpenCount int    `db:"open_count" json:"openCount" bson:"openCount"`
}

// TeamReportRow is one row of the by-team report.
type TeamReportRow struct {
	TeamID         string             `json:"teamId"`
	TeamName       TeamName           `json:"teamName,omitempty"`
	Specialization TeamSpecialization `json:"specialization,omitempty"`
	Count          int                `json:"count"`
	OpenCount      int                `json:"openCount"`
}

// CategoryReportRow is one row of the by-category report.
type CategoryReportRow struct {
	Category  EquipmentCategory `json:"category"`
	Count     int               `json:"count"`
	OpenCount int               `json:"openCount"`
}
