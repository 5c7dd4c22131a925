package memory

import (
	"time"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// Rows are copied on the way in and out so callers never alias stored slices
// or pointers.

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneEquipment(eq models.Equipment) models.Equipment {
	eq.AssignedEmployeeID = cloneString(eq.AssignedEmployeeID)
	eq.AssignedTechnicianID = cloneString(eq.AssignedTechnicianID)
	eq.WarrantyExpiryDate = cloneTime(eq.WarrantyExpiryDate)
	return eq
}

func cloneTeam(t models.Team) models.Team {
	t.Members = append(models.TeamMembers{}, t.Members...)
	t.LeaderID = cloneString(t.LeaderID)
	t.DefaultTechnicianID = cloneString(t.DefaultTechnicianID)
	return t
}

func cloneRequest(r models.MaintenanceRequest) models.MaintenanceRequest {
	r.AssignedToID = cloneString(r.AssignedToID)
	r.ScheduledDate = cloneTime(r.ScheduledDate)
	r.StartDate = cloneTime(r.StartDate)
	r.CompletionDate = cloneTime(r.CompletionDate)
	r.Parts = append(models.Parts{}, r.Parts...)
	r.Attachments = append(models.Attachments{}, r.Attachments...)
	return r
}
