package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// DefaultRequestNumberPrefix is used when no prefix is configured.
const DefaultRequestNumberPrefix = "MR"

// noteTimeLayout stamps note log entries with millisecond UTC time.
const noteTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// DefaultScrapReason is appended to equipment notes when none is given.
const DefaultScrapReason = "Equipment marked as scrap"

// DefaultTechnician fills eq.AssignedTechnicianID from the team's default
// technician when the caller supplied none.
func DefaultTechnician(eq *models.Equipment, team models.Team) {
	if eq.AssignedTechnicianID != nil && *eq.AssignedTechnicianID != "" {
		return
	}
	if team.DefaultTechnicianID == nil || *team.DefaultTechnicianID == "" {
		eq.AssignedTechnicianID = nil
		return
	}
	id := *team.DefaultTechnicianID
	eq.AssignedTechnicianID = &id
}

// SnapshotEquipment copies the equipment category and team onto a new request.
// The copy is never re-synced afterwards.
func SnapshotEquipment(req *models.MaintenanceRequest, eq models.Equipment) {
	req.EquipmentID = eq.ID
	req.EquipmentCategory = eq.Category
	req.MaintenanceTeamID = eq.MaintenanceTeamID
}

// ScheduledDate keeps a scheduled date only for preventive work.
func ScheduledDate(t models.RequestType, date *time.Time) *time.Time {
	if t != models.RequestPreventive || date == nil {
		return nil
	}
	d := date.UTC()
	return &d
}

// RequestNumber formats prefix-<unix millis>-<existing+1>. It is computed
// once before the first insert.
func RequestNumber(prefix string, at time.Time, existing int) string {
	if prefix == "" {
		prefix = DefaultRequestNumberPrefix
	}
	return fmt.Sprintf("%s-%d-%d", prefix, at.UnixMilli(), existing+1)
}

// PrepareRequest applies every creation-time derivation to req except the
// request number, which the store assigns through Numberer at insert time.
func PrepareRequest(req *models.MaintenanceRequest, eq models.Equipment) {
	SnapshotEquipment(req, eq)
	req.ScheduledDate = ScheduledDate(req.Type, req.ScheduledDate)
	if req.Status == "" {
		req.Status = models.StatusNew
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.Parts == nil {
		req.Parts = models.Parts{}
	}
	if req.Attachments == nil {
		req.Attachments = models.Attachments{}
	}
}

// Numberer binds prefix and creation instant; the store supplies the count.
func Numberer(prefix string, at time.Time) func(existing int) string {
	return func(existing int) string {
		return RequestNumber(prefix, at, existing)
	}
}

// AppendNote adds a timestamped entry to a newline separated note log.
func AppendNote(log, note string, at time.Time) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return log
	}
	entry := fmt.Sprintf("[%s] %s", at.UTC().Format(noteTimeLayout), note)
	if log == "" {
		return entry
	}
	return log + "\n" + entry
}

// ScrapEquipment marks eq as scrapped and records the reason.
func ScrapEquipment(eq *models.Equipment, reason string, now time.Time) {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultScrapReason
	}
	eq.Status = models.EquipmentScrap
	eq.Notes = AppendNote(eq.Notes, reason, now)
}

// CascadesOnScrap reports whether a request must be forced to Scrap when its
// equipment is scrapped. Repaired requests keep their history.
func CascadesOnScrap(status models.RequestStatus) bool {
	return status != models.StatusRepaired && status != models.StatusScrap
}
