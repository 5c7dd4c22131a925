package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maintenance-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestDefaultTechnician(t *testing.T) {
	team := models.Team{ID: "t1", DefaultTechnicianID: strPtr("u1")}

	eq := models.Equipment{MaintenanceTeamID: "t1"}
	DefaultTechnician(&eq, team)
	require.NotNil(t, eq.AssignedTechnicianID)
	assert.Equal(t, "u1", *eq.AssignedTechnicianID)

	explicit := models.Equipment{MaintenanceTeamID: "t1", AssignedTechnicianID: strPtr("u2")}
	DefaultTechnician(&explicit, team)
	assert.Equal(t, "u2", *explicit.AssignedTechnicianID)

	none := models.Equipment{MaintenanceTeamID: "t2"}
	DefaultTechnician(&none, models.Team{ID: "t2"})
	assert.Nil(t, none.AssignedTechnicianID)
}

func TestPrepareRequestSnapshotsEquipment(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	scheduled := now.Add(48 * time.Hour)
	eq := models.Equipment{ID: "eq1", Category: models.CategoryMachinery, MaintenanceTeamID: "t1"}
	req := models.MaintenanceRequest{Type: models.RequestCorrective, ScheduledDate: &scheduled}

	PrepareRequest(&req, eq)
	req.RequestNumber = Numberer("MR", now)(41)

	assert.Equal(t, "eq1", req.EquipmentID)
	assert.Equal(t, models.CategoryMachinery, req.EquipmentCategory)
	assert.Equal(t, "t1", req.MaintenanceTeamID)
	assert.Equal(t, models.StatusNew, req.Status)
	assert.Equal(t, models.PriorityMedium, req.Priority)
	assert.Nil(t, req.ScheduledDate)
	assert.Equal(t, "MR-1700000000123-42", req.RequestNumber)
	assert.NotNil(t, req.Parts)

	eq.Category = models.CategoryVehicle
	assert.Equal(t, models.CategoryMachinery, req.EquipmentCategory)
}

func TestPrepareRequestKeepsPreventiveSchedule(t *testing.T) {
	req := models.MaintenanceRequest{Type: models.RequestPreventive, Priority: models.PriorityHigh}
	scheduled := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	req.ScheduledDate = &scheduled

	PrepareRequest(&req, models.Equipment{ID: "eq"})

	assert.Empty(t, req.RequestNumber)
	assert.Equal(t, models.PriorityHigh, req.Priority)
	require.NotNil(t, req.ScheduledDate)
	assert.Equal(t, scheduled, *req.ScheduledDate)
}

func TestRequestNumberDefaultsPrefix(t *testing.T) {
	assert.Equal(t, "MR-5-1", RequestNumber("", time.UnixMilli(5), 0))
	assert.Equal(t, "WO-5-3", RequestNumber("WO", time.UnixMilli(5), 2))
}

func TestAppendNote(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC)

	first := AppendNote("", "belt replaced", at)
	assert.Equal(t, "[2024-05-06T07:08:09.010Z] belt replaced", first)

	second := AppendNote(first, "tested", at.Add(time.Hour))
	lines := strings.Split(second, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, first, lines[0])

	assert.Equal(t, second, AppendNote(second, "   ", at))
}

func TestScrapEquipment(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	eq := models.Equipment{Status: models.EquipmentActive, Notes: "bought used"}

	ScrapEquipment(&eq, "", at)

	assert.Equal(t, models.EquipmentScrap, eq.Status)
	assert.Equal(t, "bought used\n[2024-05-06T07:08:09.000Z] "+DefaultScrapReason, eq.Notes)
}

func TestCascadesOnScrap(t *testing.T) {
	assert.True(t, CascadesOnScrap(models.StatusNew))
	assert.True(t, CascadesOnScrap(models.StatusInProgress))
	assert.True(t, CascadesOnScrap(models.StatusOnHold))
	assert.False(t, CascadesOnScrap(models.StatusRepaired))
	assert.False(t, CascadesOnScrap(models.StatusScrap))
}
