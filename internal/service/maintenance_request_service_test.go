package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/realtime"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
)

func TestRequestServiceCreateSnapshotsEquipment(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleMechanic)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	ctx := context.Background()

	req := env.request(t, eq.ID, creator.ID)

	assert.Equal(t, models.CategoryMachinery, req.EquipmentCategory)
	assert.Equal(t, team.ID, req.MaintenanceTeamID)
	assert.Equal(t, models.StatusNew, req.Status)
	assert.Equal(t, models.PriorityMedium, req.Priority)
	assert.Equal(t, "MR-1741944600000-1", req.RequestNumber)
	require.NotNil(t, req.CreatedBy)
	assert.Equal(t, creator.ID, req.CreatedBy.ID)
	require.NotNil(t, req.Equipment)
	require.NotNil(t, req.MaintenanceTeam)

	otherTeam := env.team(t, nil)
	category := models.CategoryVehicle
	_, err := env.equipment.Update(ctx, eq.ID, UpdateEquipmentRequest{Category: &category, MaintenanceTeamID: &otherTeam.ID})
	require.NoError(t, err)

	got, err := env.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryMachinery, got.EquipmentCategory)
	assert.Equal(t, team.ID, got.MaintenanceTeamID)

	assert.Equal(t, []realtime.EventType{realtime.RequestCreated}, env.events.types())
}

func TestRequestServiceCreateErrors(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleMechanic)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	ctx := context.Background()

	_, err := env.requests.Create(ctx, CreateMaintenanceRequest{Type: models.RequestCorrective, Subject: "x", EquipmentID: "ghost"}, creator.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "equipment not found", appErr.Message)

	_, err = env.requests.Create(ctx, CreateMaintenanceRequest{Type: "Emergency", Subject: "x", EquipmentID: eq.ID}, creator.ID)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = env.requests.Create(ctx, CreateMaintenanceRequest{Type: models.RequestCorrective, Subject: "x", EquipmentID: eq.ID}, "")
	assert.Equal(t, "createdById is required", appErrors.FromError(err).Message)

	_, err = env.requests.Create(ctx, CreateMaintenanceRequest{Type: models.RequestCorrective, Subject: "x", EquipmentID: eq.ID, CreatedByID: "ghost"}, "")
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestRequestServiceScheduledDateOnlyForPreventive(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleMechanic)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	ctx := context.Background()
	when := fixedNow.Add(72 * time.Hour)

	corrective, err := env.requests.Create(ctx, CreateMaintenanceRequest{Type: models.RequestCorrective, Subject: "c", EquipmentID: eq.ID, ScheduledDate: &when}, creator.ID)
	require.NoError(t, err)
	assert.Nil(t, corrective.ScheduledDate)

	preventive, err := env.requests.Create(ctx, CreateMaintenanceRequest{Type: models.RequestPreventive, Subject: "p", EquipmentID: eq.ID, ScheduledDate: &when}, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, preventive.ScheduledDate)
	assert.True(t, when.Equal(*preventive.ScheduledDate))
}

func TestRequestServiceTransitionStampsDates(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleMechanic)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	req := env.request(t, eq.ID, creator.ID)
	ctx := context.Background()

	started, err := env.requests.TransitionStatus(ctx, req.ID, StatusChangeRequest{Status: models.StatusInProgress})
	require.NoError(t, err)
	require.NotNil(t, started.StartDate)
	firstStart := *started.StartDate

	env.requests.now = func() time.Time { return fixedNow.Add(time.Hour) }
	again, err := env.requests.TransitionStatus(ctx, req.ID, StatusChangeRequest{Status: models.StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, firstStart, *again.StartDate)

	duration := 3.0
	repaired, err := env.requests.TransitionStatus(ctx, req.ID, StatusChangeRequest{Status: models.StatusRepaired, Duration: &duration, CompletionNotes: "replaced seal"})
	require.NoError(t, err)
	require.NotNil(t, repaired.CompletionDate)
	assert.Equal(t, fixedNow.Add(time.Hour), *repaired.CompletionDate)
	assert.Equal(t, 3.0, repaired.Duration)
	assert.Equal(t, req.RequestNumber, repaired.RequestNumber)
	assert.True(t, strings.HasSuffix(repaired.Notes, "replaced seal"))
}

func TestRequestServiceTerminalStatesNeedForce(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleMechanic)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	req := env.request(t, eq.ID, creator.ID)
	ctx := context.Background()

	_, err := env.requests.TransitionStatus(ctx, req.ID, StatusChangeRequest{Status: models.StatusRepaired})
	require.NoError(t, err)

	_, err = env.requests.TransitionStatus(ctx, req.ID, StatusChangeRequest{Status: models.StatusInProgress})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = env.requests.Assign(ctx, req.ID, AssignRequest{AssignedToID: creator.ID})
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	reopened, err := env.requests.TransitionStatus(ctx, req.ID, StatusChangeRequest{Status: models.StatusInProgress, Force: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, reopened.Status)
	assert.NotNil(t, reopened.CompletionDate)
}

func TestRequestServiceAssignStartsWork(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleAdmin)
	tech := env.user(t, "t@example.com", models.RoleMechanic)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	req := env.request(t, eq.ID, creator.ID)
	ctx := context.Background()

	got, err := env.requests.Assign(ctx, req.ID, AssignRequest{AssignedToID: tech.ID, Notes: "on it"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, tech.ID, got.AssignedTo.ID)
	assert.NotNil(t, got.StartDate)

	_, err = env.requests.Assign(ctx, req.ID, AssignRequest{AssignedToID: "ghost"})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, err = env.requests.Assign(ctx, "missing", AssignRequest{AssignedToID: tech.ID})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestRequestServiceUpdateKeepsLifecycleFields(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleAdmin)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	req := env.request(t, eq.ID, creator.ID)
	ctx := context.Background()

	subject := "Hydraulic leak"
	priority := models.PriorityCritical
	parts := []PartInput{{Name: "seal", Quantity: 2, Cost: 4.5}}
	got, err := env.requests.Update(ctx, req.ID, UpdateMaintenanceRequest{Subject: &subject, Priority: &priority, Parts: &parts, Notes: "ordered parts"})
	require.NoError(t, err)

	assert.Equal(t, subject, got.Subject)
	assert.Equal(t, models.PriorityCritical, got.Priority)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, req.RequestNumber, got.RequestNumber)
	require.Len(t, got.Parts, 1)
	assert.Contains(t, got.Notes, "ordered parts")

	bad := models.Priority("Urgent")
	_, err = env.requests.Update(ctx, req.ID, UpdateMaintenanceRequest{Priority: &bad})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestRequestServiceBoardAndFeeds(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleAdmin)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	ctx := context.Background()

	late := fixedNow.Add(96 * time.Hour)
	soon := fixedNow.Add(24 * time.Hour)
	p1, err := env.requests.Create(ctx, CreateMaintenanceRequest{Type: models.RequestPreventive, Subject: "late", EquipmentID: eq.ID, ScheduledDate: &late}, creator.ID)
	require.NoError(t, err)
	p2, err := env.requests.Create(ctx, CreateMaintenanceRequest{Type: models.RequestPreventive, Subject: "soon", EquipmentID: eq.ID, ScheduledDate: &soon}, creator.ID)
	require.NoError(t, err)
	c := env.request(t, eq.ID, creator.ID)
	_, err = env.requests.TransitionStatus(ctx, c.ID, StatusChangeRequest{Status: models.StatusOnHold})
	require.NoError(t, err)

	board, err := env.requests.Kanban(ctx)
	require.NoError(t, err)
	assert.Len(t, board, 4)
	assert.Len(t, board[models.StatusNew], 2)
	assert.Len(t, board[models.StatusOnHold], 1)
	assert.Empty(t, board[models.StatusRepaired])

	feed, err := env.requests.Preventive(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, p2.ID, feed[0].ID)
	assert.Equal(t, p1.ID, feed[1].ID)

	window, err := env.requests.DateRange(ctx, fixedNow.Add(90*time.Hour), fixedNow.Add(100*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, p1.ID, window[0].ID)

	_, err = env.requests.DateRange(ctx, late, soon)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestRequestServiceDelete(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleAdmin)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	req := env.request(t, eq.ID, creator.ID)
	ctx := context.Background()

	require.NoError(t, env.requests.Delete(ctx, req.ID))
	_, err := env.requests.Get(ctx, req.ID)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(env.requests.Delete(ctx, req.ID)).Status)
	assert.Contains(t, env.events.types(), realtime.RequestDeleted)
}

func TestRequestServiceNumbersStayUniqueAfterDelete(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleMechanic)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)

	first := env.request(t, eq.ID, creator.ID)
	second := env.request(t, eq.ID, creator.ID)
	require.NoError(t, env.requests.Delete(context.Background(), first.ID))

	third := env.request(t, eq.ID, creator.ID)
	assert.NotEqual(t, second.RequestNumber, third.RequestNumber)
	assert.True(t, strings.HasSuffix(third.RequestNumber, "-3"), third.RequestNumber)
}

func TestRequestServiceConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleAdmin)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)

	const n = 16
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := env.requests.Create(context.Background(), CreateMaintenanceRequest{Type: models.RequestCorrective, Subject: "x", EquipmentID: eq.ID}, creator.ID)
			if assert.NoError(t, err) {
				numbers <- req.RequestNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}
