package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/realtime"
	"github.com/noah-isme/maintenance-api/internal/repository"
	"github.com/noah-isme/maintenance-api/internal/repository/memory"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []realtime.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	store     *repository.Store
	events    *recordingPublisher
	users     *UserService
	teams     *TeamService
	equipment *EquipmentService
	requests  *MaintenanceRequestService
	reports   *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := fixedNow
	store := repository.NewMemoryStore(memory.New().WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	events := &recordingPublisher{}
	logger := zap.NewNop()
	now := func() time.Time { return fixedNow }

	env := &testEnv{
		store:     store,
		events:    events,
		users:     NewUserService(store.Users, nil, logger),
		teams:     NewTeamService(store, nil, logger),
		equipment: NewEquipmentService(store, nil, events, nil, nil, logger),
		requests:  NewMaintenanceRequestService(store, nil, events, nil, nil, "MR", logger),
		reports:   NewReportService(store, nil, logger),
	}
	env.teams.now = now
	env.equipment.now = now
	env.requests.now = now
	return env
}

func (e *testEnv) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), CreateUserRequest{Name: email, Email: email, Role: role})
	require.NoError(t, err)
	return u
}

func (e *testEnv) team(t *testing.T, defaultTech *string) *models.TeamDetail {
	t.Helper()
	team, err := e.teams.Create(context.Background(), CreateTeamRequest{
		Name:                models.TeamMechanics,
		Specialization:      models.SpecializationMechanic,
		DefaultTechnicianID: defaultTech,
	})
	require.NoError(t, err)
	return team
}

func (e *testEnv) equip(t *testing.T, serial, teamID string, category models.EquipmentCategory) *models.EquipmentDetail {
	t.Helper()
	eq, err := e.equipment.Create(context.Background(), CreateEquipmentRequest{
		Name:              "Lathe " + serial,
		SerialNumber:      serial,
		Category:          category,
		Department:        models.DepartmentProduction,
		MaintenanceTeamID: teamID,
		PurchaseDate:      fixedNow.AddDate(-2, 0, 0),
		Location:          "Hall A",
	})
	require.NoError(t, err)
	return eq
}

func (e *testEnv) request(t *testing.T, equipmentID, creatorID string) *models.RequestDetail {
	t.Helper()
	req, err := e.requests.Create(context.Background(), CreateMaintenanceRequest{
		Type:        models.RequestCorrective,
		Subject:     "Oil leak",
		EquipmentID: equipmentID,
	}, creatorID)
	require.NoError(t, err)
	return req
}

func strPtr(s string) *string { return &s }
