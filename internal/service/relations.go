package service

import (
	"context"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/repository"
)

// relations resolves foreign keys into the joined detail views returned by
// every read. Lookups are batched per entity type; a dangling reference
// resolves to nil rather than failing the read.
type relations struct {
	users     repository.UserStore
	equipment repository.EquipmentStore
	teams     repository.TeamStore
}

type lookup struct {
	users     map[string]*models.User
	equipment map[string]*models.Equipment
	teams     map[string]*models.Team
}

type idSet map[string]struct{}

func (s idSet) add(id *string) {
	if id != nil && *id != "" {
		s[*id] = struct{}{}
	}
}

func (s idSet) list() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

func (r relations) load(ctx context.Context, userIDs, equipmentIDs, teamIDs idSet) (*lookup, error) {
	l := &lookup{
		users:     make(map[string]*models.User),
		equipment: make(map[string]*models.Equipment),
		teams:     make(map[string]*models.Team),
	}
	if len(userIDs) > 0 {
		users, err := r.users.FindByIDs(ctx, userIDs.list())
		if err != nil {
			return nil, err
		}
		for i := range users {
			l.users[users[i].ID] = &users[i]
		}
	}
	if len(equipmentIDs) > 0 {
		items, err := r.equipment.FindByIDs(ctx, equipmentIDs.list())
		if err != nil {
			return nil, err
		}
		for i := range items {
			l.equipment[items[i].ID] = &items[i]
		}
	}
	if len(teamIDs) > 0 {
		teams, err := r.teams.FindByIDs(ctx, teamIDs.list())
		if err != nil {
			return nil, err
		}
		for i := range teams {
			l.teams[teams[i].ID] = &teams[i]
		}
	}
	return l, nil
}

func (l *lookup) user(id *string) *models.User {
	if id == nil {
		return nil
	}
	return l.users[*id]
}

func (r relations) equipmentDetails(ctx context.Context, items []models.Equipment) ([]models.EquipmentDetail, error) {
	users, teams := idSet{}, idSet{}
	for i := range items {
		users.add(items[i].AssignedEmployeeID)
		users.add(items[i].AssignedTechnicianID)
		teams.add(&items[i].MaintenanceTeamID)
	}
	l, err := r.load(ctx, users, nil, teams)
	if err != nil {
		return nil, err
	}
	out := make([]models.EquipmentDetail, 0, len(items))
	for _, eq := range items {
		out = append(out, models.EquipmentDetail{
			Equipment:          eq,
			AssignedEmployee:   l.user(eq.AssignedEmployeeID),
			MaintenanceTeam:    l.teams[eq.MaintenanceTeamID],
			AssignedTechnician: l.user(eq.AssignedTechnicianID),
		})
	}
	return out, nil
}

func (r relations) teamDetails(ctx context.Context, teams []models.Team) ([]models.TeamDetail, error) {
	users := idSet{}
	for i := range teams {
		users.add(teams[i].LeaderID)
		users.add(teams[i].DefaultTechnicianID)
		for j := range teams[i].Members {
			users.add(&teams[i].Members[j].UserID)
		}
	}
	l, err := r.load(ctx, users, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]models.TeamDetail, 0, len(teams))
	for _, team := range teams {
		members := make([]models.TeamMemberDetail, 0, len(team.Members))
		for _, m := range team.Members {
			members = append(members, models.TeamMemberDetail{TeamMember: m, User: l.users[m.UserID]})
		}
		out = append(out, models.TeamDetail{
			Team:              team,
			Members:           members,
			Leader:            l.user(team.LeaderID),
			DefaultTechnician: l.user(team.DefaultTechnicianID),
		})
	}
	return out, nil
}

func (r relations) requestDetails(ctx context.Context, reqs []models.MaintenanceRequest) ([]models.RequestDetail, error) {
	users, equipment, teams := idSet{}, idSet{}, idSet{}
	for i := range reqs {
		users.add(&reqs[i].CreatedByID)
		users.add(reqs[i].AssignedToID)
		equipment.add(&reqs[i].EquipmentID)
		teams.add(&reqs[i].MaintenanceTeamID)
	}
	l, err := r.load(ctx, users, equipment, teams)
	if err != nil {
		return nil, err
	}
	out := make([]models.RequestDetail, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, models.RequestDetail{
			MaintenanceRequest: req,
			Equipment:          l.equipment[req.EquipmentID],
			MaintenanceTeam:    l.teams[req.MaintenanceTeamID],
			CreatedBy:          l.users[req.CreatedByID],
			AssignedTo:         l.user(req.AssignedToID),
		})
	}
	return out, nil
}

func (r relations) requestDetail(ctx context.Context, req models.MaintenanceRequest) (*models.RequestDetail, error) {
	out, err := r.requestDetails(ctx, []models.MaintenanceRequest{req})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// missingUser returns the first of ids that does not resolve to a user.
func (r relations) missingUser(ctx context.Context, ids ...*string) (string, bool, error) {
	set := idSet{}
	for _, id := range ids {
		set.add(id)
	}
	if len(set) == 0 {
		return "", false, nil
	}
	found, err := r.users.FindByIDs(ctx, set.list())
	if err != nil {
		return "", false, err
	}
	for _, u := range found {
		delete(set, u.ID)
	}
	for id := range set {
		return id, true, nil
	}
	return "", false, nil
}
