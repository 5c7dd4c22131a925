package memory

import (
	"context"
	"sort"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// TeamRepository is the team view of a Store.
type TeamRepository struct {
	s *Store
}

func (r *TeamRepository) List(_ context.Context, filter models.TeamFilter) ([]models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Team, 0)
	r.s.teams.each(func(t models.Team) bool {
		if !filter.IncludeInactive && !t.IsActive {
			return true
		}
		if filter.Specialization != "" && t.Specialization != filter.Specialization {
			return true
		}
		if filter.Department != "" && t.Department != filter.Department {
			return true
		}
		out = append(out, cloneTeam(t))
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TeamRepository) FindByID(_ context.Context, id string) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.teams.get(id)
	if !ok {
		return nil, errNotFound
	}
	t = cloneTeam(t)
	return &t, nil
}

func (r *TeamRepository) FindByIDs(_ context.Context, ids []string) ([]models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.s.teams.get(id); ok {
			out = append(out, cloneTeam(t))
		}
	}
	return out, nil
}

func (r *TeamRepository) Create(_ context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	team.ID = newID(team.ID)
	ts := r.s.now()
	if team.CreatedAt.IsZero() {
		team.CreatedAt = ts
	}
	team.UpdatedAt = ts
	if team.Members == nil {
		team.Members = models.TeamMembers{}
	}
	r.s.teams.put(team.ID, cloneTeam(*team))
	return nil
}

func (r *TeamRepository) Update(_ context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.teams.get(team.ID); !ok {
		return errNotFound
	}
	team.UpdatedAt = r.s.now()
	r.s.teams.put(team.ID, cloneTeam(*team))
	return nil
}

func (r *TeamRepository) AddMember(_ context.Context, teamID string, member models.TeamMember) (*models.Team, error) {
	return r.mutateMembers(teamID, func(members models.TeamMembers) models.TeamMembers {
		if members.Contains(member.UserID) {
			return members
		}
		return append(members, member)
	})
}

func (r *TeamRepository) RemoveMember(_ context.Context, teamID, userID string) (*models.Team, error) {
	return r.mutateMembers(teamID, func(members models.TeamMembers) models.TeamMembers {
		return members.Without(userID)
	})
}

func (r *TeamRepository) mutateMembers(teamID string, fn func(models.TeamMembers) models.TeamMembers) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.teams.get(teamID)
	if !ok {
		return nil, errNotFound
	}
	t = cloneTeam(t)
	t.Members = fn(t.Members)
	t.UpdatedAt = r.s.now()
	r.s.teams.put(t.ID, cloneTeam(t))
	return &t, nil
}
