package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/repository"
	"github.com/noah-isme/maintenance-api/internal/validation"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
)

// MemberInput is one membership entry in a team payload.
type MemberInput struct {
	UserID string            `json:"userId" validate:"required"`
	Role   models.MemberRole `json:"role" validate:"enum"`
}

// CreateTeamRequest represents payload for creating teams.
type CreateTeamRequest struct {
	Name                models.TeamName           `json:"name" validate:"required,enum"`
	Description         string                    `json:"description"`
	Specialization      models.TeamSpecialization `json:"specialization" validate:"enum"`
	Department          models.Department         `json:"department" validate:"enum"`
	Members             []MemberInput             `json:"members" validate:"dive"`
	LeaderID            *string                   `json:"leaderId"`
	DefaultTechnicianID *string                   `json:"defaultTechnicianId"`
}

// UpdateTeamRequest merges the supplied fields onto the stored team. A
// non-nil Members replaces the whole member list.
type UpdateTeamRequest struct {
	Name                *models.TeamName           `json:"name" validate:"omitempty,enum"`
	Description         *string                    `json:"description"`
	Specialization      *models.TeamSpecialization `json:"specialization" validate:"omitempty,enum"`
	Department          *models.Department         `json:"department" validate:"omitempty,enum"`
	Members             *[]MemberInput             `json:"members" validate:"omitempty,dive"`
	LeaderID            *string                    `json:"leaderId"`
	DefaultTechnicianID *string                    `json:"defaultTechnicianId"`
	IsActive            *bool                      `json:"isActive"`
}

// AddMemberRequest adds one user to a team.
type AddMemberRequest struct {
	UserID string            `json:"userId" validate:"required"`
	Role   models.MemberRole `json:"role" validate:"enum"`
}

// TeamService manages maintenance teams and their membership.
type TeamService struct {
	repo      repository.TeamStore
	rel       relations
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTeamService creates an instance of TeamService.
func NewTeamService(store *repository.Store, validate *validator.Validate, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &TeamService{
		repo:      store.Teams,
		rel:       relations{users: store.Users, equipment: store.Equipment, teams: store.Teams},
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns teams sorted by name; inactive teams only on request.
func (s *TeamService) List(ctx context.Context, filter models.TeamFilter) ([]models.TeamDetail, error) {
	teams, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "team")
	}
	details, err := s.rel.teamDetails(ctx, teams)
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return details, nil
}

// Get returns a team with its users resolved.
func (s *TeamService) Get(ctx context.Context, id string) (*models.TeamDetail, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "team")
	}
	return s.detail(ctx, *team)
}

// Create adds an active team. Every referenced user must exist.
func (s *TeamService) Create(ctx context.Context, req CreateTeamRequest) (*models.TeamDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}

	team := &models.Team{
		Name:                req.Name,
		Description:         strings.TrimSpace(req.Description),
		Specialization:      req.Specialization,
		Department:          req.Department,
		Members:             s.members(req.Members, nil),
		LeaderID:            blankToNil(req.LeaderID),
		DefaultTechnicianID: blankToNil(req.DefaultTechnicianID),
		IsActive:            true,
	}
	if err := s.checkUsers(ctx, team); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, storeErr(err, "team")
	}
	s.logger.Info("team created", zap.String("team_id", team.ID), zap.String("name", string(team.Name)))
	return s.detail(ctx, *team)
}

// Update merges the payload onto the stored team.
func (s *TeamService) Update(ctx context.Context, id string, req UpdateTeamRequest) (*models.TeamDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "team")
	}

	if req.Name != nil {
		if !req.Name.Valid() {
			return nil, appErrors.Validation("name is required")
		}
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = strings.TrimSpace(*req.Description)
	}
	if req.Specialization != nil {
		team.Specialization = *req.Specialization
	}
	if req.Department != nil {
		team.Department = *req.Department
	}
	if req.Members != nil {
		team.Members = s.members(*req.Members, team.Members)
	}
	if req.LeaderID != nil {
		team.LeaderID = blankToNil(req.LeaderID)
	}
	if req.DefaultTechnicianID != nil {
		team.DefaultTechnicianID = blankToNil(req.DefaultTechnicianID)
	}
	if req.IsActive != nil {
		team.IsActive = *req.IsActive
	}

	if err := s.checkUsers(ctx, team); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, storeErr(err, "team")
	}
	return s.detail(ctx, *team)
}

// Deactivate clears the active flag. Teams are never physically removed
// because equipment and request snapshots keep pointing at them.
func (s *TeamService) Deactivate(ctx context.Context, id string) error {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, "team")
	}
	if !team.IsActive {
		return nil
	}
	team.IsActive = false
	if err := s.repo.Update(ctx, team); err != nil {
		return storeErr(err, "team")
	}
	s.logger.Info("team deactivated", zap.String("team_id", id))
	return nil
}

// AddMember adds userID to the team. Adding an existing member is a no-op.
func (s *TeamService) AddMember(ctx context.Context, teamID string, req AddMemberRequest) (*models.TeamDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return nil, storeErr(err, "team")
	}
	if id, missing, err := s.rel.missingUser(ctx, &req.UserID); err != nil {
		return nil, appErrors.Internal(err)
	} else if missing {
		return nil, badRef("user", id)
	}

	role := req.Role
	if role == "" {
		role = models.MemberTechnician
	}
	team, err := s.repo.AddMember(ctx, teamID, models.TeamMember{UserID: req.UserID, Role: role, JoinedDate: s.now().UTC()})
	if err != nil {
		return nil, storeErr(err, "team")
	}
	return s.detail(ctx, *team)
}

// RemoveMember drops every membership entry of userID.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID string) (*models.TeamDetail, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.Validation("userId is required")
	}
	team, err := s.repo.RemoveMember(ctx, teamID, userID)
	if err != nil {
		return nil, storeErr(err, "team")
	}
	return s.detail(ctx, *team)
}

func (s *TeamService) detail(ctx context.Context, team models.Team) (*models.TeamDetail, error) {
	details, err := s.rel.teamDetails(ctx, []models.Team{team})
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return &details[0], nil
}

// members builds a member list, collapsing duplicate users onto their first
// entry. Users already in current keep their join date, and their role when
// the input leaves it blank.
func (s *TeamService) members(in []MemberInput, current models.TeamMembers) models.TeamMembers {
	stored := make(map[string]models.TeamMember, len(current))
	for _, m := range current {
		if _, ok := stored[m.UserID]; !ok {
			stored[m.UserID] = m
		}
	}

	joined := s.now().UTC()
	out := make(models.TeamMembers, 0, len(in))
	for _, m := range in {
		if out.Contains(m.UserID) {
			continue
		}
		member := models.TeamMember{UserID: m.UserID, Role: m.Role, JoinedDate: joined}
		if prev, ok := stored[m.UserID]; ok {
			member.JoinedDate = prev.JoinedDate
			if member.Role == "" {
				member.Role = prev.Role
			}
		}
		if member.Role == "" {
			member.Role = models.MemberTechnician
		}
		out = append(out, member)
	}
	return out
}

func (s *TeamService) checkUsers(ctx context.Context, team *models.Team) error {
	ids := []*string{team.LeaderID, team.DefaultTechnicianID}
	for i := range team.Members {
		ids = append(ids, &team.Members[i].UserID)
	}
	id, missing, err := s.rel.missingUser(ctx, ids...)
	if err != nil {
		return appErrors.Internal(err)
	}
	if missing {
		return badRef("user", id)
	}
	return nil
}

func blankToNil(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}
