package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/maintenance-api/internal/models"
)

const teamColumns = "id, name, description, specialization, department, members, leader_id, default_technician_id, is_active, created_at, updated_at"

// TeamRepository provides database access for maintenance teams.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository creates a new instance of TeamRepository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// List returns teams ordered by name. Inactive teams are skipped unless requested.
func (r *TeamRepository) List(ctx context.Context, filter models.TeamFilter) ([]models.Team, error) {
	builder := psql.Select(strings.Split(teamColumns, ", ")...).From("maintenance_teams").OrderBy("name", "created_at")
	if !filter.IncludeInactive {
		builder = builder.Where(sq.Eq{"is_active": true})
	}
	if filter.Specialization != "" {
		builder = builder.Where(sq.Eq{"specialization": filter.Specialization})
	}
	if filter.Department != "" {
		builder = builder.Where(sq.Eq{"department": filter.Department})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build team list: %w", err)
	}
	teams := make([]models.Team, 0)
	if err := r.db.SelectContext(ctx, &teams, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// FindByID returns a team by identifier, active or not.
func (r *TeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + teamColumns + ` FROM maintenance_teams WHERE id = $1 LIMIT 1`
	var team models.Team
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find team by id: %w", err)
	}
	return &team, nil
}

// FindByIDs returns the teams matching ids; unknown ids are skipped.
func (r *TeamRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Team, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []models.Team{}, nil
	}
	const query = `SELECT ` + teamColumns + ` FROM maintenance_teams WHERE id = ANY($1)`
	teams := make([]models.Team, 0, len(ids))
	if err := r.db.SelectContext(ctx, &teams, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find teams by ids: %w", err)
	}
	return teams, nil
}

// Create inserts a new team.
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	ts := now()
	if team.CreatedAt.IsZero() {
		team.CreatedAt = ts
	}
	team.UpdatedAt = ts
	if team.Members == nil {
		team.Members = models.TeamMembers{}
	}

	const query = `INSERT INTO maintenance_teams (` + teamColumns + `) VALUES (:id, :name, :description, :specialization, :department, :members, :leader_id, :default_technician_id, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("create team: %w", translateUnique(err))
	}
	return nil
}

const updateTeamQuery = `UPDATE maintenance_teams SET name = :name, description = :description, specialization = :specialization, department = :department, members = :members, leader_id = :leader_id, default_technician_id = :default_technician_id, is_active = :is_active, updated_at = :updated_at WHERE id = :id`

// Update writes every mutable field of a team.
func (r *TeamRepository) Update(ctx context.Context, team *models.Team) error {
	team.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, updateTeamQuery, team)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return expectAffected(res)
}

// AddMember appends member unless the user is already on the team.
func (r *TeamRepository) AddMember(ctx context.Context, teamID string, member models.TeamMember) (*models.Team, error) {
	return r.mutateMembers(ctx, teamID, func(members models.TeamMembers) models.TeamMembers {
		if members.Contains(member.UserID) {
			return members
		}
		return append(members, member)
	})
}

// RemoveMember drops every entry for userID.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) (*models.Team, error) {
	return r.mutateMembers(ctx, teamID, func(members models.TeamMembers) models.TeamMembers {
		return members.Without(userID)
	})
}

func (r *TeamRepository) mutateMembers(ctx context.Context, teamID string, fn func(models.TeamMembers) models.TeamMembers) (result *models.Team, err error) {
	if !validID(teamID) {
		return nil, sql.ErrNoRows
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin membership tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var team models.Team
	const lockQuery = `SELECT ` + teamColumns + ` FROM maintenance_teams WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &team, lockQuery, teamID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock team: %w", err)
	}

	team.Members = fn(team.Members)
	team.UpdatedAt = now()
	if _, err = tx.NamedExecContext(ctx, updateTeamQuery, &team); err != nil {
		return nil, fmt.Errorf("update team members: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit membership: %w", err)
	}
	return &team, nil
}
