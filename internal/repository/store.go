package repository

import (
	"context"
	"time"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// Every backend reports a missing record as sql.ErrNoRows and a unique
// collision as *models.DuplicateKeyError.

// UserStore persists users.
type UserStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	RoleStats(ctx context.Context) ([]models.RoleStat, error)
}

// EquipmentStore persists equipment. Scrap locks the record, applies mutate,
// writes it and forces open requests on it to Scrap in one transaction. An
// error from mutate aborts the transaction and is returned unchanged.
type EquipmentStore interface {
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, error)
	FindByID(ctx context.Context, id string) (*models.Equipment, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Equipment, error)
	Create(ctx context.Context, eq *models.Equipment) error
	Update(ctx context.Context, eq *models.Equipment) error
	Delete(ctx context.Context, id string) error
	Scrap(ctx context.Context, id string, mutate func(*models.Equipment) error) (*models.Equipment, int, error)
}

// TeamStore persists maintenance teams.
type TeamStore interface {
	List(ctx context.Context, filter models.TeamFilter) ([]models.Team, error)
	FindByID(ctx context.Context, id string) (*models.Team, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Team, error)
	Create(ctx context.Context, team *models.Team) error
	Update(ctx context.Context, team *models.Team) error
	AddMember(ctx context.Context, teamID string, member models.TeamMember) (*models.Team, error)
	RemoveMember(ctx context.Context, teamID, userID string) (*models.Team, error)
}

// RequestStore persists maintenance requests. CreateNumbered computes the
// request number from the current row count inside the insert's critical
// section where the backend offers one.
type RequestStore interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, error)
	FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	Count(ctx context.Context, filter models.RequestFilter) (int, error)
	CreateNumbered(ctx context.Context, req *models.MaintenanceRequest, number func(existing int) string) error
	Update(ctx context.Context, req *models.MaintenanceRequest) error
	Delete(ctx context.Context, id string) error
	CountBy(ctx context.Context, group models.RequestGroup) ([]models.GroupCount, error)
}

// Store bundles the entity repositories of one backend.
type Store struct {
	Driver    string
	Users     UserStore
	Equipment EquipmentStore
	Teams     TeamStore
	Requests  RequestStore
	Ping      func(ctx context.Context) error
	Close     func(ctx context.Context) error
}

func now() time.Time {
	return time.Now().UTC()
}
