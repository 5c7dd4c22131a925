package mongostore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/maintenance-api/internal/models"
)

type TeamRepository struct {
	coll *mongo.Collection
}

func teamFilter(f models.TeamFilter) bson.M {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["isActive"] = true
	}
	if f.Specialization != "" {
		filter["specialization"] = f.Specialization
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	return filter
}

func (r *TeamRepository) List(ctx context.Context, f models.TeamFilter) ([]models.Team, error) {
	teams, err := findAll[models.Team](ctx, r.coll, teamFilter(f), options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (r *TeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	return findOne[models.Team](ctx, r.coll, id)
}

func (r *TeamRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Team, error) {
	if len(ids) == 0 {
		return []models.Team{}, nil
	}
	teams, err := findAll[models.Team](ctx, r.coll, byIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("find teams by ids: %w", err)
	}
	return teams, nil
}

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
	if _, err := r.coll.InsertOne(ctx, team); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, team *models.Team) error {
	team.UpdatedAt = now()
	res, err := r.coll.ReplaceOne(ctx, byID(team.ID), team)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return expectMatched(res)
}

// AddMember pushes member unless the user is already listed.
func (r *TeamRepository) AddMember(ctx context.Context, teamID string, member models.TeamMember) (*models.Team, error) {
	filter := bson.M{"_id": teamID, "members.userId": bson.M{"$ne": member.UserID}}
	update := bson.M{
		"$push": bson.M{"members": member},
		"$set":  bson.M{"updatedAt": now()},
	}
	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return nil, fmt.Errorf("add team member: %w", err)
	}
	return r.FindByID(ctx, teamID)
}

// RemoveMember pulls every entry for userID.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) (*models.Team, error) {
	update := bson.M{
		"$pull": bson.M{"members": bson.M{"userId": userID}},
		"$set":  bson.M{"updatedAt": now()},
	}
	res, err := r.coll.UpdateOne(ctx, byID(teamID), update)
	if err != nil {
		return nil, fmt.Errorf("remove team member: %w", err)
	}
	if err := expectMatched(res); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, teamID)
}
