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

type UserRepository struct {
	coll *mongo.Collection
}

func userFilter(f models.UserFilter) bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	if f.Active != nil {
		filter["isActive"] = *f.Active
	}
	return filter
}

func (r *UserRepository) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	users, err := findAll[models.User](ctx, r.coll, userFilter(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, id)
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	users, err := findAll[models.User](ctx, r.coll, byIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	ts := now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = ts
	}
	user.UpdatedAt = ts
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return translate(err, "email")
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = now()
	res, err := r.coll.ReplaceOne(ctx, byID(user.ID), user)
	if err != nil {
		return translate(err, "email")
	}
	return expectMatched(res)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectDeleted(res)
}

// RoleStats groups users per role with an active tally, largest first.
func (r *UserRepository) RoleStats(ctx context.Context) ([]models.RoleStat, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "active", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$isActive", 1, 0}},
			}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate role stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := make([]models.RoleStat, 0)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode role stats: %w", err)
	}
	return stats, nil
}
