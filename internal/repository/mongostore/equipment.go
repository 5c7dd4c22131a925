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

type EquipmentRepository struct {
	client   *mongo.Client
	coll     *mongo.Collection
	requests *mongo.Collection
}

func equipmentFilter(f models.EquipmentFilter) bson.M {
	filter := bson.M{}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.TeamID != "" {
		filter["maintenanceTeamId"] = f.TeamID
	}
	return filter
}

func (r *EquipmentRepository) List(ctx context.Context, f models.EquipmentFilter) ([]models.Equipment, error) {
	items, err := findAll[models.Equipment](ctx, r.coll, equipmentFilter(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return items, nil
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	return findOne[models.Equipment](ctx, r.coll, id)
}

func (r *EquipmentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Equipment, error) {
	if len(ids) == 0 {
		return []models.Equipment{}, nil
	}
	items, err := findAll[models.Equipment](ctx, r.coll, byIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("find equipment by ids: %w", err)
	}
	return items, nil
}

func (r *EquipmentRepository) Create(ctx context.Context, eq *models.Equipment) error {
	if eq.ID == "" {
		eq.ID = uuid.NewString()
	}
	ts := now()
	if eq.CreatedAt.IsZero() {
		eq.CreatedAt = ts
	}
	eq.UpdatedAt = ts
	if _, err := r.coll.InsertOne(ctx, eq); err != nil {
		return translate(err, "serial_number")
	}
	return nil
}

func (r *EquipmentRepository) Update(ctx context.Context, eq *models.Equipment) error {
	eq.UpdatedAt = now()
	res, err := r.coll.ReplaceOne(ctx, byID(eq.ID), eq)
	if err != nil {
		return translate(err, "serial_number")
	}
	return expectMatched(res)
}

func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return expectDeleted(res)
}

// Scrap runs inside a multi-document transaction, which needs a replica set
// or sharded cluster.
func (r *EquipmentRepository) Scrap(ctx context.Context, id string, mutate func(*models.Equipment) error) (*models.Equipment, int, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, 0, fmt.Errorf("start scrap session: %w", err)
	}
	defer session.EndSession(ctx)

	var (
		eq       *models.Equipment
		cascaded int
	)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		loaded, err := findOne[models.Equipment](sc, r.coll, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(loaded); err != nil {
			return nil, err
		}
		loaded.UpdatedAt = now()
		if _, err := r.coll.ReplaceOne(sc, byID(id), loaded); err != nil {
			return nil, fmt.Errorf("update scrapped equipment: %w", err)
		}

		res, err := r.requests.UpdateMany(sc,
			bson.M{
				"equipmentId": id,
				"status":      bson.M{"$nin": bson.A{models.StatusRepaired, models.StatusScrap}},
			},
			bson.M{"$set": bson.M{"status": models.StatusScrap, "updatedAt": loaded.UpdatedAt}},
		)
		if err != nil {
			return nil, fmt.Errorf("cascade scrap: %w", err)
		}
		eq = loaded
		cascaded = int(res.ModifiedCount)
		return nil, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return eq, cascaded, nil
}
