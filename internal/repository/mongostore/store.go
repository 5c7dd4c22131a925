// Package mongostore keeps the maintenance entities in MongoDB collections.
// Documents use string UUID identifiers so every backend hands out the same
// id shape.
package mongostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/noah-isme/maintenance-api/internal/models"
)

const (
	usersCollection     = "users"
	equipmentCollection = "equipment"
	teamsCollection     = "maintenance_teams"
	requestsCollection  = "maintenance_requests"
)

// Store wraps one database of a connected client.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New binds the store to database name and ensures its unique indexes.
func New(ctx context.Context, client *mongo.Client, name string) (*Store, error) {
	s := newStore(client, client.Database(name))
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db}
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email")},
		},
		equipmentCollection: {
			{Keys: bson.D{{Key: "serialNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetName("serial_number")},
			{Keys: bson.D{{Key: "maintenanceTeamId", Value: 1}}},
		},
		requestsCollection: {
			{Keys: bson.D{{Key: "requestNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetName("request_number")},
			{Keys: bson.D{{Key: "equipmentId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "maintenanceTeamId", Value: 1}}},
		},
	}
	for name, specs := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Equipment() *EquipmentRepository {
	return &EquipmentRepository{
		client:   s.client,
		coll:     s.db.Collection(equipmentCollection),
		requests: s.db.Collection(requestsCollection),
	}
}

func (s *Store) Teams() *TeamRepository {
	return &TeamRepository{coll: s.db.Collection(teamsCollection)}
}

func (s *Store) Requests() *RequestRepository {
	return &RequestRepository{coll: s.db.Collection(requestsCollection)}
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func now() time.Time {
	return time.Now().UTC()
}

// translate maps driver errors onto the store contract.
func translate(err error, uniqueField string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return sql.ErrNoRows
	case uniqueField != "" && mongo.IsDuplicateKeyError(err):
		return &models.DuplicateKeyError{Field: uniqueField}
	default:
		return err
	}
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}

func byIDs(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, byID(id)).Decode(&doc); err != nil {
		return nil, translate(err, "")
	}
	return &doc, nil
}

func expectMatched(res *mongo.UpdateResult) error {
	if res.MatchedCount == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func expectDeleted(res *mongo.DeleteResult) error {
	if res.DeletedCount == 0 {
		return sql.ErrNoRows
	}
	return nil
}
