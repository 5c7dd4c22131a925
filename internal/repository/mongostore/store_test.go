package mongostore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/noah-isme/maintenance-api/internal/models"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "email"))
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments, ""), sql.ErrNoRows)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	err := translate(dup, "email")
	var keyErr *models.DuplicateKeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, "email", keyErr.Field)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other, "email"))
}

func TestRequestFilter(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	filter := requestFilter(models.RequestFilter{
		TeamID:          "t1",
		StatusIn:        []models.RequestStatus{models.StatusNew},
		ExcludeStatuses: []models.RequestStatus{models.StatusScrap},
		Window:          &models.DateWindow{From: from, To: to},
	})

	assert.Equal(t, "t1", filter["maintenanceTeamId"])
	status := filter["status"].(bson.M)
	assert.Equal(t, bson.A{models.StatusNew}, status["$in"])
	assert.Equal(t, bson.A{models.StatusScrap}, status["$nin"])
	assert.Len(t, filter["$or"], 2)

	assert.Empty(t, requestFilter(models.RequestFilter{}))
}

func TestTeamFilterDefaultsToActive(t *testing.T) {
	assert.Equal(t, bson.M{"isActive": true}, teamFilter(models.TeamFilter{}))
	assert.Equal(t, bson.M{}, teamFilter(models.TeamFilter{IncludeInactive: true}))
}

func TestCountPipelineGroupsByCategory(t *testing.T) {
	pipeline := countPipeline(models.GroupByCategory)
	require.Len(t, pipeline, 3)
	group := pipeline[1][0].Value.(bson.D)
	assert.Equal(t, "$equipmentCategory", group[0].Value)

	pipeline = countPipeline(models.GroupByTeam)
	group = pipeline[1][0].Value.(bson.D)
	assert.Equal(t, "$maintenanceTeamId", group[0].Value)
}

func TestUserRepositoryWithMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find by id", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "name", Value: "Ana"},
			{Key: "email", Value: "ana@example.com"},
			{Key: "role", Value: "MECHANIC"},
			{Key: "isActive", Value: true},
		}))

		user, err := repo.FindByID(ctx, "u1")
		require.NoError(mt, err)
		assert.Equal(mt, "Ana", user.Name)
		assert.Equal(mt, models.RoleMechanic, user.Role)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(mt, err, sql.ErrNoRows)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Create(ctx, &models.User{Name: "Ana", Email: "ana@example.com"})
		assert.ErrorIs(mt, err, models.ErrDuplicateKey)
	})

	mt.Run("update unknown", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.Update(ctx, &models.User{ID: "missing"})
		assert.ErrorIs(mt, err, sql.ErrNoRows)
	})

	mt.Run("delete unknown", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(ctx, "missing")
		assert.ErrorIs(mt, err, sql.ErrNoRows)
	})
}

func TestRequestCountWithMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("count by team", func(mt *mtest.T) {
		repo := &RequestRepository{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "t1"}, {Key: "count", Value: 3}, {Key: "openCount", Value: 2}},
				bson.D{{Key: "_id", Value: "t2"}, {Key: "count", Value: 1}, {Key: "openCount", Value: 0}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		groups, err := repo.CountBy(context.Background(), models.GroupByTeam)
		require.NoError(mt, err)
		require.Len(mt, groups, 2)
		assert.Equal(mt, models.GroupCount{Key: "t1", Count: 3, OpenCount: 2}, groups[0])
	})
}
