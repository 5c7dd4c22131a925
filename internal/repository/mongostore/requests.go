package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/rules"
)

// numberAttempts bounds retries when two creations race to the same number.
const numberAttempts = 3

type RequestRepository struct {
	coll *mongo.Collection
}

func statusList(statuses []models.RequestStatus) bson.A {
	out := make(bson.A, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s)
	}
	return out
}

func requestFilter(f models.RequestFilter) bson.M {
	filter := bson.M{}
	status := bson.M{}
	if f.Status != "" {
		status["$eq"] = f.Status
	}
	if len(f.StatusIn) > 0 {
		status["$in"] = statusList(f.StatusIn)
	}
	if len(f.ExcludeStatuses) > 0 {
		status["$nin"] = statusList(f.ExcludeStatuses)
	}
	if len(status) > 0 {
		filter["status"] = status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.EquipmentID != "" {
		filter["equipmentId"] = f.EquipmentID
	}
	if f.TeamID != "" {
		filter["maintenanceTeamId"] = f.TeamID
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if w := f.Window; w != nil {
		span := bson.M{"$gte": w.From, "$lte": w.To}
		filter["$or"] = bson.A{
			bson.M{"scheduledDate": span},
			bson.M{"createdAt": span},
		}
	}
	return filter
}

// List sorts in memory for scheduled ordering since Mongo places missing
// dates first on an ascending sort.
func (r *RequestRepository) List(ctx context.Context, f models.RequestFilter) ([]models.MaintenanceRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	items, err := findAll[models.MaintenanceRequest](ctx, r.coll, requestFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if f.Sort == models.SortScheduledAsc {
		rules.SortRequests(items, f.Sort)
	}
	return items, nil
}

func (r *RequestRepository) Count(ctx context.Context, f models.RequestFilter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, requestFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return int(n), nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	return findOne[models.MaintenanceRequest](ctx, r.coll, id)
}

// CreateNumbered counts then inserts without a lock. The unique index turns
// a lost race into a duplicate, which is retried with a fresh count.
func (r *RequestRepository) CreateNumbered(ctx context.Context, req *models.MaintenanceRequest, number func(existing int) string) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ts := now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = ts
	}
	req.UpdatedAt = ts

	preset := req.RequestNumber != ""
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		if !preset {
			existing, countErr := r.coll.CountDocuments(ctx, bson.M{})
			if countErr != nil {
				return fmt.Errorf("count requests: %w", countErr)
			}
			// Each duplicate steps the sequence, which also skips numbers
			// left in use after deletions.
			req.RequestNumber = number(int(existing) + attempt)
		}
		_, err = r.coll.InsertOne(ctx, req)
		err = translate(err, "request_number")
		if err == nil || preset || !errors.Is(err, models.ErrDuplicateKey) {
			return err
		}
	}
	return err
}

// Update sets every mutable field. Number and equipment snapshot are left alone.
func (r *RequestRepository) Update(ctx context.Context, req *models.MaintenanceRequest) error {
	req.UpdatedAt = now()
	set := bson.M{
		"type":              req.Type,
		"subject":           req.Subject,
		"description":       req.Description,
		"assignedToId":      req.AssignedToID,
		"status":            req.Status,
		"priority":          req.Priority,
		"scheduledDate":     req.ScheduledDate,
		"startDate":         req.StartDate,
		"completionDate":    req.CompletionDate,
		"duration":          req.Duration,
		"estimatedDuration": req.EstimatedDuration,
		"cost":              req.Cost,
		"parts":             req.Parts,
		"notes":             req.Notes,
		"isOverdue":         req.IsOverdue,
		"attachments":       req.Attachments,
		"updatedAt":         req.UpdatedAt,
	}
	res, err := r.coll.UpdateOne(ctx, byID(req.ID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return expectMatched(res)
}

func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return expectDeleted(res)
}

func countPipeline(group models.RequestGroup) mongo.Pipeline {
	key := "$maintenanceTeamId"
	if group == models.GroupByCategory {
		key = "$equipmentCategory"
	}
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": models.StatusScrap}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: key},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "openCount", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$in", Value: bson.A{"$status", statusList(rules.ReportOpenStatuses)}}},
					1, 0,
				}},
			}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

func (r *RequestRepository) CountBy(ctx context.Context, group models.RequestGroup) ([]models.GroupCount, error) {
	cursor, err := r.coll.Aggregate(ctx, countPipeline(group))
	if err != nil {
		return nil, fmt.Errorf("aggregate requests by %s: %w", group, err)
	}
	defer cursor.Close(ctx)

	groups := make([]models.GroupCount, 0)
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode request aggregation: %w", err)
	}
	return groups, nil
}
