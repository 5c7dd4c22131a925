package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/realtime"
	"github.com/noah-isme/maintenance-api/internal/repository"
	"github.com/noah-isme/maintenance-api/internal/rules"
	"github.com/noah-isme/maintenance-api/internal/validation"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
)

// PartInput is one part line of a request payload.
type PartInput struct {
	Name     string  `json:"name" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Cost     float64 `json:"cost" validate:"gte=0"`
}

// CreateMaintenanceRequest represents payload for opening a work order.
// CreatedByID is ignored when the caller is authenticated.
type CreateMaintenanceRequest struct {
	Type              models.RequestType `json:"type" validate:"required,enum"`
	Subject           string             `json:"subject" validate:"required"`
	Description       string             `json:"description"`
	EquipmentID       string             `json:"equipmentId" validate:"required"`
	CreatedByID       string             `json:"createdById"`
	AssignedToID      *string            `json:"assignedToId"`
	Priority          models.Priority    `json:"priority" validate:"enum"`
	ScheduledDate     *time.Time         `json:"scheduledDate"`
	EstimatedDuration float64            `json:"estimatedDuration" validate:"gte=0"`
	Cost              float64            `json:"cost" validate:"gte=0"`
	Parts             []PartInput        `json:"parts" validate:"dive"`
	Notes             string             `json:"notes"`
	IsOverdue         bool               `json:"isOverdue"`
}

// UpdateMaintenanceRequest edits the descriptive fields of a request. Status,
// assignee, equipment and number change only through their own routes.
type UpdateMaintenanceRequest struct {
	Subject           *string          `json:"subject"`
	Description       *string          `json:"description"`
	Priority          *models.Priority `json:"priority" validate:"omitempty,enum"`
	ScheduledDate     *time.Time       `json:"scheduledDate"`
	EstimatedDuration *float64         `json:"estimatedDuration" validate:"omitempty,gte=0"`
	Cost              *float64         `json:"cost" validate:"omitempty,gte=0"`
	Parts             *[]PartInput     `json:"parts" validate:"omitempty,dive"`
	Notes             string           `json:"notes"`
	IsOverdue         *bool            `json:"isOverdue"`
}

// StatusChangeRequest drives the lifecycle controller.
type StatusChangeRequest struct {
	Status          models.RequestStatus `json:"status" validate:"required,enum"`
	AssignedToID    *string              `json:"assignedToId"`
	Duration        *float64             `json:"duration" validate:"omitempty,gte=0"`
	CompletionNotes string               `json:"completionNotes"`
	Force           bool                 `json:"force"`
}

// AssignRequest assigns a technician and starts work.
type AssignRequest struct {
	AssignedToID string `json:"assignedToId" validate:"required"`
	Notes        string `json:"notes"`
}

// MaintenanceRequestService is the lifecycle controller for work orders.
type MaintenanceRequestService struct {
	store     *repository.Store
	rel       relations
	validator *validator.Validate
	events    realtime.Publisher
	metrics   *MetricsService
	cache     *CacheService
	logger    *zap.Logger
	prefix    string
	now       func() time.Time
}

// NewMaintenanceRequestService creates an instance of MaintenanceRequestService.
func NewMaintenanceRequestService(store *repository.Store, validate *validator.Validate, events realtime.Publisher, metrics *MetricsService, cache *CacheService, numberPrefix string, logger *zap.Logger) *MaintenanceRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if events == nil {
		events = realtime.Discard{}
	}
	return &MaintenanceRequestService{
		store:     store,
		rel:       relations{users: store.Users, equipment: store.Equipment, teams: store.Teams},
		validator: validate,
		events:    events,
		metrics:   metrics,
		cache:     cache,
		logger:    logger,
		prefix:    numberPrefix,
		now:       time.Now,
	}
}

// List returns requests matching every supplied filter, newest first.
func (s *MaintenanceRequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	reqs, err := s.store.Requests.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "request")
	}
	details, err := s.rel.requestDetails(ctx, reqs)
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return details, nil
}

// Get returns one request with its references resolved.
func (s *MaintenanceRequestService) Get(ctx context.Context, id string) (*models.RequestDetail, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *req)
}

// Create opens a request against existing equipment. Category and team are
// copied from the equipment and the number is assigned at insert.
func (s *MaintenanceRequestService) Create(ctx context.Context, payload CreateMaintenanceRequest, actorID string) (*models.RequestDetail, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validation.Error(err)
	}

	creator := strings.TrimSpace(actorID)
	if creator == "" {
		creator = strings.TrimSpace(payload.CreatedByID)
	}
	if creator == "" {
		return nil, appErrors.Validation("createdById is required")
	}

	eq, err := s.store.Equipment.FindByID(ctx, payload.EquipmentID)
	if err != nil {
		return nil, storeErr(err, "equipment")
	}
	if eq.Status == models.EquipmentScrap {
		return nil, appErrors.Validation("equipment is scrapped")
	}

	req := &models.MaintenanceRequest{
		Type:              payload.Type,
		Subject:           strings.TrimSpace(payload.Subject),
		Description:       strings.TrimSpace(payload.Description),
		CreatedByID:       creator,
		AssignedToID:      blankToNil(payload.AssignedToID),
		Priority:          payload.Priority,
		ScheduledDate:     payload.ScheduledDate,
		EstimatedDuration: payload.EstimatedDuration,
		Cost:              payload.Cost,
		Parts:             toParts(payload.Parts),
		IsOverdue:         payload.IsOverdue,
	}
	now := s.now()
	req.Notes = rules.AppendNote("", payload.Notes, now)
	rules.PrepareRequest(req, *eq)

	if id, missing, err := s.rel.missingUser(ctx, &req.CreatedByID, req.AssignedToID); err != nil {
		return nil, appErrors.Internal(err)
	} else if missing {
		return nil, badRef("user", id)
	}

	if err := s.store.Requests.CreateNumbered(ctx, req, rules.Numberer(s.prefix, now)); err != nil {
		return nil, storeErr(err, "request")
	}

	s.metrics.RequestCreated()
	s.logger.Info("maintenance request created",
		zap.String("request_id", req.ID),
		zap.String("request_number", req.RequestNumber),
		zap.String("equipment_id", req.EquipmentID),
	)
	return s.changed(ctx, realtime.RequestCreated, *req)
}

// Update edits descriptive fields; notes are appended to the log.
func (s *MaintenanceRequestService) Update(ctx context.Context, id string, payload UpdateMaintenanceRequest) (*models.RequestDetail, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validation.Error(err)
	}
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Subject != nil {
		if strings.TrimSpace(*payload.Subject) == "" {
			return nil, appErrors.Validation("subject is required")
		}
		req.Subject = strings.TrimSpace(*payload.Subject)
	}
	if payload.Description != nil {
		req.Description = strings.TrimSpace(*payload.Description)
	}
	if payload.Priority != nil && *payload.Priority != "" {
		req.Priority = *payload.Priority
	}
	if payload.ScheduledDate != nil {
		req.ScheduledDate = rules.ScheduledDate(req.Type, payload.ScheduledDate)
	}
	if payload.EstimatedDuration != nil {
		req.EstimatedDuration = *payload.EstimatedDuration
	}
	if payload.Cost != nil {
		req.Cost = *payload.Cost
	}
	if payload.Parts != nil {
		req.Parts = toParts(*payload.Parts)
	}
	if payload.IsOverdue != nil {
		req.IsOverdue = *payload.IsOverdue
	}
	req.Notes = rules.AppendNote(req.Notes, payload.Notes, s.now())

	if err := s.store.Requests.Update(ctx, req); err != nil {
		return nil, storeErr(err, "request")
	}
	return s.changed(ctx, realtime.RequestUpdated, *req)
}

// TransitionStatus is the only path that changes a request's status.
func (s *MaintenanceRequestService) TransitionStatus(ctx context.Context, id string, payload StatusChangeRequest) (*models.RequestDetail, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validation.Error(err)
	}
	return s.transition(ctx, id, rules.Transition{
		Status:     payload.Status,
		AssigneeID: blankToNil(payload.AssignedToID),
		Duration:   payload.Duration,
		Note:       payload.CompletionNotes,
		Force:      payload.Force,
	})
}

// Assign sets the technician and moves the request to In Progress.
func (s *MaintenanceRequestService) Assign(ctx context.Context, id string, payload AssignRequest) (*models.RequestDetail, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validation.Error(err)
	}
	return s.transition(ctx, id, rules.AssignTransition(strings.TrimSpace(payload.AssignedToID), payload.Notes))
}

func (s *MaintenanceRequestService) transition(ctx context.Context, id string, t rules.Transition) (*models.RequestDetail, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	guard := rules.CanTransition(rules.TransitionContext{RequestID: req.RequestNumber, From: req.Status, To: t.Status, Force: t.Force})
	if !guard.Allowed {
		return nil, invalidTransition(guard.Reason)
	}
	if t.AssigneeID != nil {
		if _, err := s.store.Users.FindByID(ctx, *t.AssigneeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, notFound("assignee")
			}
			return nil, storeErr(err, "user")
		}
	}

	from := req.Status
	rules.ApplyTransition(req, t, s.now())
	if err := s.store.Requests.Update(ctx, req); err != nil {
		return nil, storeErr(err, "request")
	}

	s.metrics.StatusTransition(req.Status)
	s.logger.Info("maintenance request transitioned",
		zap.String("request_id", req.ID),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)),
		zap.Bool("forced", t.Force && from.Terminal()),
	)
	return s.changed(ctx, realtime.RequestStatusChanged, *req)
}

// Delete physically removes a request.
func (s *MaintenanceRequestService) Delete(ctx context.Context, id string) error {
	if err := s.store.Requests.Delete(ctx, id); err != nil {
		return storeErr(err, "request")
	}
	s.cache.Invalidate(ctx, reportKeyPattern)
	s.events.Publish(realtime.Event{Type: realtime.RequestDeleted, Payload: map[string]string{"id": id}, Timestamp: s.now().UTC()})
	s.logger.Info("maintenance request deleted", zap.String("request_id", id))
	return nil
}

// Kanban buckets every non-scrapped request by status, newest first.
func (s *MaintenanceRequestService) Kanban(ctx context.Context) (models.Board, error) {
	details, err := s.List(ctx, models.RequestFilter{ExcludeStatuses: []models.RequestStatus{models.StatusScrap}})
	if err != nil {
		return nil, err
	}
	return rules.GroupForBoard(details), nil
}

// Preventive is the calendar feed: preventive, non-scrapped requests by
// scheduled date ascending.
func (s *MaintenanceRequestService) Preventive(ctx context.Context) ([]models.RequestDetail, error) {
	return s.List(ctx, models.RequestFilter{
		Type:            models.RequestPreventive,
		ExcludeStatuses: []models.RequestStatus{models.StatusScrap},
		Sort:            models.SortScheduledAsc,
	})
}

// DateRange returns requests scheduled or created within [from, to].
func (s *MaintenanceRequestService) DateRange(ctx context.Context, from, to time.Time) ([]models.RequestDetail, error) {
	if from.IsZero() || to.IsZero() {
		return nil, appErrors.Validation("startDate and endDate are required")
	}
	if to.Before(from) {
		return nil, appErrors.Validation("endDate must not be before startDate")
	}
	return s.List(ctx, models.RequestFilter{Window: &models.DateWindow{From: from.UTC(), To: to.UTC()}})
}

func (s *MaintenanceRequestService) find(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	req, err := s.store.Requests.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "request")
	}
	return req, nil
}

func (s *MaintenanceRequestService) detail(ctx context.Context, req models.MaintenanceRequest) (*models.RequestDetail, error) {
	detail, err := s.rel.requestDetail(ctx, req)
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return detail, nil
}

// changed runs the side effects shared by every write and returns the joined record.
func (s *MaintenanceRequestService) changed(ctx context.Context, kind realtime.EventType, req models.MaintenanceRequest) (*models.RequestDetail, error) {
	s.cache.Invalidate(ctx, reportKeyPattern)
	detail, err := s.detail(ctx, req)
	if err != nil {
		return nil, err
	}
	s.events.Publish(realtime.Event{Type: kind, Payload: detail, Timestamp: s.now().UTC()})
	return detail, nil
}

func toParts(in []PartInput) models.Parts {
	out := make(models.Parts, 0, len(in))
	for _, p := range in {
		out = append(out, models.Part{Name: strings.TrimSpace(p.Name), Quantity: p.Quantity, Cost: p.Cost})
	}
	return out
}
