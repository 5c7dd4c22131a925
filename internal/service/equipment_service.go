package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

// CreateEquipmentRequest represents payload for registering equipment.
type CreateEquipmentRequest struct {
	Name                 string                   `json:"name" validate:"required"`
	SerialNumber         string                   `json:"serialNumber" validate:"required"`
	Category             models.EquipmentCategory `json:"category" validate:"required,enum"`
	Department           models.Department        `json:"department" validate:"required,enum"`
	AssignedEmployeeID   *string                  `json:"assignedEmployeeId"`
	MaintenanceTeamID    string                   `json:"maintenanceTeamId" validate:"required"`
	AssignedTechnicianID *string                  `json:"assignedTechnicianId"`
	PurchaseDate         time.Time                `json:"purchaseDate" validate:"required"`
	WarrantyExpiryDate   *time.Time               `json:"warrantyExpiryDate"`
	Location             string                   `json:"location" validate:"required"`
	Description          string                   `json:"description"`
	Status               models.EquipmentStatus   `json:"status" validate:"enum"`
	Notes                string                   `json:"notes"`
}

// UpdateEquipmentRequest merges the supplied fields onto stored equipment.
// Changing the team or category never touches existing request snapshots.
type UpdateEquipmentRequest struct {
	Name                 *string                   `json:"name"`
	SerialNumber         *string                   `json:"serialNumber"`
	Category             *models.EquipmentCategory `json:"category" validate:"omitempty,enum"`
	Department           *models.Department        `json:"department" validate:"omitempty,enum"`
	AssignedEmployeeID   *string                   `json:"assignedEmployeeId"`
	MaintenanceTeamID    *string                   `json:"maintenanceTeamId"`
	AssignedTechnicianID *string                   `json:"assignedTechnicianId"`
	PurchaseDate         *time.Time                `json:"purchaseDate"`
	WarrantyExpiryDate   *time.Time                `json:"warrantyExpiryDate"`
	Location             *string                   `json:"location"`
	Description          *string                   `json:"description"`
	Status               *models.EquipmentStatus   `json:"status" validate:"omitempty,enum"`
	Notes                *string                   `json:"notes"`
	Reason               string                    `json:"reason"`
}

// ScrapRequest carries the optional reason recorded on the equipment.
type ScrapRequest struct {
	Reason string `json:"reason"`
}

// ScrapResult is the scrapped equipment plus the number of requests forced to Scrap.
type ScrapResult struct {
	Equipment *models.EquipmentDetail
	Cascaded  int
}

// EquipmentService manages equipment and the scrap cascade.
type EquipmentService struct {
	store     *repository.Store
	rel       relations
	validator *validator.Validate
	events    realtime.Publisher
	metrics   *MetricsService
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
}

// NewEquipmentService creates an instance of EquipmentService. events,
// metrics and cache may be nil.
func NewEquipmentService(store *repository.Store, validate *validator.Validate, events realtime.Publisher, metrics *MetricsService, cache *CacheService, logger *zap.Logger) *EquipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if events == nil {
		events = realtime.Discard{}
	}
	return &EquipmentService{
		store:     store,
		rel:       relations{users: store.Users, equipment: store.Equipment, teams: store.Teams},
		validator: validate,
		events:    events,
		metrics:   metrics,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns equipment matching every supplied filter.
func (s *EquipmentService) List(ctx context.Context, filter models.EquipmentFilter) ([]models.EquipmentDetail, error) {
	items, err := s.store.Equipment.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "equipment")
	}
	details, err := s.rel.equipmentDetails(ctx, items)
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return details, nil
}

// Get returns one piece of equipment with its references resolved.
func (s *EquipmentService) Get(ctx context.Context, id string) (*models.EquipmentDetail, error) {
	eq, err := s.store.Equipment.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "equipment")
	}
	return s.detail(ctx, *eq)
}

// Create registers equipment. The technician defaults to the team's default
// technician when none is supplied.
func (s *EquipmentService) Create(ctx context.Context, req CreateEquipmentRequest) (*models.EquipmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}

	eq := &models.Equipment{
		Name:                 strings.TrimSpace(req.Name),
		SerialNumber:         strings.TrimSpace(req.SerialNumber),
		Category:             req.Category,
		Department:           req.Department,
		AssignedEmployeeID:   blankToNil(req.AssignedEmployeeID),
		MaintenanceTeamID:    strings.TrimSpace(req.MaintenanceTeamID),
		AssignedTechnicianID: blankToNil(req.AssignedTechnicianID),
		PurchaseDate:         req.PurchaseDate.UTC(),
		WarrantyExpiryDate:   utcPtr(req.WarrantyExpiryDate),
		Location:             strings.TrimSpace(req.Location),
		Description:          strings.TrimSpace(req.Description),
		Status:               req.Status,
		Notes:                strings.TrimSpace(req.Notes),
	}
	if eq.Status == "" {
		eq.Status = models.EquipmentActive
	}

	team, err := s.team(ctx, eq.MaintenanceTeamID)
	if err != nil {
		return nil, err
	}
	rules.DefaultTechnician(eq, *team)
	if err := s.checkUsers(ctx, eq); err != nil {
		return nil, err
	}

	if err := s.store.Equipment.Create(ctx, eq); err != nil {
		return nil, storeErr(err, "equipment")
	}
	s.logger.Info("equipment created", zap.String("equipment_id", eq.ID), zap.String("serial_number", eq.SerialNumber))
	return s.detail(ctx, *eq)
}

// Update merges the payload. Moving the status to Scrap runs the cascade.
func (s *EquipmentService) Update(ctx context.Context, id string, req UpdateEquipmentRequest) (*models.EquipmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	current, err := s.store.Equipment.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "equipment")
	}

	eq := *current
	if err := s.merge(&eq, req); err != nil {
		return nil, err
	}
	if eq.MaintenanceTeamID != current.MaintenanceTeamID {
		if _, err := s.team(ctx, eq.MaintenanceTeamID); err != nil {
			return nil, err
		}
	}
	if err := s.checkUsers(ctx, &eq); err != nil {
		return nil, err
	}

	if eq.Status == models.EquipmentScrap && current.Status != models.EquipmentScrap {
		result, err := s.scrap(ctx, id, req.Reason, func(target *models.Equipment) {
			merged := eq
			merged.CreatedAt = target.CreatedAt
			*target = merged
		})
		if err != nil {
			return nil, err
		}
		return result.Equipment, nil
	}

	if err := s.store.Equipment.Update(ctx, &eq); err != nil {
		return nil, storeErr(err, "equipment")
	}
	return s.detail(ctx, eq)
}

// Delete removes equipment that no request references. Referenced equipment
// must be scrapped instead so request history keeps resolving.
func (s *EquipmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Equipment.FindByID(ctx, id); err != nil {
		return storeErr(err, "equipment")
	}
	refs, err := s.store.Requests.Count(ctx, models.RequestFilter{EquipmentID: id})
	if err != nil {
		return storeErr(err, "request")
	}
	if refs > 0 {
		return appErrors.Validation(fmt.Sprintf("equipment is referenced by %d maintenance requests; scrap it instead", refs))
	}
	if err := s.store.Equipment.Delete(ctx, id); err != nil {
		return storeErr(err, "equipment")
	}
	s.logger.Info("equipment deleted", zap.String("equipment_id", id))
	return nil
}

// Maintenance lists the non-scrapped requests raised against equipment, newest first.
func (s *EquipmentService) Maintenance(ctx context.Context, id string) ([]models.RequestDetail, error) {
	reqs, err := s.store.Requests.List(ctx, models.RequestFilter{
		EquipmentID:     id,
		ExcludeStatuses: []models.RequestStatus{models.StatusScrap},
	})
	if err != nil {
		return nil, storeErr(err, "request")
	}
	details, err := s.rel.requestDetails(ctx, reqs)
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return details, nil
}

// MaintenanceCount counts requests on the equipment that still await work.
func (s *EquipmentService) MaintenanceCount(ctx context.Context, id string) (int, error) {
	n, err := s.store.Requests.Count(ctx, models.RequestFilter{EquipmentID: id, StatusIn: rules.PendingStatuses})
	if err != nil {
		return 0, storeErr(err, "request")
	}
	return n, nil
}

// Scrap marks equipment as Scrap and forces its unfinished requests to Scrap
// in one store transaction.
func (s *EquipmentService) Scrap(ctx context.Context, id string, req ScrapRequest) (*ScrapResult, error) {
	return s.scrap(ctx, id, req.Reason, nil)
}

func (s *EquipmentService) scrap(ctx context.Context, id, reason string, prepare func(*models.Equipment)) (*ScrapResult, error) {
	now := s.now()
	eq, cascaded, err := s.store.Equipment.Scrap(ctx, id, func(target *models.Equipment) error {
		if target.Status == models.EquipmentScrap {
			return appErrors.Validation("equipment is already scrapped")
		}
		if prepare != nil {
			prepare(target)
		}
		rules.ScrapEquipment(target, reason, now)
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "equipment")
	}

	s.metrics.ScrapCascade(cascaded)
	s.cache.Invalidate(ctx, reportKeyPattern)
	s.events.Publish(realtime.Event{
		Type:      realtime.EquipmentScrapped,
		Payload:   map[string]interface{}{"equipmentId": eq.ID, "cascadedRequests": cascaded},
		Timestamp: now.UTC(),
	})
	s.logger.Info("equipment scrapped", zap.String("equipment_id", eq.ID), zap.Int("cascaded_requests", cascaded))

	detail, err := s.detail(ctx, *eq)
	if err != nil {
		return nil, err
	}
	return &ScrapResult{Equipment: detail, Cascaded: cascaded}, nil
}

func (s *EquipmentService) merge(eq *models.Equipment, req UpdateEquipmentRequest) error {
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return appErrors.Validation("name is required")
		}
		eq.Name = strings.TrimSpace(*req.Name)
	}
	if req.SerialNumber != nil {
		if strings.TrimSpace(*req.SerialNumber) == "" {
			return appErrors.Validation("serialNumber is required")
		}
		eq.SerialNumber = strings.TrimSpace(*req.SerialNumber)
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return appErrors.Validation("category is required")
		}
		eq.Category = *req.Category
	}
	if req.Department != nil {
		if !req.Department.Valid() {
			return appErrors.Validation("department is required")
		}
		eq.Department = *req.Department
	}
	if req.AssignedEmployeeID != nil {
		eq.AssignedEmployeeID = blankToNil(req.AssignedEmployeeID)
	}
	if req.MaintenanceTeamID != nil {
		if strings.TrimSpace(*req.MaintenanceTeamID) == "" {
			return appErrors.Validation("maintenanceTeamId is required")
		}
		eq.MaintenanceTeamID = strings.TrimSpace(*req.MaintenanceTeamID)
	}
	if req.AssignedTechnicianID != nil {
		eq.AssignedTechnicianID = blankToNil(req.AssignedTechnicianID)
	}
	if req.PurchaseDate != nil {
		eq.PurchaseDate = req.PurchaseDate.UTC()
	}
	if req.WarrantyExpiryDate != nil {
		eq.WarrantyExpiryDate = utcPtr(req.WarrantyExpiryDate)
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			return appErrors.Validation("location is required")
		}
		eq.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		eq.Description = strings.TrimSpace(*req.Description)
	}
	if req.Notes != nil {
		eq.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Status != nil && *req.Status != "" {
		eq.Status = *req.Status
	}
	return nil
}

func (s *EquipmentService) team(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.store.Teams.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, badRef("maintenanceTeamId", id)
	}
	if err != nil {
		return nil, storeErr(err, "team")
	}
	return team, nil
}

func (s *EquipmentService) checkUsers(ctx context.Context, eq *models.Equipment) error {
	for field, id := range map[string]*string{
		"assignedEmployeeId":   eq.AssignedEmployeeID,
		"assignedTechnicianId": eq.AssignedTechnicianID,
	} {
		if _, missing, err := s.rel.missingUser(ctx, id); err != nil {
			return appErrors.Internal(err)
		} else if missing {
			return badRef(field, *id)
		}
	}
	return nil
}

func (s *EquipmentService) detail(ctx context.Context, eq models.Equipment) (*models.EquipmentDetail, error) {
	details, err := s.rel.equipmentDetails(ctx, []models.Equipment{eq})
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return &details[0], nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
