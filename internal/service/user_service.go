package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/repository"
	"github.com/noah-isme/maintenance-api/internal/rules"
	"github.com/noah-isme/maintenance-api/internal/validation"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
)

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Name       string            `json:"name" validate:"required"`
	Email      string            `json:"email" validate:"required,email"`
	Role       models.Role       `json:"role" validate:"required,enum"`
	Department models.Department `json:"department" validate:"enum"`
	Phone      string            `json:"phone"`
	IsActive   *bool             `json:"isActive"`
}

// UpdateUserRequest merges the supplied fields onto the stored user.
type UpdateUserRequest struct {
	Name       *string            `json:"name"`
	Email      *string            `json:"email" validate:"omitempty,email"`
	Role       *models.Role       `json:"role" validate:"omitempty,enum"`
	Department *models.Department `json:"department" validate:"omitempty,enum"`
	Phone      *string            `json:"phone"`
	IsActive   *bool              `json:"isActive"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      repository.UserStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo repository.UserStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns users matching filter, newest first.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return users, nil
}

// ListByRole returns the active users holding role.
func (s *UserService) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	if !role.Valid() {
		return nil, appErrors.Validation("invalid role")
	}
	active := true
	return s.List(ctx, models.UserFilter{Role: role, Active: &active})
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}

// Create registers a user. Permissions always come from the role.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}

	user := &models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      normalizeEmail(req.Email),
		Role:       req.Role,
		Department: req.Department,
		Phone:      strings.TrimSpace(req.Phone),
		IsActive:   true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	rules.DeriveUser(user)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, storeErr(err, "user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update merges the payload and recomputes permissions.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Validation("name is required")
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, appErrors.Validation("role is required")
		}
		user.Role = *req.Role
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	rules.DeriveUser(user)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}

// Delete physically removes a user. References held by equipment, teams and
// requests are left dangling and resolve to nothing on read.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(err, "user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// RoleStats counts users per role, largest role first.
func (s *UserService) RoleStats(ctx context.Context) ([]models.RoleStat, error) {
	stats, err := s.repo.RoleStats(ctx)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	for i := range stats {
		stats[i].DisplayName = stats[i].Role.DisplayName()
	}
	return stats, nil
}

// Permissions returns the RBAC view of a user.
func (s *UserService) Permissions(ctx context.Context, id string) (*models.UserPermissions, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := rules.PermissionView(*user)
	return &view, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
