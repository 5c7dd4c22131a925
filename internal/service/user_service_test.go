package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maintenance-api/internal/models"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
)

func TestUserServiceCreateDerivesPermissions(t *testing.T) {
	env := newTestEnv(t)

	admin := env.user(t, "Admin@Example.com", models.RoleAdmin)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.True(t, admin.IsActive)
	assert.True(t, admin.Permissions.CanManageUsers)

	mech := env.user(t, "mech@example.com", models.RoleMechanic)
	assert.Equal(t, models.Permissions{CanEditEquipment: true, CanCreateRequest: true, CanViewReports: true}, mech.Permissions)
}

func TestUserServiceCreateRejectsInvalidRole(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Create(context.Background(), CreateUserRequest{Name: "x", Email: "x@example.com", Role: "JANITOR"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "role")
}

func TestUserServiceDuplicateEmailLeavesStoreUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "dup@example.com", models.RoleMechanic)

	_, err := env.users.Create(context.Background(), CreateUserRequest{Name: "again", Email: "DUP@example.com", Role: models.RoleAdmin})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "email already exists", appErr.Message)

	users, err := env.users.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserServiceUpdateRoleRecomputesPermissions(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "tech@example.com", models.RoleElectrician)

	role := models.RoleAdmin
	updated, err := env.users.Update(context.Background(), u.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.True(t, updated.Permissions.CanDeleteEquipment)

	view, err := env.users.Permissions(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Administrator", view.RoleDisplayName)
	assert.True(t, view.Permissions.CanAssignRequest)
}

func TestUserServiceGetMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	err = env.users.Delete(context.Background(), "nope")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestUserServiceRoleQueries(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "a@example.com", models.RoleMechanic)
	env.user(t, "b@example.com", models.RoleMechanic)
	env.user(t, "c@example.com", models.RoleAdmin)
	inactive := false
	_, err := env.users.Create(context.Background(), CreateUserRequest{Name: "d", Email: "d@example.com", Role: models.RoleMechanic, IsActive: &inactive})
	require.NoError(t, err)

	mechanics, err := env.users.ListByRole(context.Background(), models.RoleMechanic)
	require.NoError(t, err)
	assert.Len(t, mechanics, 2)

	stats, err := env.users.RoleStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.RoleMechanic, stats[0].Role)
	assert.Equal(t, "Mechanic", stats[0].DisplayName)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, 2, stats[0].Active)

	_, err = env.users.ListByRole(context.Background(), "nobody")
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}
