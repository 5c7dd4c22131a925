package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maintenance-api/internal/models"
)

const (
	userID  = "0b6f3c1e-9a51-4c61-8a44-2f3f6b1c7d10"
	teamID  = "5d2b1f0a-3c4e-4b8f-9e2d-7a6c5b4d3e21"
	equipID = "8e7d6c5b-4a39-4281-9f0e-1d2c3b4a5f60"
	reqID   = "c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "role", "department", "phone", "is_active", "permissions", "created_at", "updated_at"}).
		AddRow(userID, "Ana", "ana@example.com", string(models.RoleMechanic), string(models.DepartmentProduction), "", true, []byte(`{"canEditEquipment":true}`), now, now)
}

func TestUserFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE id = $1 LIMIT 1")).
		WithArgs(userID).
		WillReturnRows(userRows(time.Now()))

	user, err := repo.FindByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.True(t, user.Permissions.CanEditEquipment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByIDRejectsMalformedID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	active := true
	mock.ExpectQuery(`SELECT .* FROM users WHERE role = \$1 AND is_active = \$2 ORDER BY created_at DESC`).
		WithArgs(string(models.RoleMechanic), true).
		WillReturnRows(userRows(time.Now()))

	users, err := repo.List(context.Background(), models.UserFilter{Role: models.RoleMechanic, Active: &active})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Table: "users", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{Name: "Ana", Email: "ana@example.com", Role: models.RoleAdmin})
	var dup *models.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.User{ID: userID, Name: "Ana"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRoleStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"role", "count", "active"}).
		AddRow(string(models.RoleMechanic), 3, 2).
		AddRow(string(models.RoleAdmin), 1, 1)
	mock.ExpectQuery(`SELECT role, COUNT\(\*\) AS count, COUNT\(\*\) FILTER \(WHERE is_active\) AS active FROM users GROUP BY role`).
		WillReturnRows(rows)

	stats, err := repo.RoleStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, 2, stats[0].Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateUnique(t *testing.T) {
	err := translateUnique(&pq.Error{Code: "23505", Table: "equipment", Constraint: "equipment_serial_number_key"})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)
	assert.Equal(t, "duplicate serial_number", err.Error())

	other := &pq.Error{Code: "23503"}
	assert.Equal(t, error(other), translateUnique(other))
}
