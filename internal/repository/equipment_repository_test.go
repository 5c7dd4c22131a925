package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maintenance-api/internal/models"
)

func equipmentRows(now time.Time, status models.EquipmentStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "serial_number", "category", "department", "assigned_employee_id", "maintenance_team_id", "assigned_technician_id", "purchase_date", "warranty_expiry_date", "location", "description", "status", "notes", "created_at", "updated_at"}).
		AddRow(equipID, "Lathe", "SN-1", string(models.CategoryMachinery), string(models.DepartmentProduction), nil, teamID, userID, now, nil, "Hall A", "", string(status), "", now, now)
}

func TestEquipmentListByTeam(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEquipmentRepository(db)

	mock.ExpectQuery(`SELECT .* FROM equipment WHERE maintenance_team_id = \$1 ORDER BY created_at DESC`).
		WithArgs(teamID).
		WillReturnRows(equipmentRows(time.Now(), models.EquipmentActive))

	items, err := repo.List(context.Background(), models.EquipmentFilter{TeamID: teamID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].AssignedEmployeeID)
	require.NotNil(t, items[0].AssignedTechnicianID)
	assert.Equal(t, userID, *items[0].AssignedTechnicianID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEquipmentRepository(db)

	mock.ExpectExec("INSERT INTO equipment").WillReturnResult(sqlmock.NewResult(0, 1))

	eq := &models.Equipment{Name: "Lathe", SerialNumber: "SN-1", MaintenanceTeamID: teamID}
	require.NoError(t, repo.Create(context.Background(), eq))
	assert.NotEmpty(t, eq.ID)
	assert.False(t, eq.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentScrapCascadesInTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEquipmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + equipmentColumns + " FROM equipment WHERE id = $1 FOR UPDATE")).
		WithArgs(equipID).
		WillReturnRows(equipmentRows(time.Now(), models.EquipmentActive))
	mock.ExpectExec("UPDATE equipment SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests SET status = $1, updated_at = $2 WHERE equipment_id = $3 AND status NOT IN ($4,$5)")).
		WithArgs(string(models.StatusScrap), sqlmock.AnyArg(), equipID, string(models.StatusRepaired), string(models.StatusScrap)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	eq, cascaded, err := repo.Scrap(context.Background(), equipID, func(e *models.Equipment) error {
		e.Status = models.EquipmentScrap
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cascaded)
	assert.Equal(t, models.EquipmentScrap, eq.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentScrapRollsBackWhenMutateFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEquipmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(equipID).WillReturnRows(equipmentRows(time.Now(), models.EquipmentScrap))
	mock.ExpectRollback()

	_, _, err := repo.Scrap(context.Background(), equipID, func(*models.Equipment) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentScrapRollsBackOnCascadeFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEquipmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(equipID).WillReturnRows(equipmentRows(time.Now(), models.EquipmentActive))
	mock.ExpectExec("UPDATE equipment SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE maintenance_requests").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, _, err := repo.Scrap(context.Background(), equipID, func(e *models.Equipment) error { e.Status = models.EquipmentScrap; return nil })
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
