package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maintenance-api/internal/models"
)

func teamRows(now time.Time, members string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "specialization", "department", "members", "leader_id", "default_technician_id", "is_active", "created_at", "updated_at"}).
		AddRow(teamID, string(models.TeamMechanics), "", string(models.SpecializationMechanic), "", []byte(members), nil, userID, true, now, now)
}

func TestTeamListDefaultsToActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectQuery(`SELECT .* FROM maintenance_teams WHERE is_active = \$1 ORDER BY name, created_at`).
		WithArgs(true).
		WillReturnRows(teamRows(time.Now(), `[]`))

	teams, err := repo.List(context.Background(), models.TeamFilter{})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Empty(t, teams[0].Members)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamAddMemberIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	existing := `[{"userId":"` + userID + `","role":"Technician","joinedDate":"2025-01-01T00:00:00Z"}]`
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(teamID).WillReturnRows(teamRows(time.Now(), existing))
	mock.ExpectExec("UPDATE maintenance_teams SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	team, err := repo.AddMember(context.Background(), teamID, models.TeamMember{UserID: userID, Role: models.MemberLead})
	require.NoError(t, err)
	require.Len(t, team.Members, 1)
	assert.Equal(t, models.MemberTechnician, team.Members[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRemoveMemberFromMissingTeam(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(teamID).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.RemoveMember(context.Background(), teamID, userID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
