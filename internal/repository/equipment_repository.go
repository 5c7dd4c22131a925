package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/maintenance-api/internal/models"
)

const equipmentColumns = "id, name, serial_number, category, department, assigned_employee_id, maintenance_team_id, assigned_technician_id, purchase_date, warranty_expiry_date, location, description, status, notes, created_at, updated_at"

// EquipmentRepository provides database access for equipment.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository creates a new instance of EquipmentRepository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// List returns equipment matching every supplied filter, newest first.
func (r *EquipmentRepository) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, error) {
	builder := psql.Select(strings.Split(equipmentColumns, ", ")...).From("equipment").OrderBy("created_at DESC")
	if filter.Department != "" {
		builder = builder.Where(sq.Eq{"department": filter.Department})
	}
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.TeamID != "" {
		builder = builder.Where(sq.Eq{"maintenance_team_id": filter.TeamID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build equipment list: %w", err)
	}
	items := make([]models.Equipment, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return items, nil
}

// FindByID returns equipment by identifier.
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 LIMIT 1`
	var eq models.Equipment
	if err := r.db.GetContext(ctx, &eq, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find equipment by id: %w", err)
	}
	return &eq, nil
}

// FindByIDs returns the equipment matching ids; unknown ids are skipped.
func (r *EquipmentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Equipment, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []models.Equipment{}, nil
	}
	const query = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = ANY($1)`
	items := make([]models.Equipment, 0, len(ids))
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find equipment by ids: %w", err)
	}
	return items, nil
}

// Create inserts new equipment.
func (r *EquipmentRepository) Create(ctx context.Context, eq *models.Equipment) error {
	if eq.ID == "" {
		eq.ID = uuid.NewString()
	}
	ts := now()
	if eq.CreatedAt.IsZero() {
		eq.CreatedAt = ts
	}
	eq.UpdatedAt = ts

	const query = `INSERT INTO equipment (` + equipmentColumns + `) VALUES (:id, :name, :serial_number, :category, :department, :assigned_employee_id, :maintenance_team_id, :assigned_technician_id, :purchase_date, :warranty_expiry_date, :location, :description, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, eq); err != nil {
		return fmt.Errorf("create equipment: %w", translateUnique(err))
	}
	return nil
}

// scrapExempt are the request statuses a scrap cascade leaves untouched.
var scrapExempt = []string{string(models.StatusRepaired), string(models.StatusScrap)}

const updateEquipmentQuery = `UPDATE equipment SET name = :name, serial_number = :serial_number, category = :category, department = :department, assigned_employee_id = :assigned_employee_id, maintenance_team_id = :maintenance_team_id, assigned_technician_id = :assigned_technician_id, purchase_date = :purchase_date, warranty_expiry_date = :warranty_expiry_date, location = :location, description = :description, status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`

// Update writes every mutable field of the equipment.
func (r *EquipmentRepository) Update(ctx context.Context, eq *models.Equipment) error {
	eq.UpdatedAt = now()
	res, err := r.db.NamedExecContext(ctx, updateEquipmentQuery, eq)
	if err != nil {
		return fmt.Errorf("update equipment: %w", translateUnique(err))
	}
	return expectAffected(res)
}

// Delete physically removes equipment. Referenced equipment fails on the
// foreign key; callers check references first.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return sql.ErrNoRows
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return expectAffected(res)
}

// Scrap locks the equipment row, applies mutate, and forces every open
// request on it to Scrap inside a single transaction.
func (r *EquipmentRepository) Scrap(ctx context.Context, id string, mutate func(*models.Equipment) error) (result *models.Equipment, cascaded int, err error) {
	if !validID(id) {
		return nil, 0, sql.ErrNoRows
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin scrap tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var eq models.Equipment
	const lockQuery = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &eq, lockQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("lock equipment: %w", err)
	}

	if err = mutate(&eq); err != nil {
		return nil, 0, err
	}
	eq.UpdatedAt = now()
	if _, err = tx.NamedExecContext(ctx, updateEquipmentQuery, &eq); err != nil {
		return nil, 0, fmt.Errorf("update scrapped equipment: %w", err)
	}

	cascade, args, err := psql.Update("maintenance_requests").
		Set("status", models.StatusScrap).
		Set("updated_at", eq.UpdatedAt).
		Where(sq.Eq{"equipment_id": id}).
		Where(sq.NotEq{"status": scrapExempt}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build scrap cascade: %w", err)
	}
	res, err := tx.ExecContext(ctx, cascade, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("cascade scrap: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("cascade rows affected: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit scrap: %w", err)
	}
	return &eq, int(affected), nil
}
