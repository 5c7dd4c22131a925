package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/rules"
)

const requestColumns = "id, request_number, type, subject, description, equipment_id, equipment_category, maintenance_team_id, created_by_id, assigned_to_id, status, priority, scheduled_date, start_date, completion_date, duration, estimated_duration, cost, parts, notes, is_overdue, attachments, created_at, updated_at"

// requestNumberLock serialises request number allocation across connections.
const requestNumberLock = 7_410_001

// MaintenanceRequestRepository provides database access for maintenance requests.
type MaintenanceRequestRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRequestRepository creates a new instance of MaintenanceRequestRepository.
func NewMaintenanceRequestRepository(db *sqlx.DB) *MaintenanceRequestRepository {
	return &MaintenanceRequestRepository{db: db}
}

func applyRequestFilter(builder sq.SelectBuilder, filter models.RequestFilter) sq.SelectBuilder {
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"type": filter.Type})
	}
	if filter.EquipmentID != "" {
		builder = builder.Where(sq.Eq{"equipment_id": filter.EquipmentID})
	}
	if filter.TeamID != "" {
		builder = builder.Where(sq.Eq{"maintenance_team_id": filter.TeamID})
	}
	if filter.Priority != "" {
		builder = builder.Where(sq.Eq{"priority": filter.Priority})
	}
	if len(filter.StatusIn) > 0 {
		builder = builder.Where(sq.Eq{"status": statusStrings(filter.StatusIn)})
	}
	if len(filter.ExcludeStatuses) > 0 {
		builder = builder.Where(sq.NotEq{"status": statusStrings(filter.ExcludeStatuses)})
	}
	if w := filter.Window; w != nil {
		builder = builder.Where(sq.Or{
			sq.And{sq.GtOrEq{"scheduled_date": w.From}, sq.LtOrEq{"scheduled_date": w.To}},
			sq.And{sq.GtOrEq{"created_at": w.From}, sq.LtOrEq{"created_at": w.To}},
		})
	}
	return builder
}

func statusStrings(statuses []models.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// List returns requests matching every supplied filter.
func (r *MaintenanceRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, error) {
	if filter.EquipmentID != "" && !validID(filter.EquipmentID) || filter.TeamID != "" && !validID(filter.TeamID) {
		return []models.MaintenanceRequest{}, nil
	}
	builder := applyRequestFilter(psql.Select(strings.Split(requestColumns, ", ")...).From("maintenance_requests"), filter)
	switch filter.Sort {
	case models.SortScheduledAsc:
		builder = builder.OrderBy("scheduled_date ASC NULLS LAST", "created_at DESC")
	default:
		builder = builder.OrderBy("created_at DESC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build request list: %w", err)
	}
	items := make([]models.MaintenanceRequest, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return items, nil
}

// Count returns how many requests match filter.
func (r *MaintenanceRequestRepository) Count(ctx context.Context, filter models.RequestFilter) (int, error) {
	if filter.EquipmentID != "" && !validID(filter.EquipmentID) || filter.TeamID != "" && !validID(filter.TeamID) {
		return 0, nil
	}
	query, args, err := applyRequestFilter(psql.Select("COUNT(*)").From("maintenance_requests"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build request count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return total, nil
}

// FindByID returns a request by identifier.
func (r *MaintenanceRequestRepository) FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE id = $1 LIMIT 1`
	var req models.MaintenanceRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	return &req, nil
}

// CreateNumbered inserts req after numbering it from the current row count.
// An advisory lock keeps concurrent creations from reading the same count.
// A number left in use by earlier deletions is skipped.
func (r *MaintenanceRequestRepository) CreateNumbered(ctx context.Context, req *models.MaintenanceRequest, number func(existing int) string) (err error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ts := now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = ts
	}
	req.UpdatedAt = ts

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, requestNumberLock); err != nil {
		return fmt.Errorf("lock request numbering: %w", err)
	}
	var existing int
	if err = tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM maintenance_requests`); err != nil {
		return fmt.Errorf("count requests: %w", err)
	}
	if req.RequestNumber == "" {
		// Deletions shrink the count, so step past numbers still in use.
		for seq := existing; seq <= 2*existing; seq++ {
			req.RequestNumber = number(seq)
			var taken bool
			if err = tx.GetContext(ctx, &taken, `SELECT EXISTS(SELECT 1 FROM maintenance_requests WHERE request_number = $1)`, req.RequestNumber); err != nil {
				return fmt.Errorf("check request number: %w", err)
			}
			if !taken {
				break
			}
		}
	}

	const query = `INSERT INTO maintenance_requests (` + requestColumns + `) VALUES (:id, :request_number, :type, :subject, :description, :equipment_id, :equipment_category, :maintenance_team_id, :created_by_id, :assigned_to_id, :status, :priority, :scheduled_date, :start_date, :completion_date, :duration, :estimated_duration, :cost, :parts, :notes, :is_overdue, :attachments, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create request: %w", translateUnique(err))
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit request: %w", err)
	}
	return nil
}

// Update writes every mutable field. The request number is never rewritten.
func (r *MaintenanceRequestRepository) Update(ctx context.Context, req *models.MaintenanceRequest) error {
	req.UpdatedAt = now()
	const query = `UPDATE maintenance_requests SET type = :type, subject = :subject, description = :description, assigned_to_id = :assigned_to_id, status = :status, priority = :priority, scheduled_date = :scheduled_date, start_date = :start_date, completion_date = :completion_date, duration = :duration, estimated_duration = :estimated_duration, cost = :cost, parts = :parts, notes = :notes, is_overdue = :is_overdue, attachments = :attachments, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, req)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return expectAffected(res)
}

// Delete physically removes a request.
func (r *MaintenanceRequestRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return sql.ErrNoRows
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return expectAffected(res)
}

// CountBy aggregates non-scrapped requests per team or category, largest first.
func (r *MaintenanceRequestRepository) CountBy(ctx context.Context, group models.RequestGroup) ([]models.GroupCount, error) {
	column := "maintenance_team_id::text"
	if group == models.GroupByCategory {
		column = "equipment_category"
	}
	query, args, err := psql.
		Select(
			column+" AS key",
			"COUNT(*) AS count",
			"COUNT(*) FILTER (WHERE status IN ('"+strings.Join(statusStrings(rules.ReportOpenStatuses), "', '")+"')) AS open_count",
		).
		From("maintenance_requests").
		Where(sq.NotEq{"status": string(models.StatusScrap)}).
		GroupBy(column).
		OrderBy("count DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build request aggregation: %w", err)
	}
	groups := make([]models.GroupCount, 0)
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate requests by %s: %w", group, err)
	}
	return groups, nil
}
