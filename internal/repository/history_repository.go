package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lmsops/lp-reset-api/internal/models"
)

// HistoryRepository persists execution results. Rows are append-only; there
// is no update or delete path.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert writes an execution result and its affected-user and
// affected-object rows in one transaction.
func (r *HistoryRepository) Insert(ctx context.Context, result *models.ExecutionResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert execution: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO execution_history (schedule_id, executed_at, method, duration_ms)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err = tx.GetContext(ctx, &result.ID, query,
		result.ScheduleID, result.Date, result.Method, result.DurationMS); err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	for _, userID := range result.AffectedUsers {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO execution_affected_users (execution_id, user_id) VALUES ($1, $2)`,
			result.ID, userID); err != nil {
			return fmt.Errorf("insert affected user: %w", err)
		}
	}
	for _, ref := range result.AffectedObjects {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO execution_affected_objects (execution_id, object_ref) VALUES ($1, $2)`,
			result.ID, ref); err != nil {
			return fmt.Errorf("insert affected object: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert execution: %w", err)
	}
	return nil
}

// List returns execution summaries, newest first. The schedule name is
// joined in; executions of deleted schedules keep their rows and report an
// empty name.
func (r *HistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.ExecutionSummary, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var (
		conditions []string
		args       []interface{}
	)
	if filter.ScheduleID > 0 {
		args = append(args, filter.ScheduleID)
		conditions = append(conditions, fmt.Sprintf("h.schedule_id = $%d", len(args)))
	}
	if filter.Method > 0 {
		args = append(args, filter.Method)
		conditions = append(conditions, fmt.Sprintf("h.method = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + conditions[0]
		for _, c := range conditions[1:] {
			where += " AND " + c
		}
	}

	query := fmt.Sprintf(`SELECT h.id, h.schedule_id, COALESCE(s.name, '') AS schedule_name,
			h.executed_at AS date, h.method, h.duration_ms,
			(SELECT COUNT(*) FROM execution_affected_users au WHERE au.execution_id = h.id) AS user_count,
			(SELECT COUNT(*) FROM execution_affected_objects ao WHERE ao.execution_id = h.id) AS object_count
		FROM execution_history h
		LEFT JOIN schedules s ON s.id = h.schedule_id%s
		ORDER BY h.executed_at DESC, h.id DESC
		LIMIT %d OFFSET %d`, where, size, offset)

	var summaries []models.ExecutionSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list executions: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM execution_history h" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count executions: %w", err)
	}

	return summaries, total, nil
}

// FindByID loads one execution with its affected-user and affected-object
// sets.
func (r *HistoryRepository) FindByID(ctx context.Context, id int64) (*models.ExecutionResult, error) {
	var result models.ExecutionResult
	const query = `SELECT id, schedule_id, executed_at AS date, method, duration_ms
		FROM execution_history WHERE id = $1`
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &result.AffectedUsers,
		`SELECT user_id FROM execution_affected_users WHERE execution_id = $1 ORDER BY user_id ASC`, id); err != nil {
		return nil, fmt.Errorf("load affected users: %w", err)
	}
	if err := r.db.SelectContext(ctx, &result.AffectedObjects,
		`SELECT object_ref FROM execution_affected_objects WHERE execution_id = $1 ORDER BY object_ref ASC`, id); err != nil {
		return nil, fmt.Errorf("load affected objects: %w", err)
	}

	return &result, nil
}
