package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lmsops/lp-reset-api/internal/models"
)

const scheduleColumns = `id, name, audience_mode, frequency_kind, frequency_params, created_at,
	email_enabled, days_in_advance, notification_subject, notification_template,
	after_run_subject, after_run_template, last_run, last_notification`

// ScheduleRepository provides persistence for reset schedules and their
// audience/object detail rows.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules with pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"created_at": true,
		"last_run":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM schedules ORDER BY %s %s LIMIT %d OFFSET %d", scheduleColumns, sortBy, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM schedules"); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// ListNonManual returns every schedule the periodic pass must evaluate.
func (r *ScheduleRepository) ListNonManual(ctx context.Context) ([]models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE frequency_kind <> $1 ORDER BY id ASC", scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, models.FrequencyManual); err != nil {
		return nil, fmt.Errorf("list non-manual schedules: %w", err)
	}
	return schedules, nil
}

// FindByID loads a schedule base row by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// LoadDetails populates selected objects and the audience rows for the
// schedule's mode. The other audience tables are ignored, matching the
// "authoritative table per mode" convention.
func (r *ScheduleRepository) LoadDetails(ctx context.Context, sched *models.Schedule) error {
	if err := r.db.SelectContext(ctx, &sched.SelectedObjects,
		`SELECT object_ref FROM selected_objects WHERE schedule_id = $1 ORDER BY object_ref ASC`, sched.ID); err != nil {
		return fmt.Errorf("load selected objects: %w", err)
	}

	switch sched.AudienceMode {
	case models.AudienceSpecific:
		if err := r.db.SelectContext(ctx, &sched.AudienceUserIDs,
			`SELECT user_id FROM selected_users WHERE schedule_id = $1 ORDER BY user_id ASC`, sched.ID); err != nil {
			return fmt.Errorf("load selected users: %w", err)
		}
	case models.AudienceByRole:
		if err := r.db.SelectContext(ctx, &sched.AudienceRoleIDs,
			`SELECT role_id FROM selected_roles WHERE schedule_id = $1 ORDER BY role_id ASC`, sched.ID); err != nil {
			return fmt.Errorf("load selected roles: %w", err)
		}
	case models.AudienceAllExcept:
		if err := r.db.SelectContext(ctx, &sched.ExcludedUserIDs,
			`SELECT user_id FROM excluded_users WHERE schedule_id = $1 ORDER BY user_id ASC`, sched.ID); err != nil {
			return fmt.Errorf("load excluded users: %w", err)
		}
	}
	return nil
}

// Create inserts a schedule and its detail rows in one transaction. The
// assigned id is written back to the schedule.
func (r *ScheduleRepository) Create(ctx context.Context, sched *models.Schedule) error {
	if sched.CreatedAt.IsZero() {
		sched.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO schedules
		(name, audience_mode, frequency_kind, frequency_params, created_at,
		 email_enabled, days_in_advance, notification_subject, notification_template,
		 after_run_subject, after_run_template)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err = tx.GetContext(ctx, &sched.ID, query,
		sched.Name, sched.AudienceMode, sched.FrequencyKind, sched.FrequencyParams, sched.CreatedAt,
		sched.EmailEnabled, sched.DaysInAdvance, sched.NotificationSubject, sched.NotificationTemplate,
		sched.AfterRunSubject, sched.AfterRunTemplate); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	if err = r.replaceDetails(ctx, tx, sched); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create schedule: %w", err)
	}
	return nil
}

// Update rewrites a schedule and replaces its detail rows.
func (r *ScheduleRepository) Update(ctx context.Context, sched *models.Schedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE schedules SET
		name = $1, audience_mode = $2, frequency_kind = $3, frequency_params = $4,
		email_enabled = $5, days_in_advance = $6,
		notification_subject = $7, notification_template = $8,
		after_run_subject = $9, after_run_template = $10
		WHERE id = $11`
	if _, err = tx.ExecContext(ctx, query,
		sched.Name, sched.AudienceMode, sched.FrequencyKind, sched.FrequencyParams,
		sched.EmailEnabled, sched.DaysInAdvance,
		sched.NotificationSubject, sched.NotificationTemplate,
		sched.AfterRunSubject, sched.AfterRunTemplate, sched.ID); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}

	if err = r.replaceDetails(ctx, tx, sched); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) replaceDetails(ctx context.Context, tx *sqlx.Tx, sched *models.Schedule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM selected_objects WHERE schedule_id = $1`, sched.ID); err != nil {
		return fmt.Errorf("clear selected objects: %w", err)
	}
	for _, ref := range sched.SelectedObjects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO selected_objects (schedule_id, object_ref) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			sched.ID, ref); err != nil {
			return fmt.Errorf("insert selected object: %w", err)
		}
	}

	// Only the table matching the audience mode is rewritten; stale rows in
	// the other tables are harmless and ignored on load.
	switch sched.AudienceMode {
	case models.AudienceSpecific:
		if _, err := tx.ExecContext(ctx, `DELETE FROM selected_users WHERE schedule_id = $1`, sched.ID); err != nil {
			return fmt.Errorf("clear selected users: %w", err)
		}
		for _, userID := range sched.AudienceUserIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO selected_users (schedule_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				sched.ID, userID); err != nil {
				return fmt.Errorf("insert selected user: %w", err)
			}
		}
	case models.AudienceByRole:
		if _, err := tx.ExecContext(ctx, `DELETE FROM selected_roles WHERE schedule_id = $1`, sched.ID); err != nil {
			return fmt.Errorf("clear selected roles: %w", err)
		}
		for _, roleID := range sched.AudienceRoleIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO selected_roles (schedule_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				sched.ID, roleID); err != nil {
				return fmt.Errorf("insert selected role: %w", err)
			}
		}
	case models.AudienceAllExcept:
		if _, err := tx.ExecContext(ctx, `DELETE FROM excluded_users WHERE schedule_id = $1`, sched.ID); err != nil {
			return fmt.Errorf("clear excluded users: %w", err)
		}
		for _, userID := range sched.ExcludedUserIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO excluded_users (schedule_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				sched.ID, userID); err != nil {
				return fmt.Errorf("insert excluded user: %w", err)
			}
		}
	}
	return nil
}

// Delete removes a schedule; detail rows cascade via foreign keys.
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// StampLastRun records the completion instant of a successful run. The
// column only ever moves forward because callers always stamp "now".
func (r *ScheduleRepository) StampLastRun(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE schedules SET last_run = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("stamp last run: %w", err)
	}
	return nil
}

// StampLastNotification records the completion instant of a notification pass.
func (r *ScheduleRepository) StampLastNotification(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE schedules SET last_notification = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("stamp last notification: %w", err)
	}
	return nil
}
