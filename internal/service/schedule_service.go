package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lmsops/lp-reset-api/internal/dto"
	"github.com/lmsops/lp-reset-api/internal/models"
	"github.com/lmsops/lp-reset-api/internal/platform"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
)

type scheduleStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id int64) (*models.Schedule, error)
	LoadDetails(ctx context.Context, sched *models.Schedule) error
	Create(ctx context.Context, sched *models.Schedule) error
	Update(ctx context.Context, sched *models.Schedule) error
	Delete(ctx context.Context, id int64) error
}

// ScheduleService owns schedule CRUD and the read models the configuration
// UI needs.
type ScheduleService struct {
	repo      scheduleStore
	lookup    platform.ObjectLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service with defaults.
func NewScheduleService(repo scheduleStore, lookup platform.ObjectLookup, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, lookup: lookup, validator: validate, logger: logger}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, *models.Pagination, error) {
	filter := models.ScheduleFilter{
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	for i := range schedules {
		if err := s.repo.LoadDetails(ctx, &schedules[i]); err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule details")
		}
		schedules[i].AudienceLabel = describeAudience(&schedules[i])
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return schedules, pagination, nil
}

// Get loads one schedule including its selected objects and audience rows.
func (s *ScheduleService) Get(ctx context.Context, id int64) (*models.Schedule, error) {
	sched, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.repo.LoadDetails(ctx, sched); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule details")
	}
	sched.AudienceLabel = describeAudience(sched)
	return sched, nil
}

// Create validates and persists a new schedule.
func (s *ScheduleService) Create(ctx context.Context, req dto.SchedulePayload) (*models.Schedule, error) {
	sched, err := s.fromPayload(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sched); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	s.logger.Info("schedule created", zap.Int64("schedule_id", sched.ID), zap.String("name", sched.Name))
	return sched, nil
}

// Update replaces an existing schedule's configuration. The creation
// timestamp and run/notification stamps are preserved.
func (s *ScheduleService) Update(ctx context.Context, id int64, req dto.SchedulePayload) (*models.Schedule, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	sched, err := s.fromPayload(req)
	if err != nil {
		return nil, err
	}
	sched.ID = existing.ID
	sched.CreatedAt = existing.CreatedAt
	sched.LastRun = existing.LastRun
	sched.LastNotification = existing.LastNotification

	if err := s.repo.Update(ctx, sched); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	s.logger.Info("schedule updated", zap.Int64("schedule_id", sched.ID))
	return sched, nil
}

// Delete removes a schedule. History rows survive by design.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.logger.Info("schedule deleted", zap.Int64("schedule_id", id))
	return nil
}

// ObjectDisplays resolves titles and types for the given references, for
// the selected-objects picker and list views. Unresolvable references are
// skipped rather than failing the whole view.
func (s *ScheduleService) ObjectDisplays(ctx context.Context, refIDs []int64) ([]models.ObjectDisplay, error) {
	displays := make([]models.ObjectDisplay, 0, len(refIDs))
	for _, refID := range refIDs {
		objectID, err := s.lookup.ObjectID(ctx, refID)
		if err != nil {
			s.logger.Warn("skipping unresolvable object reference", zap.Int64("ref_id", refID), zap.Error(err))
			continue
		}
		objectType, err := s.lookup.Type(ctx, objectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve object type")
		}
		title, err := s.lookup.Title(ctx, objectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve object title")
		}
		displays = append(displays, models.ObjectDisplay{RefID: refID, Type: objectType, Title: title})
	}
	return displays, nil
}

// describeAudience renders the configured audience for list and detail views.
func describeAudience(sched *models.Schedule) string {
	switch sched.AudienceMode {
	case models.AudienceAll:
		return "all users with progress"
	case models.AudienceSpecific:
		return fmt.Sprintf("%d selected users", len(sched.AudienceUserIDs))
	case models.AudienceByRole:
		return fmt.Sprintf("members of %d roles", len(sched.AudienceRoleIDs))
	case models.AudienceAllExcept:
		return fmt.Sprintf("all users except %d", len(sched.ExcludedUserIDs))
	default:
		return ""
	}
}

func (s *ScheduleService) fromPayload(req dto.SchedulePayload) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	mode := models.AudienceMode(req.AudienceMode)
	if !mode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown audience mode")
	}
	kind := models.FrequencyKind(req.FrequencyKind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown frequency kind")
	}

	// Audience data is only accepted for the mode that owns it.
	if len(req.AudienceUserIDs) > 0 && mode != models.AudienceSpecific {
		return nil, appErrors.Clone(appErrors.ErrValidation, "audience user ids require the specific-users mode")
	}
	if len(req.AudienceRoleIDs) > 0 && mode != models.AudienceByRole {
		return nil, appErrors.Clone(appErrors.ErrValidation, "audience role ids require the by-role mode")
	}
	if len(req.ExcludedUserIDs) > 0 && mode != models.AudienceAllExcept {
		return nil, appErrors.Clone(appErrors.ErrValidation, "excluded user ids require the all-except mode")
	}

	return &models.Schedule{
		Name:          req.Name,
		AudienceMode:  mode,
		FrequencyKind: kind,
		FrequencyParams: models.FrequencyParams{
			Interval: req.FrequencyParams.Interval,
			Day:      req.FrequencyParams.Day,
			Month:    req.FrequencyParams.Month,
		},
		EmailEnabled:         req.EmailEnabled,
		DaysInAdvance:        req.DaysInAdvance,
		NotificationSubject:  req.NotificationSubject,
		NotificationTemplate: req.NotificationTemplate,
		AfterRunSubject:      req.AfterRunSubject,
		AfterRunTemplate:     req.AfterRunTemplate,
		SelectedObjects:      req.SelectedObjects,
		AudienceUserIDs:      req.AudienceUserIDs,
		AudienceRoleIDs:      req.AudienceRoleIDs,
		ExcludedUserIDs:      req.ExcludedUserIDs,
	}, nil
}
