package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lmsops/lp-reset-api/internal/models"
	"github.com/lmsops/lp-reset-api/internal/platform"
	appErrors "github.com/lmsops/lp-reset-api/pkg/errors"
	"github.com/lmsops/lp-reset-api/pkg/lock"
)

type scheduleRunStore interface {
	FindByID(ctx context.Context, id int64) (*models.Schedule, error)
	LoadDetails(ctx context.Context, sched *models.Schedule) error
	StampLastRun(ctx context.Context, id int64, at time.Time) error
	StampLastNotification(ctx context.Context, id int64, at time.Time) error
}

type historyStore interface {
	Insert(ctx context.Context, result *models.ExecutionResult) error
}

type targetResolver interface {
	Resolve(ctx context.Context, roots []int64) ([]models.TargetObject, error)
}

type audienceResolver interface {
	Resolve(ctx context.Context, sched *models.Schedule, objectID int64) ([]int64, error)
}

// ExecutionService performs reset runs and notification passes. A run is
// all-or-nothing per schedule: if any target fails, nothing is stamped and
// no history row is written.
type ExecutionService struct {
	schedules scheduleRunStore
	history   historyStore
	targets   targetResolver
	audiences audienceResolver
	progress  platform.LearningProgress
	lookup    platform.ObjectLookup
	users     platform.UserDirectory
	mail      platform.Mailer
	locker    lock.Locker
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// ExecutionServiceOption configures the service.
type ExecutionServiceOption func(*ExecutionService)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ExecutionServiceOption {
	return func(s *ExecutionService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches run instrumentation.
func WithMetrics(metrics *MetricsService) ExecutionServiceOption {
	return func(s *ExecutionService) { s.metrics = metrics }
}

// NewExecutionService constructs the service with defaults.
func NewExecutionService(
	schedules scheduleRunStore,
	history historyStore,
	targets targetResolver,
	audiences audienceResolver,
	progress platform.LearningProgress,
	lookup platform.ObjectLookup,
	users platform.UserDirectory,
	mail platform.Mailer,
	locker lock.Locker,
	logger *zap.Logger,
	opts ...ExecutionServiceOption,
) *ExecutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ExecutionService{
		schedules: schedules,
		history:   history,
		targets:   targets,
		audiences: audiences,
		progress:  progress,
		lookup:    lookup,
		users:     users,
		mail:      mail,
		locker:    locker,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Run executes one reset for the schedule and records the result. A
// concurrent run of the same schedule is rejected with a RUN_LOCKED error
// instead of resetting the same data twice.
func (s *ExecutionService) Run(ctx context.Context, scheduleID int64, method models.ExecutionMethod) (*models.ExecutionResult, error) {
	release, err := s.locker.Acquire(ctx, fmt.Sprintf("schedule-run:%d", scheduleID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, appErrors.Clone(appErrors.ErrRunLocked, "schedule run already in progress")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire run lock")
	}
	defer release()

	sched, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	started := s.now()
	result, err := s.execute(ctx, sched, method, started)
	if err != nil {
		s.metrics.ObserveRun(method.String(), "failure", 0)
		return nil, err
	}

	finished := s.now()
	result.DurationMS = finished.Sub(started).Milliseconds()

	if err := s.schedules.StampLastRun(ctx, sched.ID, finished); err != nil {
		s.metrics.ObserveRun(method.String(), "failure", 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stamp last run")
	}
	if err := s.history.Insert(ctx, result); err != nil {
		s.metrics.ObserveRun(method.String(), "failure", 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record execution")
	}

	s.metrics.ObserveRun(method.String(), "success", finished.Sub(started))
	s.metrics.ObserveAffectedUsers(len(result.AffectedUsers))
	s.logger.Info("reset run completed",
		zap.Int64("schedule_id", sched.ID),
		zap.String("method", method.String()),
		zap.Int("affected_users", len(result.AffectedUsers)),
		zap.Int("affected_objects", len(result.AffectedObjects)),
		zap.Int64("duration_ms", result.DurationMS))

	s.sendAfterRun(ctx, sched, result.AffectedUsers)

	return result, nil
}

// execute performs the reset pass over every target. No state is persisted
// here; the caller stamps and records only after full success.
func (s *ExecutionService) execute(ctx context.Context, sched *models.Schedule, method models.ExecutionMethod, started time.Time) (*models.ExecutionResult, error) {
	targets, err := s.targets.Resolve(ctx, sched.SelectedObjects)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve target objects")
	}

	affected := make(map[int64]bool)
	objects := make([]int64, 0, len(targets))
	for _, target := range targets {
		objectID, err := s.lookup.ObjectID(ctx, target.RefID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve target object id")
		}

		userIDs, err := s.audiences.Resolve(ctx, sched, objectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve audience")
		}

		// Assessments need their hierarchy reference bound before their
		// attempt data can be cleared.
		if target.Type == models.TypeAssessment {
			if err := s.progress.BindAssessment(ctx, objectID, target.RefID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to bind assessment")
			}
		}

		if sched.AudienceMode == models.AudienceAll {
			err = s.progress.ResetForAllUsers(ctx, objectID)
		} else {
			err = s.progress.ResetForUsers(ctx, objectID, userIDs)
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "progress reset failed")
		}

		for _, userID := range userIDs {
			affected[userID] = true
		}
		objects = append(objects, target.RefID)
	}

	users := make([]int64, 0, len(affected))
	for userID := range affected {
		users = append(users, userID)
	}

	return &models.ExecutionResult{
		ScheduleID:      sched.ID,
		Date:            started,
		Method:          method,
		AffectedUsers:   sortedUnique(users),
		AffectedObjects: objects,
	}, nil
}

// Notify sends the advance notification for a schedule and stamps
// last_notification. A schedule with an empty subject or empty template is
// a silent no-op.
func (s *ExecutionService) Notify(ctx context.Context, scheduleID int64) error {
	sched, err := s.load(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sched.NotificationSubject == "" || sched.NotificationTemplate == "" {
		return nil
	}

	next, hasNext := NextRun(sched)
	sent, err := s.mailAudience(ctx, sched, sched.NotificationSubject, sched.NotificationTemplate, next, hasNext)
	if err != nil {
		return err
	}

	if err := s.schedules.StampLastNotification(ctx, sched.ID, s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stamp last notification")
	}
	s.metrics.AddNotificationsSent(sent)
	s.logger.Info("advance notification sent", zap.Int64("schedule_id", sched.ID), zap.Int("recipients", sent))
	return nil
}

// sendAfterRun informs the affected users that their progress was reset.
// Failures are logged and swallowed: the run itself already succeeded and
// is recorded.
func (s *ExecutionService) sendAfterRun(ctx context.Context, sched *models.Schedule, userIDs []int64) {
	if !sched.EmailEnabled || sched.AfterRunSubject == "" || sched.AfterRunTemplate == "" {
		return
	}
	next, hasNext := NextRun(sched)
	sent := 0
	for _, userID := range userIDs {
		user, err := s.users.User(ctx, userID)
		if err != nil {
			s.logger.Warn("skipping after-run mail, user lookup failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		if user.Email == "" {
			continue
		}
		subject := renderPlaceholders(sched.AfterRunSubject, user, next, hasNext)
		body := renderPlaceholders(sched.AfterRunTemplate, user, next, hasNext)
		if err := s.mail.Enqueue(user.Email, subject, body); err != nil {
			s.logger.Warn("after-run mail enqueue failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		sent++
	}
	s.metrics.AddNotificationsSent(sent)
}

// mailAudience resolves the union of audiences across all targets and sends
// one rendered message per user.
func (s *ExecutionService) mailAudience(ctx context.Context, sched *models.Schedule, subject, template string, next time.Time, hasNext bool) (int, error) {
	targets, err := s.targets.Resolve(ctx, sched.SelectedObjects)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve target objects")
	}

	recipients := make(map[int64]bool)
	for _, target := range targets {
		objectID, err := s.lookup.ObjectID(ctx, target.RefID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve target object id")
		}
		userIDs, err := s.audiences.Resolve(ctx, sched, objectID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to resolve audience")
		}
		for _, userID := range userIDs {
			recipients[userID] = true
		}
	}

	ordered := make([]int64, 0, len(recipients))
	for userID := range recipients {
		ordered = append(ordered, userID)
	}

	sent := 0
	for _, userID := range sortedUnique(ordered) {
		user, err := s.users.User(ctx, userID)
		if err != nil {
			s.logger.Warn("skipping notification, user lookup failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		if user.Email == "" {
			continue
		}
		renderedSubject := renderPlaceholders(subject, user, next, hasNext)
		renderedBody := renderPlaceholders(template, user, next, hasNext)
		if err := s.mail.Enqueue(user.Email, renderedSubject, renderedBody); err != nil {
			return sent, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "failed to enqueue notification mail")
		}
		sent++
	}
	return sent, nil
}

func (s *ExecutionService) load(ctx context.Context, scheduleID int64) (*models.Schedule, error) {
	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.schedules.LoadDetails(ctx, sched); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule details")
	}
	return sched, nil
}
