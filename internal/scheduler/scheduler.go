// Package scheduler drives the periodic pass over all non-manual schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lmsops/lp-reset-api/internal/models"
	"github.com/lmsops/lp-reset-api/internal/service"
)

type scheduleSource interface {
	ListNonManual(ctx context.Context) ([]models.Schedule, error)
}

type executor interface {
	Run(ctx context.Context, scheduleID int64, method models.ExecutionMethod) (*models.ExecutionResult, error)
	Notify(ctx context.Context, scheduleID int64) error
}

type ticker interface {
	ObserveTick()
}

// Scheduler evaluates every non-manual schedule on each cron tick and
// triggers due notifications and runs. Failures are isolated per schedule:
// one broken schedule never blocks the rest of the pass.
type Scheduler struct {
	cron    *cron.Cron
	source  scheduleSource
	exec    executor
	spec    string
	metrics ticker
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches tick instrumentation.
func WithMetrics(metrics ticker) Option {
	return func(s *Scheduler) { s.metrics = metrics }
}

// New constructs a scheduler with the given cron spec (e.g. "@every 1m").
func New(source scheduleSource, exec executor, spec string, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:   cron.New(),
		source: source,
		exec:   exec,
		spec:   spec,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start registers the periodic pass and launches the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Tick(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Tick performs one evaluation pass over all non-manual schedules.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.ObserveTick()
	}
	schedules, err := s.source.ListNonManual(ctx)
	if err != nil {
		s.logger.Error("scheduler pass aborted, cannot list schedules", zap.Error(err))
		return
	}

	now := s.now()
	for i := range schedules {
		sched := &schedules[i]

		// Notification is evaluated against the pre-run state so the
		// advance warning window is not consumed by this tick's run.
		if service.ShouldNotify(sched, now) {
			if err := s.exec.Notify(ctx, sched.ID); err != nil {
				s.logger.Error("notification pass failed", zap.Int64("schedule_id", sched.ID), zap.Error(err))
			}
		}

		if service.ShouldRun(sched, now) {
			if _, err := s.exec.Run(ctx, sched.ID, models.MethodAutomatic); err != nil {
				s.logger.Error("scheduled run failed", zap.Int64("schedule_id", sched.ID), zap.Error(err))
			}
		}
	}
}
