package autorun

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler re-runs a job on a cron schedule. It uses the standard
// five-field cron syntax.
type Scheduler struct {
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewScheduler creates a scheduler for the given cron expression. The
// expression is validated eagerly so misconfiguration surfaces at startup.
func NewScheduler(schedule string, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{schedule: schedule, logger: logger}, nil
}

// Start begins running job on the schedule until the context is cancelled.
// Job errors are logged, never fatal.
func (s *Scheduler) Start(ctx context.Context, job func(ctx context.Context) error) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.logger.Info("scheduled cycle starting", "schedule", s.schedule)
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("registering schedule: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule)

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
	return nil
}
