// Package refresh periodically rebuilds stored scores. Decay is measured
// against the current time, so persisted scores drift out of date even when
// no new workouts arrive.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"example.com/physique/internal/domain"
)

// DefaultSchedule runs daily at 03:00 (seconds-enabled cron syntax).
const DefaultSchedule = "0 0 3 * * *"

// Recalculator is the subset of domain.Service the scheduler drives.
type Recalculator interface {
	Users(ctx context.Context) ([]string, error)
	RecalculateStored(ctx context.Context, userID string) (*domain.Result, error)
}

// Report summarises one refresh pass.
type Report struct {
	Users    int
	Failed   []string
	Duration time.Duration
}

// Scheduler runs RunOnce on a cron schedule.
type Scheduler struct {
	svc      Recalculator
	schedule string
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *rcron.Cron
	running sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSchedule overrides DefaultSchedule.
func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler constructs a Scheduler.
func NewScheduler(svc Recalculator, opts ...Option) *Scheduler {
	s := &Scheduler{svc: svc, schedule: DefaultSchedule, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the refresh job and starts the cron runner. Jobs run with
// ctx; an overlapping run is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("refresh: scheduler already started")
	}

	c := rcron.New(rcron.WithSeconds(), rcron.WithChain(rcron.SkipIfStillRunning(rcron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("refresh: run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("refresh: invalid schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("refresh: scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts the cron runner and waits for a running job to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce recalculates every user with stored history. Per-user failures are
// logged and reported; they do not stop the pass.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	s.running.Lock()
	defer s.running.Unlock()

	started := time.Now()
	users, err := s.svc.Users(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("refresh: list users: %w", err)
	}

	report := Report{Users: len(users)}
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := s.svc.RecalculateStored(ctx, userID); err != nil {
			s.logger.Warn("refresh: recalculation failed", "user_id", userID, "error", err)
			report.Failed = append(report.Failed, userID)
		}
	}
	report.Duration = time.Since(started)
	s.logger.Info("refresh: pass complete", "users", report.Users, "failed", len(report.Failed), "duration", report.Duration)
	return report, nil
}
