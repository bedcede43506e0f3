package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Purger is implemented by backends that accumulate expired rows and need
// periodic reclamation. The memory store sweeps itself; the SQLite store
// relies on the Sweeper.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Sweeper runs PurgeExpired on a cron schedule (e.g. hourly) so that
// expired session and counter rows do not accumulate in durable backends.
type Sweeper struct {
	purger   Purger
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	mu       sync.Mutex
	running  bool
}

// NewSweeper creates a sweeper that purges the given backend on the given
// cron schedule. Common schedules:
//
//   - "@hourly"     - every hour on the hour
//   - "15 * * * *"  - fifteen past every hour
//   - "0 3 * * *"   - daily at 3 AM
func NewSweeper(purger Purger, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		purger:   purger,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "kvstore.sweeper"),
	}
}

// Start begins scheduled purging. If the schedule is empty the sweeper does
// nothing. Stops automatically when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("purge schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runPurge(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("store sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runPurge executes a single purge cycle.
func (s *Sweeper) runPurge(ctx context.Context) {
	deleted, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("scheduled purge failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled purge completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled purge completed, no rows deleted")
	}
}

// Stop stops the scheduler and waits for any running purge to complete.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("store sweeper stopped")
	}
}
