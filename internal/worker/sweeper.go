package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/habit-tracker/internal/metrics"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// OrphanCheckDeleter removes checks whose habit no longer exists
type OrphanCheckDeleter interface {
	DeleteOrphans(ctx context.Context) (int64, error)
}

// SessionPurger drops expired sessions from a process-local store
type SessionPurger interface {
	Purge() int
}

// Sweeper periodically deletes orphaned habit checks and, when sessions are
// kept in memory, expired sessions. Redis expires its sessions on its own.
type Sweeper struct {
	checks   OrphanCheckDeleter
	sessions SessionPurger
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewSweeper creates a sweeper running on a cron schedule such as
// "@every 1h". sessions may be nil.
func NewSweeper(
	checks OrphanCheckDeleter,
	sessions SessionPurger,
	schedule string,
	logger *logrus.Logger,
) *Sweeper {
	return &Sweeper{
		checks:   checks,
		sessions: sessions,
		cron:     cron.New(),
		schedule: schedule,
		timeout:  time.Minute,
		logger:   logger,
	}
}

// Start registers the sweep job and starts the scheduler
func (w *Sweeper) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.run); err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	w.logger.WithField("schedule", w.schedule).Info("Sweeper started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (w *Sweeper) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("Sweeper stopped")
}

func (w *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.Sweep(ctx); err != nil {
		w.logger.WithError(err).Error("Sweeper: failed to delete orphan checks")
	}
}

// Sweep performs one pass and returns the number of orphan checks deleted
func (w *Sweeper) Sweep(ctx context.Context) (int64, error) {
	if w.sessions != nil {
		if n := w.sessions.Purge(); n > 0 {
			w.logger.WithField("count", n).Debug("Sweeper: purged expired sessions")
		}
	}

	removed, err := w.checks.DeleteOrphans(ctx)
	if err != nil {
		return 0, err
	}
	metrics.RecordSweptChecks(removed)
	if removed > 0 {
		w.logger.WithField("count", removed).Info("Sweeper: deleted orphan checks")
	}
	return removed, nil
}
