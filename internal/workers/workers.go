// Package workers runs scheduled maintenance jobs.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type StreakExpirer interface {
	ExpireBrokenStreaks(ctx context.Context, today time.Time) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	expirer StreakExpirer
	clock   func() time.Time
	log     *zap.Logger
}

// NewScheduler builds a scheduler whose schedules are read in UTC, the same
// calendar the check-in streaks use.
func NewScheduler(expirer StreakExpirer, clock func() time.Time, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		expirer: expirer,
		clock:   clock,
		log:     log.Named("workers"),
	}
}

// Start registers the jobs and starts the cron loop. Jobs run with ctx and stop
// seeing new work once it is cancelled.
func (s *Scheduler) Start(ctx context.Context, streakExpirySpec string) error {
	if _, err := s.cron.AddFunc(streakExpirySpec, func() { s.ExpireStreaks(ctx) }); err != nil {
		return fmt.Errorf("invalid streak expiry schedule %q: %w", streakExpirySpec, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.String("streak_expiry", streakExpirySpec))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// ExpireStreaks zeroes streaks that were broken before today.
func (s *Scheduler) ExpireStreaks(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := s.clock()
	n, err := s.expirer.ExpireBrokenStreaks(ctx, start)
	if err != nil {
		s.log.Error("streak expiry failed", zap.Error(err))
		return
	}

	s.log.Info("streak expiry finished",
		zap.Int64("expired", n),
		zap.Duration("took", s.clock().Sub(start)),
	)
}
