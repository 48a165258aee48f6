// Package worker runs the periodic background jobs.
package worker

import (
	"context"
	"log/slog"
	"time"

	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/commands"

	"github.com/robfig/cron/v3"
)

type HoldExpirer interface {
	ExpireHolds(ctx context.Context) (commands.ExpireResult, error)
}

// Sweeper expires lapsed holds on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	expirer HoldExpirer
	timeout time.Duration
	logger  *slog.Logger
}

func NewSweeper(schedule string, expirer HoldExpirer, timeout time.Duration, logger *slog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		// overlapping runs are skipped, not queued
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		expirer: expirer,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, errs.Wrapf(err, "invalid sweep schedule %q", schedule)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.expirer.ExpireHolds(ctx)
	if err != nil {
		s.logger.Error("hold sweep failed", "error", err)
		return
	}
	if res.Cancelled > 0 || res.OrphansReleased > 0 || res.SessionsPruned > 0 {
		s.logger.Info("hold sweep finished",
			"cancelled", res.Cancelled,
			"orphans_released", res.OrphansReleased,
			"sessions_pruned", res.SessionsPruned)
	}
}
