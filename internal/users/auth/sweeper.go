// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds one sweep run.
const sweepTimeout = 30 * time.Second

// Sweeper deletes expired sessions on a cron schedule.
type Sweeper struct {
	manager *SessionManager
	logger  *slog.Logger
	cron    *cron.Cron
}

/*
NewSweeper validates schedule and registers the sweep job.

Parameters:
  - schedule: standard cron expression or descriptor ("@every 15m", "0 * * * *")

Returns:
  - *Sweeper: Not started
  - error: Invalid schedule
*/
func NewSweeper(manager *SessionManager, schedule string, logger *slog.Logger) (*Sweeper, error) {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	sweeper := &Sweeper{manager: manager, logger: logger, cron: scheduler}
	if _, err := scheduler.AddFunc(schedule, sweeper.run); err != nil {
		return nil, fmt.Errorf("sweeper: invalid schedule %q: %w", schedule, err)
	}

	return sweeper, nil
}

// Start runs the scheduler in its own goroutine.
func (sweeper *Sweeper) Start() {
	sweeper.cron.Start()
}

// Stop prevents new runs and waits for a running sweep or ctx, whichever ends first.
func (sweeper *Sweeper) Stop(ctx context.Context) {
	select {
	case <-sweeper.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce sweeps immediately.
func (sweeper *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	return sweeper.manager.SweepExpired(ctx)
}

func (sweeper *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := sweeper.RunOnce(ctx); err != nil {
		sweeper.logger.Error("session_sweep_failed", slog.Any("error", err))
	}
}
