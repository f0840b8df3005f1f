// Package sweeper periodically expires overdue actions and drops stale
// dialogs. Nothing depends on it for correctness.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harunnryd/deskflow/internal/concurrency"
	"github.com/harunnryd/deskflow/internal/config"
	"github.com/harunnryd/deskflow/internal/logger"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

type ActionSweeper interface {
	Sweep(ctx context.Context) (expired, purged int)
}

type DialogSweeper interface {
	Sweep() int
}

type Result struct {
	ExpiredActions int
	PurgedActions  int
	StaleDialogs   int
}

type Sweeper struct {
	schedule string
	actions  ActionSweeper
	dialogs  DialogSweeper

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New validates schedule (standard cron or @every descriptors). Either
// target may be nil.
func New(schedule string, actions ActionSweeper, dialogs DialogSweeper) (*Sweeper, error) {
	if schedule == "" {
		schedule = config.DefaultSweeperSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse sweeper schedule %q: %w", schedule, err)
	}
	return &Sweeper{schedule: schedule, actions: actions, dialogs: dialogs}, nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) Result {
	var res Result
	if s.actions != nil {
		res.ExpiredActions, res.PurgedActions = s.actions.Sweep(ctx)
	}
	if s.dialogs != nil {
		res.StaleDialogs = s.dialogs.Sweep()
	}
	if res != (Result{}) {
		logger.FromContext(ctx).Info("Sweep finished",
			"expired_actions", res.ExpiredActions,
			"purged_actions", res.PurgedActions,
			"stale_dialogs", res.StaleDialogs)
	}
	return res
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(s.schedule, func() {
		defer concurrency.Recover("sweeper", nil)
		runCtx := logger.WithTraceID(ctx, ulid.Make().String())
		s.RunOnce(runCtx)
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	c.Start()
	s.cron = c
	s.running = true
	slog.Info("Sweeper started", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep or ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		slog.Info("Sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
