package economy

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler polls guild reset configurations on a fixed cadence and fires the
// engine for every guild whose window has arrived. The poll interval (30m) is
// finer than the one-hour match window, so a bare day/hour match would fire
// twice; Guild.ResetDue carries the single-fire guard that prevents that.
type Scheduler struct {
	engine    *Engine
	guilds    GuildStore
	log       *slog.Logger
	pollEvery time.Duration
	now       func() time.Time
}

func NewScheduler(engine *Engine, guilds GuildStore, logger *slog.Logger, pollEvery time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if pollEvery <= 0 {
		pollEvery = 30 * time.Minute
	}
	return &Scheduler{
		engine:    engine,
		guilds:    guilds,
		log:       logger,
		pollEvery: pollEvery,
		now:       time.Now,
	}
}

// Run ticks until the context is cancelled. A failed poll is retried on the
// next interval. Resets run detached from the ticker loop, so one guild
// taking longer than the poll interval never delays the next poll; the
// per-guild in-flight guard keeps a still-running reset from firing twice.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	s.log.Info("reset scheduler started", "poll_every", s.pollEvery.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("reset scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.poll(ctx); err != nil {
				s.log.Error("scheduler poll failed", "err", err)
			}
		}
	}
}

// Tick runs one poll and waits for every dispatched reset to finish. The
// worker's run-once mode depends on that.
func (s *Scheduler) Tick(ctx context.Context) error {
	wg, err := s.poll(ctx)
	if err != nil {
		return err
	}
	wg.Wait()
	return nil
}

// poll fires a reset for every guild configured for the current UTC weekday
// and hour that passes the single-fire guard, each in its own goroutine, and
// returns without waiting for them.
func (s *Scheduler) poll(ctx context.Context) (*sync.WaitGroup, error) {
	now := s.now().UTC()
	weekday, hour := WeekdayIndex(now), now.Hour()

	due, err := s.guilds.ListWithResetWindow(ctx, weekday, hour)
	if err != nil {
		schedulerTicks.WithLabelValues("fetch_error").Inc()
		return nil, err
	}
	schedulerTicks.WithLabelValues("ok").Inc()

	var wg sync.WaitGroup
	for _, g := range due {
		if !g.ResetDue(now) {
			continue
		}
		wg.Add(1)
		go func(guildID int64) {
			defer wg.Done()
			if _, err := s.engine.RunWeeklyReset(ctx, guildID); err != nil {
				s.log.Error("scheduled reset failed", "guild_id", guildID, "err", err)
			}
		}(g.ID)
	}
	return &wg, nil
}
