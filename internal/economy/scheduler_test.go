package economy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerSingleFireGuard(t *testing.T) {
	day, hour := 0, 14
	base := time.Date(2024, 1, 1, 14, 5, 0, 0, time.UTC) // Monday 14:05 UTC

	w := newMemWorld()
	w.guilds[1] = Guild{ID: 1, MaxLevel: 20, XPAdjust: 1, WeekXP: 100,
		ResetDay: &day, ResetHour: &hour, LastReset: base.AddDate(0, 0, -7)}

	e := newTestEngine(w)
	s := NewScheduler(e, w, discardLogger(), 30*time.Minute)

	// First tick inside the window fires the reset.
	s.now = func() time.Time { return base }
	e.now = func() time.Time { return base }
	require.NoError(t, s.Tick(context.Background()))
	assert.EqualValues(t, 1, w.guild(1).WeeksElapsed)

	// Second tick 30 minutes later still matches day/hour, but the guard
	// sees a fresh LastReset and must not fire again.
	s.now = func() time.Time { return base.Add(30 * time.Minute) }
	require.NoError(t, s.Tick(context.Background()))
	assert.EqualValues(t, 1, w.guild(1).WeeksElapsed)

	// A week later the window fires once more.
	later := base.AddDate(0, 0, 7)
	s.now = func() time.Time { return later }
	e.now = func() time.Time { return later }
	require.NoError(t, s.Tick(context.Background()))
	assert.EqualValues(t, 2, w.guild(1).WeeksElapsed)
}

func TestPollReturnsWhileResetStillRunning(t *testing.T) {
	day, hour := 0, 14
	base := time.Date(2024, 1, 1, 14, 5, 0, 0, time.UTC)

	w := newMemWorld()
	w.listActiveGate = make(chan struct{})
	w.guilds[1] = Guild{ID: 1, MaxLevel: 20, XPAdjust: 1, WeekXP: 100,
		ResetDay: &day, ResetHour: &hour, LastReset: base.AddDate(0, 0, -7)}

	e := newTestEngine(w)
	s := NewScheduler(e, w, discardLogger(), 30*time.Minute)
	s.now = func() time.Time { return base }
	e.now = func() time.Time { return base }

	// The dispatched reset is blocked on the character read; a poll that
	// waited for it would deadlock here instead of returning.
	wg, err := s.poll(context.Background())
	require.NoError(t, err)

	close(w.listActiveGate)
	wg.Wait()
	assert.EqualValues(t, 1, w.guild(1).WeeksElapsed)
}

func TestSchedulerSkipsUnscheduledGuilds(t *testing.T) {
	base := time.Date(2024, 1, 1, 14, 5, 0, 0, time.UTC)

	w := newMemWorld()
	w.guilds[1] = Guild{ID: 1, WeekXP: 50, LastReset: base.AddDate(0, 0, -30)}

	e := newTestEngine(w)
	s := NewScheduler(e, w, discardLogger(), 30*time.Minute)
	s.now = func() time.Time { return base }

	require.NoError(t, s.Tick(context.Background()))
	assert.EqualValues(t, 0, w.guild(1).WeeksElapsed)
	assert.EqualValues(t, 50, w.guild(1).WeekXP)
}

func TestSchedulerTickFetchErrorRetries(t *testing.T) {
	w := newMemWorld()
	w.listGuildsErr = errors.New("database unavailable")

	e := newTestEngine(w)
	s := NewScheduler(e, w, discardLogger(), 30*time.Minute)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 14, 5, 0, 0, time.UTC) }

	err := s.Tick(context.Background())
	require.Error(t, err)

	// Next interval the fetch succeeds and the tick completes.
	w.mu.Lock()
	w.listGuildsErr = nil
	w.mu.Unlock()
	assert.NoError(t, s.Tick(context.Background()))
}