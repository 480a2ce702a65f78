package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/contestsvc"
	"github.com/open-builders/contestlet/internal/domain/contest"
	"github.com/open-builders/contestlet/internal/notify"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/platform/random"
	"github.com/open-builders/contestlet/internal/sms"
	"github.com/open-builders/contestlet/internal/store/memstore"
)

func newTestScheduler(clk clock.Clock) (*Scheduler, *memstore.Store) {
	st := memstore.New()
	dispatcher := notify.New(st, sms.NewMock(), zerolog.Nop(), 16)
	contests := contestsvc.New(st, clk, random.NewDeterministic(1), dispatcher)
	return New(st, contests, clk, zerolog.Nop()), st
}

// A contest past its start_time transitions upcoming->active on the
// first tick and a second tick at the same wall-clock time is a no-op
// (spec.md §8 "idempotent scheduler").
func TestRunTick_ActivatesUpcomingContestIdempotently(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	sched, st := newTestScheduler(clk)
	ctx := context.Background()

	c := contest.Contest{
		Name: "Free Tacos", Status: contest.StatusUpcoming,
		StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Hour),
		MinimumAge: 18, WinnerCount: 1,
	}
	id, err := st.InsertContest(ctx, &c)
	require.NoError(t, err)

	sched.runTick(ctx)

	reloaded, err := st.GetContestByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contest.StatusActive, reloaded.Status)

	history, err := st.ListStatusAuditByContest(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "scheduler", history[0].ActorRole)

	sched.runTick(ctx)

	reloaded, err = st.GetContestByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contest.StatusActive, reloaded.Status)

	history, err = st.ListStatusAuditByContest(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1, "re-running the scheduler at the same instant must not re-fire the transition")
}

// A contest past its end_time transitions active->ended.
func TestRunTick_EndsActiveContestPastEndTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	sched, st := newTestScheduler(clk)
	ctx := context.Background()

	c := contest.Contest{
		Name: "Free Tacos", Status: contest.StatusActive,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Minute),
		MinimumAge: 18, WinnerCount: 1,
	}
	id, err := st.InsertContest(ctx, &c)
	require.NoError(t, err)

	sched.runTick(ctx)

	reloaded, err := st.GetContestByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contest.StatusEnded, reloaded.Status)
}

// An ended contest configured for scheduled winner selection with
// sufficient entries gets its winners drawn by the tick.
func TestRunTick_SelectsScheduledWinners(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	sched, st := newTestScheduler(clk)
	ctx := context.Background()

	c := contest.Contest{
		Name: "Free Tacos", Status: contest.StatusEnded,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Minute),
		MinimumAge: 18, WinnerCount: 1,
		WinnerSelectionMethod: contest.WinnerSelectionScheduled,
	}
	id, err := st.InsertContest(ctx, &c)
	require.NoError(t, err)
	_, err = st.InsertEntry(ctx, &contest.Entry{ContestID: id, UserID: 500, Status: contest.EntryStatusActive, Source: contest.EntrySourceSelf})
	require.NoError(t, err)

	sched.runTick(ctx)

	reloaded, err := st.GetContestByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contest.StatusComplete, reloaded.Status)

	winners, err := st.ListWinnersByContest(ctx, id)
	require.NoError(t, err)
	require.Len(t, winners, 1)
}
