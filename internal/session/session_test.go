package session_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/events"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/scheduler"
	"github.com/vytor/scholarsrs/internal/session"
	"github.com/vytor/scholarsrs/internal/timer"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) last(typ events.Type) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i], true
		}
	}
	return events.Event{}, false
}

type fixture struct {
	mgr    *session.Manager
	clock  *timer.ManualClock
	runner *timer.ManualRunner
	rec    *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:  timer.NewManualClock(epoch),
		runner: &timer.ManualRunner{},
		rec:    &recorder{},
	}
	f.mgr = session.NewManager(session.Config{
		BreakDuration: 3 * time.Second,
		Clock:         f.clock,
		Runner:        f.runner,
		Rand:          rand.New(rand.NewSource(1)),
		Logger:        logger.Nop(),
	})
	f.mgr.Bus().Subscribe(f.rec.handle)
	return f
}

func (f *fixture) start(t *testing.T, hours float64, raw string) *session.Session {
	t.Helper()
	s, err := f.mgr.Start(hours, raw)
	require.NoError(t, err)
	return s
}

func answer(t *testing.T, s *session.Session, correct bool) models.Snapshot {
	t.Helper()
	_, err := s.Reveal()
	require.NoError(t, err)
	var snap models.Snapshot
	if correct {
		snap, err = s.Correct()
	} else {
		snap, err = s.Wrong()
	}
	require.NoError(t, err)
	return snap
}

func TestStart_ServesFirstCard(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 0.5, "Q1::A1\nQ2::A2")

	snap := s.Snapshot()
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, 0, snap.PhaseIndex)
	assert.Equal(t, "Initial Exposure", snap.PhaseName)
	assert.Equal(t, 2, snap.TotalCards)
	assert.Equal(t, models.ClassCounts{Learning: 2}, snap.Counts)
	assert.Equal(t, scheduler.CardShown.String(), snap.Slot)
	require.NotNil(t, snap.Card)
	assert.Empty(t, snap.Card.Answer, "answer hidden until revealed")
	assert.False(t, snap.Card.Skippable)
	assert.Equal(t, 1, snap.RemainingCards)
	assert.Equal(t, 270*time.Second, snap.PhaseRemaining)

	assert.Equal(t, []events.Type{events.CardDisplayed}, f.rec.types())
	assert.Len(t, f.runner.Active(), 1, "progress poll running")
}

func TestStart_ValidationErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		hours float64
		raw   string
	}{
		{"hours below minimum", 0.25, "Q::A"},
		{"no material", 1, "  \n "},
		{"no valid lines", 1, "nothing here\nQ::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.mgr.Start(tt.hours, tt.raw)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}

	_, err := f.mgr.Current()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestReveal_ThenVerdictServesNext(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 1, "Q1::A1\nQ2::A2")

	snap, err := s.Reveal()
	require.NoError(t, err)
	require.NotNil(t, snap.Card)
	assert.True(t, snap.Card.Revealed)
	assert.NotEmpty(t, snap.Card.Answer)
	first := snap.Card.ID

	f.clock.Advance(2 * time.Second)
	snap, err = s.Correct()
	require.NoError(t, err)
	require.NotNil(t, snap.Card)
	assert.NotEqual(t, first, snap.Card.ID)
	assert.Equal(t, 1, snap.Performance.TotalCorrect)
	assert.Equal(t, 100, snap.AccuracyPct)

	assert.Equal(t, []events.Type{
		events.CardDisplayed, events.AnswerRevealed, events.VerdictRecorded, events.CardDisplayed,
	}, f.rec.types())
	e, ok := f.rec.last(events.VerdictRecorded)
	require.True(t, ok)
	payload := e.Data.(events.VerdictPayload)
	assert.True(t, payload.Correct)
	assert.Equal(t, int64(2000), payload.LatencyMs)
	assert.Equal(t, s.ID(), e.SessionID)
	assert.Len(t, s.History(first), 1)
}

func TestVerdict_BeforeRevealIsRejected(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 1, "Q1::A1")

	_, err := s.Correct()
	assert.ErrorIs(t, err, scheduler.ErrInvalidTransition)

	_, err = s.Next()
	assert.ErrorIs(t, err, scheduler.ErrInvalidTransition, "a card is already shown")
}

func TestWrongTwice_MakesCardDifficult(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 1, "Q1::A1")

	snap := answer(t, s, false)
	require.NotNil(t, snap.Card, "missed card comes straight back")
	assert.True(t, snap.Card.Skippable)
	snap = answer(t, s, false)

	assert.Equal(t, models.ClassCounts{Difficult: 1}, snap.Counts)
	assert.Zero(t, snap.Performance.CurrentStreak)
	require.NotNil(t, snap.Card)
	assert.Equal(t, 5, snap.Card.DifficultyLevel)
}

func TestSkip_KeepsStatsAndRequeues(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 1, "Q1::A1\nQ2::A2")
	first := s.Snapshot().Card.ID

	snap, err := s.Skip()
	require.NoError(t, err)
	require.NotNil(t, snap.Card)
	assert.NotEqual(t, first, snap.Card.ID)
	assert.Equal(t, 1, snap.RemainingCards)
	assert.Zero(t, snap.Performance.TotalAttempts)

	snap = answer(t, s, true)
	require.NotNil(t, snap.Card)
	assert.Equal(t, first, snap.Card.ID)
	assert.Equal(t, 2, snap.Card.TotalSeen)
	assert.True(t, snap.Card.Skippable)
}

func TestPauseResume_IsTransparent(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 10, "Q1::A1\nQ2::A2")
	f.clock.Advance(2 * time.Minute)

	before := s.Snapshot()
	snap, err := s.Pause()
	require.NoError(t, err)
	assert.True(t, snap.Paused)
	assert.Empty(t, f.runner.Active(), "pause cancels every task")

	_, err = s.Pause()
	assert.ErrorIs(t, err, session.ErrPaused)
	_, err = s.Reveal()
	assert.ErrorIs(t, err, session.ErrPaused)

	f.clock.Advance(30 * time.Minute)
	assert.Equal(t, before.SessionElapsed, s.Snapshot().SessionElapsed, "frozen while paused")

	after, err := s.Resume()
	require.NoError(t, err)
	assert.False(t, after.Paused)
	assert.Equal(t, before.SessionElapsed, after.SessionElapsed)
	assert.Equal(t, before.PhaseRemaining, after.PhaseRemaining)
	assert.Equal(t, before.NextBreakIn, after.NextBreakIn)
	assert.Len(t, f.runner.Active(), 1, "poll recreated")

	_, err = s.Resume()
	assert.ErrorIs(t, err, session.ErrNotPaused)

	answer(t, s, true)
	e, ok := f.rec.last(events.VerdictRecorded)
	require.True(t, ok)
	assert.Equal(t, (2 * time.Minute).Milliseconds(), e.Data.(events.VerdictPayload).LatencyMs, "pause excluded from latency")
	assert.Contains(t, f.rec.types(), events.SessionPaused)
	assert.Contains(t, f.rec.types(), events.SessionResumed)
}

func TestBreak_StartsOnNextCardAfterInterval(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 10, "Q1::A1\nQ2::A2")

	f.clock.Advance(25 * time.Minute)
	snap := answer(t, s, true)

	assert.True(t, snap.OnBreak)
	assert.Nil(t, snap.Card)
	assert.Equal(t, 3*time.Second, snap.BreakRemaining)
	assert.Equal(t, 1, snap.RemainingCards, "queue left where it was")
	assert.Contains(t, f.rec.types(), events.BreakStarted)

	_, err := s.Next()
	assert.ErrorIs(t, err, session.ErrOnBreak)

	f.runner.Fire(session.DefaultPollInterval)
	assert.True(t, s.Snapshot().OnBreak, "poll does not serve during a break")

	f.runner.Fire(time.Second)
	f.runner.Fire(time.Second)
	assert.True(t, s.Snapshot().OnBreak)
	f.runner.Fire(time.Second)

	snap = s.Snapshot()
	assert.False(t, snap.OnBreak)
	require.NotNil(t, snap.Card, "serving resumes after the break")
	assert.Equal(t, 25*time.Minute, snap.NextBreakIn)

	e, ok := f.rec.last(events.BreakEnded)
	require.True(t, ok)
	assert.False(t, e.Data.(events.BreakPayload).Skipped)
}

func TestSkipBreak(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 10, "Q1::A1\nQ2::A2")

	_, err := s.SkipBreak()
	assert.ErrorIs(t, err, session.ErrNotOnBreak)

	f.clock.Advance(26 * time.Minute)
	answer(t, s, true)
	require.True(t, s.Snapshot().OnBreak)

	f.clock.Advance(time.Second)
	snap, err := s.SkipBreak()
	require.NoError(t, err)
	assert.False(t, snap.OnBreak)
	assert.NotNil(t, snap.Card)
	assert.Equal(t, 25*time.Minute, snap.NextBreakIn)

	e, ok := f.rec.last(events.BreakEnded)
	require.True(t, ok)
	assert.True(t, e.Data.(events.BreakPayload).Skipped)
	assert.Len(t, f.runner.Active(), 1, "countdown cancelled")
}

func TestPauseDuringBreak_FreezesCountdown(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 10, "Q1::A1\nQ2::A2")
	f.clock.Advance(25 * time.Minute)
	answer(t, s, true)
	f.runner.Fire(time.Second)

	_, err := s.Pause()
	require.NoError(t, err)
	assert.Zero(t, f.runner.Fire(time.Second))
	assert.Equal(t, 2*time.Second, s.Snapshot().BreakRemaining)

	_, err = s.Resume()
	require.NoError(t, err)
	assert.Len(t, f.runner.Active(), 2, "poll and countdown recreated")
	f.runner.Fire(time.Second)
	f.runner.Fire(time.Second)
	assert.False(t, s.Snapshot().OnBreak)
}

func TestPhaseAdvancesOnceBudgetSpentAndAllSeen(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 0.5, "Q1::A1\nQ2::A2")

	_, err := s.Skip()
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)

	f.runner.Fire(session.DefaultPollInterval)
	assert.Equal(t, 0, s.Snapshot().PhaseIndex, "shown card is not abandoned")

	snap := answer(t, s, true)
	assert.Equal(t, 1, snap.PhaseIndex)
	assert.Equal(t, "Immediate Recall", snap.PhaseName)

	e, ok := f.rec.last(events.PhaseAdvanced)
	require.True(t, ok)
	assert.Equal(t, 1, e.Data.(events.PhasePayload).Index)
}

func TestBudgetSpentWithUnseenCardsDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 0.5, "Q1::A1\nQ2::A2\nQ3::A3")

	f.clock.Advance(10 * time.Minute)
	snap := answer(t, s, true)

	assert.Equal(t, 0, snap.PhaseIndex)
	assert.Zero(t, snap.PhaseRemaining)
}

func TestSingleCardSessionCompletes(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 0.5, "Q::A")

	var snap models.Snapshot
	for i := 0; i < len(models.DefaultPhases); i++ {
		require.False(t, s.Snapshot().Completed, "answer %d", i)
		f.clock.Advance(time.Minute)
		snap = answer(t, s, true)
	}

	require.True(t, snap.Completed)
	require.NotNil(t, snap.Report)
	r := *snap.Report
	assert.Equal(t, 1, r.MasteredCount)
	assert.Equal(t, 1, r.TotalCount)
	assert.Equal(t, 100, r.MasteryPercent)
	assert.Equal(t, 100, r.AccuracyPct)
	assert.Equal(t, 7, r.TotalReviews)
	assert.Equal(t, 7, r.LongestStreak)
	assert.Equal(t, 0, r.Hours)
	assert.Equal(t, 7, r.Minutes)
	assert.InDelta(t, 1.0, r.LearningRate, 1e-9)
	assert.Equal(t, s.ID(), r.SessionID)

	e, ok := f.rec.last(events.SessionCompleted)
	require.True(t, ok)
	assert.Equal(t, r, e.Data.(events.CompletedPayload).Report)

	stored, ok := s.Report()
	require.True(t, ok)
	assert.Equal(t, r, stored)

	assert.Empty(t, f.runner.Active())
	_, err := s.Reveal()
	assert.ErrorIs(t, err, session.ErrCompleted)
	_, err = s.Pause()
	assert.ErrorIs(t, err, session.ErrCompleted)
}

func TestLiveRateSmoothing(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 10, "Q1::A1\nQ2::A2")

	f.clock.Advance(time.Minute)
	answer(t, s, true)
	f.runner.Fire(session.DefaultPollInterval)
	assert.InDelta(t, 1.0, s.Snapshot().LearningRate, 1e-9)

	f.clock.Advance(time.Minute)
	f.runner.Fire(session.DefaultPollInterval)
	assert.InDelta(t, 0.75, s.Snapshot().LearningRate, 1e-9, "mean of 1.0 and 0.5")
}

func TestManager_StartReplacesSession(t *testing.T) {
	f := newFixture(t)
	first := f.start(t, 1, "Q1::A1")
	second := f.start(t, 1, "Q2::A2\nQ3::A3")

	assert.NotEqual(t, first.ID(), second.ID())
	_, err := first.Reveal()
	assert.ErrorIs(t, err, session.ErrCompleted)
	assert.Len(t, f.runner.Active(), 1, "only the new session polls")

	cur, err := f.mgr.Current()
	require.NoError(t, err)
	assert.Same(t, second, cur)
	assert.Equal(t, 2, cur.Snapshot().TotalCards)

	_, err = f.mgr.Start(0.1, "Q::A")
	require.Error(t, err)
	cur, err = f.mgr.Current()
	require.NoError(t, err)
	assert.Same(t, second, cur, "invalid input keeps the running session")
}

func TestManager_Stop(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, 1, "Q1::A1")

	require.NoError(t, f.mgr.Stop())
	assert.ErrorIs(t, f.mgr.Stop(), session.ErrNoSession)
	assert.Empty(t, f.runner.Active())
	assert.True(t, s.Snapshot().Completed)

	_, err := f.mgr.Current()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestNew_WithRealTimers(t *testing.T) {
	s, err := session.New(1, "Q1::A1", session.Config{PollInterval: time.Millisecond, Logger: logger.Nop()})
	require.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool { return s.Snapshot().SessionElapsed > 0 }, time.Second, 5*time.Millisecond)
	_, err = s.Reveal()
	require.NoError(t, err)
}
