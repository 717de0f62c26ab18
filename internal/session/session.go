// Package session owns one study session: the card store, phase queues,
// scheduler, timers and break controller, driven under a single lock.
package session

import (
	stderrors "errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/scholarsrs/internal/breaks"
	"github.com/vytor/scholarsrs/internal/cards"
	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/events"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/planner"
	"github.com/vytor/scholarsrs/internal/scheduler"
	"github.com/vytor/scholarsrs/internal/timer"
)

const (
	DefaultMinHours     = 0.5
	DefaultPollInterval = 50 * time.Millisecond
	// RateWindow is how many rate samples the live learning rate averages.
	RateWindow = 10
)

var (
	ErrNoSession  = stderrors.New("no active session")
	ErrPaused     = stderrors.New("session is paused")
	ErrNotPaused  = stderrors.New("session is not paused")
	ErrCompleted  = stderrors.New("session is completed")
	ErrOnBreak    = stderrors.New("session is on break")
	ErrNotOnBreak = stderrors.New("session is not on break")
)

// Config carries the tunables and collaborators shared by sessions.
// Zero values are replaced by defaults.
type Config struct {
	Phases        []models.Phase
	MinHours      float64
	BreakInterval time.Duration
	BreakDuration time.Duration
	PollInterval  time.Duration
	Clock         timer.Clock
	Runner        timer.Runner
	Rand          *rand.Rand
	Bus           *events.Bus
	Logger        *logger.Logger
}

func (c Config) withDefaults() Config {
	if len(c.Phases) == 0 {
		c.Phases = models.DefaultPhases
	}
	if c.MinHours <= 0 {
		c.MinHours = DefaultMinHours
	}
	if c.BreakInterval <= 0 {
		c.BreakInterval = breaks.DefaultInterval
	}
	if c.BreakDuration <= 0 {
		c.BreakDuration = breaks.DefaultDuration
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Clock == nil {
		c.Clock = timer.SystemClock{}
	}
	if c.Runner == nil {
		c.Runner = timer.TickerRunner{}
	}
	if c.Logger == nil {
		c.Logger = logger.Default()
	}
	if c.Bus == nil {
		c.Bus = events.NewBus(c.Logger)
	}
	return c
}

// Session is safe for concurrent use. Every operation and every timer
// callback runs under its mutex.
type Session struct {
	mu sync.Mutex

	id        string
	hours     float64
	startedAt time.Time
	cfg       Config
	log       *logger.Logger

	store   *cards.Store
	planner *planner.Planner
	sched   *scheduler.Scheduler
	tracker *timer.Tracker
	breaks  *breaks.Controller

	poll      timer.Canceler
	countdown timer.Canceler
	// gen is bumped whenever tasks are cancelled; callbacks from an older
	// generation return without touching state.
	gen uint64

	rateSamples []float64
	completed   bool
	stopped     bool
	report      *models.Report
}

// New validates the input, plans the phases, starts the timers and
// serves the first card.
func New(hours float64, rawText string, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	store, err := prepare(hours, rawText, cfg)
	if err != nil {
		return nil, err
	}
	return build(hours, store, cfg), nil
}

func prepare(hours float64, rawText string, cfg Config) (*cards.Store, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < cfg.MinHours {
		return nil, errors.NewValidationError("hours", fmt.Sprintf("session must be at least %g hours", cfg.MinHours))
	}
	return cards.FromText(rawText)
}

func build(hours float64, store *cards.Store, cfg Config) *Session {
	id := uuid.NewString()
	log := cfg.Logger.WithPrefix("session").WithField("session", id)
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := cfg.Clock.Now()

	s := &Session{
		id:        id,
		hours:     hours,
		startedAt: now,
		cfg:       cfg,
		log:       log,
		store:     store,
		planner:   planner.New(len(cfg.Phases), rng, log),
		tracker:   timer.NewTracker(now),
		breaks:    breaks.New(now, cfg.BreakInterval, cfg.BreakDuration, log),
	}
	queues := s.planner.Plan(store.All())
	s.sched = scheduler.New(store.All(), queues, scheduler.Options{
		Gate:     s.breaks,
		Recorder: store,
		Shuffler: s.planner,
		Elapsed:  s.tracker.SessionElapsed,
		Logger:   log,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sched.Advance(0); err != nil {
		log.Error("cannot start first phase: %v", err)
		s.complete(now)
		return s
	}
	log.Info("started: %d cards, %.2f hours", store.Len(), hours)
	s.startTasks()
	s.next(now)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Hours() float64 { return s.hours }

// Next serves a card when none is shown.
func (s *Session) Next() (models.Snapshot, error) {
	return s.do(func(now time.Time) error {
		if s.breaks.OnBreak() {
			return ErrOnBreak
		}
		if st := s.sched.State(); st != scheduler.NoCardShown {
			return fmt.Errorf("next while %s: %w", st, scheduler.ErrInvalidTransition)
		}
		return s.next(now)
	})
}

func (s *Session) Reveal()(models.Snapshot, error) {
	return s.do(func(now time.Time) error {
		if s.breaks.OnBreak() {
			return ErrOnBreak
		}
		c, err := s.sched.RevealAnswer()
		if err != nil {
			return err
		}
		s.emit(now, events.AnswerRevealed, events.CardPayload{Card: *c})
		return nil
	})
}

func (s *Session) Correct() (models.Snapshot, error) {
	return s.verdict(true)
}

func (s *Session) Wrong() (models.Snapshot, error) {
	return s.verdict(false)
}

func (s *Session) verdict(correct bool) (models.Snapshot, error) {
	return s.do(func(now time.Time) error {
		if s.breaks.OnBreak() {
			return ErrOnBreak
		}
		var (
			v   scheduler.Verdict
			err error
		)
		if correct {
			v, err = s.sched.MarkCorrect(now)
		} else {
			v, err = s.sched.MarkWrong(now)
		}
		if err != nil {
			return err
		}
		s.emit(now, events.VerdictRecorded, events.VerdictPayload{
			Card:      v.Card,
			Correct:   v.Correct,
			LatencyMs: v.Latency.Milliseconds(),
			Class:     v.Class,
		})
		return s.next(now)
	})
}

// Skip sends the shown card to the back of the phase queue.
func (s *Session) Skip() (models.Snapshot, error) {
	return s.do(func(now time.Time) error {
		if s.breaks.OnBreak() {
			return ErrOnBreak
		}
		if _, err := s.sched.Skip(); err != nil {
			return err
		}
		return s.next(now)
	})
}

// Pause freezes all time accounting and cancels every periodic task.
func (s *Session) Pause() (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.cfg.Clock.Now()
	if err := s.checkLive(); err != nil {
		return s.snapshot(now), err
	}
	if !s.tracker.Pause(now) {
		return s.snapshot(now), ErrPaused
	}
	s.cancelTasks()
	s.log.Info("paused")
	s.emit(now, events.SessionPaused, nil)
	return s.snapshot(now), nil
}

// Resume shifts every start timestamp by the pause length and recreates
// the periodic tasks.
func (s *Session) Resume() (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.cfg.Clock.Now()
	if err := s.checkLive(); err != nil {
		return s.snapshot(now), err
	}
	d, ok := s.tracker.Resume(now)
	if !ok {
		return s.snapshot(now), ErrNotPaused
	}
	s.breaks.Shift(d)
	s.sched.Shift(d)
	s.startTasks()
	s.log.Info("resumed after %s", d.Round(time.Second))
	s.emit(now, events.SessionResumed, events.PausePayload{Paused: d})
	return s.snapshot(now), nil
}

// SkipBreak ends a running break and resumes serving cards.
func (s *Session) SkipBreak() (models.Snapshot, error) {
	return s.do(func(now time.Time) error {
		if !s.breaks.OnBreak() {
			return ErrNotOnBreak
		}
		s.endBreak(now, true)
		return nil
	})
}

func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.cfg.Clock.Now())
}

// Report returns the completion report once the session has finished.
func (s *Session) Report() (models.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return models.Report{}, false
	}
	return *s.report, true
}

// History returns the recorded responses for one card.
func (s *Session) History(id int) []models.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.History(id)
}

// Stop cancels the timers and drops all session state. It is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelTasks()
	s.stopped = true
	s.sched.Reset()
	s.store.Reset()
	s.log.Info("stopped")
}

// do runs fn for an operation that needs a live, unpaused session.
func (s *Session) do(fn func(now time.Time) error) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.cfg.Clock.Now()
	if err := s.checkLive(); err != nil {
		return s.snapshot(now), err
	}
	if s.tracker.Paused() {
		return s.snapshot(now), ErrPaused
	}
	err := fn(now)
	return s.snapshot(now), err
}

func (s *Session) checkLive() error {
	if s.stopped || s.completed {
		return ErrCompleted
	}
	return nil
}

// next serves cards until one is shown, a break starts or the session
// completes. A phase that is due advances first.
func (s *Session) next(now time.Time) error {
	for {
		if s.phaseDue(now) && !s.advance(now) {
			return nil
		}
		c, out, err := s.sched.ShowNext(now)
		if err != nil {
			return err
		}
		switch out {
		case scheduler.OutcomeCard:
			s.emit(now, events.CardDisplayed, events.CardPayload{Card: *c})
			return nil
		case scheduler.OutcomeBreakDue:
			s.beginBreak(now)
			return nil
		default:
			if !s.advance(now) {
				return nil
			}
		}
	}
}

func (s *Session) phaseDue(now time.Time) bool {
	i := s.sched.Phase()
	return timer.PhaseDue(s.tracker.PhaseElapsed(now), s.budget(i), s.sched.Remaining(), s.sched.Unseen())
}

// advance moves to the next phase and reports whether the session is
// still running. A fault while advancing completes the session.
func (s *Session) advance(now time.Time) (running bool) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("recovered while advancing phase: %v", rec)
			s.complete(now)
			running = false
		}
	}()

	next := s.sched.Phase() + 1
	if next >= s.sched.PhaseCount() {
		s.complete(now)
		return false
	}
	if err := s.sched.Advance(next); err != nil {
		s.log.Error("advance failed: %v", err)
		s.complete(now)
		return false
	}
	s.tracker.StartPhase(now)
	s.log.Info("phase %d (%s) started", next, s.phaseName(next))
	s.emit(now, events.PhaseAdvanced, events.PhasePayload{Index: next, Name: s.phaseName(next)})
	return true
}

func (s *Session) complete(now time.Time) {
	if s.completed {
		return
	}
	s.completed = true
	s.cancelTasks()
	s.sched.Reset()
	r := s.buildReport(now)
	s.report = &r
	s.log.Info("completed: %d/%d mastered, accuracy %d%%", r.MasteredCount, r.TotalCount, r.AccuracyPct)
	s.emit(now, events.SessionCompleted, events.CompletedPayload{Report: r})
}

func (s *Session) beginBreak(now time.Time) {
	if !s.breaks.Start() {
		return
	}
	s.countdown = s.startCountdown()
	s.emit(now, events.BreakStarted, events.BreakPayload{Duration: s.breaks.Remaining()})
}

func (s *Session) endBreak(now time.Time, skipped bool) {
	if skipped {
		s.breaks.Skip(now)
	} else {
		s.breaks.End(now)
	}
	cancel(s.countdown)
	s.countdown = nil
	s.emit(now, events.BreakEnded, events.BreakPayload{Skipped: skipped})
	if err := s.next(now); err != nil {
		s.log.Warn("serving after break: %v", err)
	}
}

func (s *Session) startTasks() {
	gen := s.gen
	s.poll = s.cfg.Runner.Every(s.cfg.PollInterval, func() { s.onPoll(gen) })
	if s.breaks.OnBreak() {
		s.countdown = s.startCountdown()
	}
}

func (s *Session) startCountdown() timer.Canceler {
	gen := s.gen
	return s.cfg.Runner.Every(breaks.CountdownStep, func() { s.onCountdown(gen) })
}

func (s *Session) cancelTasks() {
	cancel(s.poll)
	cancel(s.countdown)
	s.poll, s.countdown = nil, nil
	s.gen++
}

func cancel(c timer.Canceler) {
	if c != nil {
		c.Cancel()
	}
}

func (s *Session) stale(gen uint64) bool {
	return gen != s.gen || s.stopped || s.completed || s.tracker.Paused()
}

// onPoll samples the learning rate and, when no card is shown, lets a
// due break or phase take over.
func (s *Session) onPoll(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen) {
		return
	}
	now := s.cfg.Clock.Now()
	s.sampleRate(now)
	if s.breaks.OnBreak() || s.sched.State() != scheduler.NoCardShown {
		return
	}
	if err := s.next(now); err != nil {
		s.log.Warn("poll: %v", err)
	}
}

func (s *Session) onCountdown(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen) {
		return
	}
	if s.breaks.Tick() {
		s.endBreak(s.cfg.Clock.Now(), false)
	}
}

func (s *Session) sampleRate(now time.Time) {
	mins := s.tracker.RateElapsed(now).Minutes()
	if mins <= 0 {
		return
	}
	s.rateSamples = append(s.rateSamples, float64(s.sched.Performance().TotalAttempts)/mins)
	if len(s.rateSamples) > RateWindow {
		s.rateSamples = s.rateSamples[len(s.rateSamples)-RateWindow:]
	}
}

func (s *Session) liveRate(now time.Time) float64 {
	if len(s.rateSamples) == 0 {
		return overallRate(s.sched.Performance().TotalAttempts, s.tracker.RateElapsed(now))
	}
	var sum float64
	for _, v := range s.rateSamples {
		sum += v
	}
	return round2(sum / float64(len(s.rateSamples)))
}

func (s *Session) budget(i int) time.Duration {
	if i < 0 || i >= len(s.cfg.Phases) {
		return 0
	}
	return s.cfg.Phases[i].Budget(s.hours)
}

func (s *Session) phaseName(i int) string {
	if i < 0 || i >= len(s.cfg.Phases) {
		return fmt.Sprintf("Phase %d", i+1)
	}
	return s.cfg.Phases[i].Name
}

func (s *Session) emit(now time.Time, typ events.Type, data any) {
	s.cfg.Bus.Publish(events.Event{Type: typ, SessionID: s.id, At: now, Data: data})
}
