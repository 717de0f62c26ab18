// Package scheduler serves cards from the active phase queue, records
// verdicts, keeps each card's classification and reschedules misses.
package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
)

const (
	ErrorRateThreshold   = 0.4
	MinWrongForDifficult = 2
	MasteryStreak        = 3
	MasteryMinSeen       = 3
	LatencyWindow        = 50
	maxReinsertOffset    = 3
)

var (
	ErrInvalidTransition = errors.New("scheduler: invalid transition")
	ErrNoPhase           = errors.New("scheduler: phase out of range")
)

// SlotState is the state of the current card-serving cycle.
type SlotState int

const (
	NoCardShown SlotState = iota
	CardShown
	AnswerRevealed
)

func (s SlotState) String() string {
	switch s {
	case CardShown:
		return "card_shown"
	case AnswerRevealed:
		return "answer_revealed"
	default:
		return "no_card_shown"
	}
}

// Outcome is what ShowNext did.
type Outcome int

const (
	OutcomeCard Outcome = iota
	OutcomeBreakDue
	OutcomePhaseComplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCard:
		return "card"
	case OutcomeBreakDue:
		return "break_due"
	default:
		return "phase_complete"
	}
}

// BreakGate tells the scheduler when to yield to a break.
type BreakGate interface {
	Due(now time.Time) bool
}

// Recorder keeps per-card response history.
type Recorder interface {
	RecordResponse(id int, r models.Response)
}

// Shuffler permutes a queue in place.
type Shuffler interface {
	Shuffle(q []*models.Card)
}

type Options struct {
	Gate     BreakGate
	Recorder Recorder
	Shuffler Shuffler
	// Elapsed returns pause-adjusted session time, stored as Card.LastSeen.
	Elapsed func(now time.Time) time.Duration
	Logger  *logger.Logger
}

// Verdict is the result of MarkCorrect or MarkWrong.
type Verdict struct {
	Card    models.Card           `json:"card"`
	Correct bool                  `json:"correct"`
	Latency time.Duration         `json:"latency"`
	Class   models.Classification `json:"class"`
	Phase   int                   `json:"phase"`
}

// Scheduler is not safe for concurrent use.
type Scheduler struct {
	queues [][]*models.Card
	phase  int
	class  map[int]models.Classification

	current *models.Card
	state   SlotState
	shownAt time.Time

	perf      models.Performance
	latencies []time.Duration

	opts Options
	log  *logger.Logger
}

// New puts every card in the learning set and activates phase 0. The
// queues are used as given; callers shuffle them beforehand.
func New(all []*models.Card, queues [][]*models.Card, opts Options) *Scheduler {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	s := &Scheduler{
		queues: queues,
		class:  make(map[int]models.Classification, len(all)),
		opts:   opts,
		log:    log.WithPrefix("scheduler"),
	}
	for _, c := range all {
		if c != nil {
			s.class[c.ID] = models.ClassLearning
		}
	}
	return s
}

// ShowNext serves the front card of the active queue. It yields to a due
// break first and reports phase completion on an empty queue. Any fault
// while picking the card is logged and reported as phase completion.
func (s *Scheduler) ShowNext(now time.Time) (card *models.Card, out Outcome, err error) {
	if s.state != NoCardShown {
		return s.current, OutcomeCard, fmt.Errorf("show next while %s: %w", s.state, ErrInvalidTransition)
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("recovered while selecting card: %v", rec)
			s.clearSlot()
			card, out, err = nil, OutcomePhaseComplete, nil
		}
	}()

	if s.opts.Gate != nil && s.opts.Gate.Due(now) {
		return nil, OutcomeBreakDue, nil
	}
	if s.phase < 0 || s.phase >= len(s.queues) {
		s.log.Error("active phase %d has no queue", s.phase)
		return nil, OutcomePhaseComplete, nil
	}

	q := s.queues[s.phase]
	if len(q) == 0 {
		return nil, OutcomePhaseComplete, nil
	}
	c := q[0]
	s.queues[s.phase] = q[1:]
	if c == nil {
		s.log.Error("nil card in phase %d queue", s.phase)
		return nil, OutcomePhaseComplete, nil
	}

	c.TotalSeen++
	if s.opts.Elapsed != nil {
		c.LastSeen = s.opts.Elapsed(now)
	}
	if c.PhaseFirstSeen < 0 {
		c.PhaseFirstSeen = s.phase
	}
	s.perf.CardsSeen++
	s.current = c
	s.state = CardShown
	s.shownAt = now
	return c, OutcomeCard, nil
}

// RevealAnswer moves the shown card to the answer-visible state.
func (s *Scheduler) RevealAnswer() (*models.Card, error) {
	if s.state != CardShown || s.current == nil {
		return nil, fmt.Errorf("reveal while %s: %w", s.state, ErrInvalidTransition)
	}
	s.state = AnswerRevealed
	return s.current, nil
}

func (s *Scheduler) MarkCorrect(now time.Time) (Verdict, error) {
	return s.mark(now, true)
}

func (s *Scheduler) MarkWrong(now time.Time) (Verdict, error) {
	return s.mark(now, false)
}

func (s *Scheduler) mark(now time.Time, correct bool) (Verdict, error) {
	if s.state != AnswerRevealed || s.current == nil {
		return Verdict{}, fmt.Errorf("verdict while %s: %w", s.state, ErrInvalidTransition)
	}
	c := s.current
	latency := max(0, now.Sub(s.shownAt))

	s.perf.TotalAttempts++
	if correct {
		s.perf.TotalCorrect++
		s.perf.CurrentStreak++
		s.perf.LongestStreak = max(s.perf.LongestStreak, s.perf.CurrentStreak)
		c.CorrectCount++
		c.ConsecutiveCorrect++
	} else {
		s.perf.CurrentStreak = 0
		c.WrongCount++
		c.ConsecutiveCorrect = 0
	}
	c.Difficulty = c.ErrorRate()
	c.LastResponseTime = latency
	n := time.Duration(c.Verdicts())
	c.AvgResponseTime = (c.AvgResponseTime*(n-1) + latency) / n

	s.latencies = append(s.latencies, latency)
	if len(s.latencies) > LatencyWindow {
		s.latencies = s.latencies[len(s.latencies)-LatencyWindow:]
	}

	class := Classify(c, correct)
	s.class[c.ID] = class
	if !correct {
		s.reschedule(c)
	}
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordResponse(c.ID, models.Response{Correct: correct, Latency: latency, At: now, Phase: s.phase})
	}

	s.clearSlot()
	return Verdict{Card: *c, Correct: correct, Latency: latency, Class: class, Phase: s.phase}, nil
}

// Classify returns the set a card belongs to after a verdict.
func Classify(c *models.Card, correct bool) models.Classification {
	if correct {
		if c.ConsecutiveCorrect >= MasteryStreak && c.WrongCount == 0 && c.TotalSeen >= MasteryMinSeen {
			return models.ClassMastered
		}
		return models.ClassLearning
	}
	if c.WrongCount >= MinWrongForDifficult || c.ErrorRate() > ErrorRateThreshold {
		return models.ClassDifficult
	}
	return models.ClassLearning
}

// reschedule puts a missed card back near the front of the active queue
// and at the end of every later queue that lacks it.
func (s *Scheduler) reschedule(c *models.Card) {
	q := s.queues[s.phase]
	pos := min(maxReinsertOffset, len(q)/2)
	s.queues[s.phase] = slices.Insert(q, pos, c)

	for i := s.phase + 1; i < len(s.queues); i++ {
		if !containsID(s.queues[i], c.ID) {
			s.queues[i] = append(s.queues[i], c)
		}
	}
}

// Skip sends the current card to the back of the active queue untouched.
func (s *Scheduler) Skip() (*models.Card, error) {
	if s.current == nil {
		return nil, fmt.Errorf("skip while %s: %w", s.state, ErrInvalidTransition)
	}
	c := s.current
	s.queues[s.phase] = append(s.queues[s.phase], c)
	s.clearSlot()
	return c, nil
}

// Advance activates phase index, drops any shown card and reshuffles the
// new phase queue.
func (s *Scheduler) Advance(index int) error {
	if index < 0 || index >= len(s.queues) {
		return fmt.Errorf("advance to %d of %d: %w", index, len(s.queues), ErrNoPhase)
	}
	s.phase = index
	s.clearSlot()
	if s.opts.Shuffler != nil {
		s.opts.Shuffler.Shuffle(s.queues[index])
	}
	s.log.Debug("phase %d active with %d cards", index, len(s.queues[index]))
	return nil
}

// Shift moves the display time of the shown card forward so a pause is
// not counted as response latency.
func (s *Scheduler) Shift(d time.Duration) {
	if s.current != nil {
		s.shownAt = s.shownAt.Add(d)
	}
}

// Reset forgets the shown card without touching any queue.
func (s *Scheduler) Reset() {
	s.clearSlot()
}

func (s *Scheduler) clearSlot() {
	s.current = nil
	s.state = NoCardShown
	s.shownAt = time.Time{}
}

func (s *Scheduler) Phase() int { return s.phase }

func (s *Scheduler) PhaseCount() int { return len(s.queues) }

func (s *Scheduler) Current() *models.Card { return s.current }

func (s *Scheduler) State() SlotState { return s.state }

// Remaining is the length of the active queue.
func (s *Scheduler) Remaining() int {
	if s.phase >= len(s.queues) {
		return 0
	}
	return len(s.queues[s.phase])
}

// Unseen counts active-queue cards that have never been shown.
func (s *Scheduler) Unseen() int {
	if s.phase >= len(s.queues) {
		return 0
	}
	n := 0
	for _, c := range s.queues[s.phase] {
		if c != nil && c.TotalSeen == 0 {
			n++
		}
	}
	return n
}

// Queue returns a copy of the queue for phase i.
func (s *Scheduler) Queue(i int) []*models.Card {
	if i < 0 || i >= len(s.queues) {
		return nil
	}
	return slices.Clone(s.queues[i])
}

func (s *Scheduler) Class(id int) (models.Classification, bool) {
	c, ok := s.class[id]
	return c, ok
}

// Members lists the ids in one classification set, ascending.
func (s *Scheduler) Members(class models.Classification) []int {
	var ids []int
	for id, c := range s.class {
		if c == class {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *Scheduler) Counts() models.ClassCounts {
	var out models.ClassCounts
	for _, c := range s.class {
		switch c {
		case models.ClassMastered:
			out.Mastered++
		case models.ClassDifficult:
			out.Difficult++
		default:
			out.Learning++
		}
	}
	return out
}

// Performance returns the session counters with the average latency of
// the last LatencyWindow verdicts.
func (s *Scheduler) Performance() models.Performance {
	p := s.perf
	if len(s.latencies) > 0 {
		var sum time.Duration
		for _, l := range s.latencies {
			sum += l
		}
		p.AvgLatency = sum / time.Duration(len(s.latencies))
	}
	return p
}

func containsID(q []*models.Card, id int) bool {
	return slices.ContainsFunc(q, func(c *models.Card) bool { return c != nil && c.ID == id })
}
