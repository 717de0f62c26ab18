package session

import (
	"math"
	"time"

	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/scheduler"
	"github.com/vytor/scholarsrs/internal/timer"
)

func (s *Session) buildReport(now time.Time) models.Report {
	elapsed := s.tracker.SessionElapsed(now)
	counts := s.sched.Counts()
	perf := s.sched.Performance()
	total := s.store.Len()

	return models.Report{
		SessionID:      s.id,
		TotalHours:     s.hours,
		MasteredCount:  counts.Mastered,
		TotalCount:     total,
		MasteryPercent: percent(counts.Mastered, total),
		Elapsed:        elapsed,
		Hours:          int(elapsed.Hours()),
		Minutes:        int(elapsed.Minutes()) % 60,
		AccuracyPct:    perf.AccuracyPct(),
		LearningRate:   overallRate(perf.TotalAttempts, elapsed),
		TotalReviews:   perf.CardsSeen,
		LongestStreak:  perf.LongestStreak,
		StartedAt:      s.startedAt,
		CompletedAt:    now,
	}
}

func (s *Session) snapshot(now time.Time) models.Snapshot {
	i := s.sched.Phase()
	phaseElapsed := s.tracker.PhaseElapsed(now)
	budget := s.budget(i)
	counts := s.sched.Counts()
	perf := s.sched.Performance()
	total := s.store.Len()

	snap := models.Snapshot{
		SessionID:      s.id,
		PhaseIndex:     i,
		PhaseName:      s.phaseName(i),
		PhaseRemaining: timer.Remaining(phaseElapsed, budget),
		PhaseProgress:  timer.Progress(phaseElapsed, budget),
		SessionElapsed: s.tracker.SessionElapsed(now),
		Slot:           s.sched.State().String(),
		Card:           s.cardView(),
		RemainingCards: s.sched.Remaining(),
		TotalCards:     total,
		Counts:         counts,
		Performance:    perf,
		AccuracyPct:    perf.AccuracyPct(),
		LearningRate:   s.liveRate(now),
		Paused:         s.tracker.Paused(),
		OnBreak:        s.breaks.OnBreak(),
		BreakRemaining: s.breaks.Remaining(),
		NextBreakIn:    s.breaks.NextBreakIn(s.tracker.EffectiveNow(now)),
		Completed:      s.completed || s.stopped,
		Report:         s.report,
	}
	if total > 0 {
		snap.OverallProgress = float64(counts.Mastered) / float64(total)
	}
	return snap
}

func (s *Session) cardView() *models.CardView {
	c := s.sched.Current()
	if c == nil {
		return nil
	}
	v := &models.CardView{
		ID:              c.ID,
		Question:        c.Question,
		Revealed:        s.sched.State() == scheduler.AnswerRevealed,
		Skippable:       c.TotalSeen > 1,
		DifficultyLevel: c.DifficultyLevel(),
		TotalSeen:       c.TotalSeen,
	}
	if v.Revealed {
		v.Answer = c.Answer
	}
	return v
}

// overallRate is verdicts per pause-adjusted minute, rounded to 2 places.
func overallRate(verdicts int, elapsed time.Duration) float64 {
	mins := elapsed.Minutes()
	if mins <= 0 {
		return 0
	}
	return round2(float64(verdicts) / mins)
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
