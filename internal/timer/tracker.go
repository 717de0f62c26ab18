// Package timer holds the pause-aware elapsed time accounting of a study
// session and the repeating tasks that poll it.
package timer

import "time"

// Tracker measures session, phase and rate elapsed time. A pause never
// counts: on resume every start timestamp is moved forward by the length
// of the pause, so elapsed math needs no pause branches.
type Tracker struct {
	sessionStart time.Time
	phaseStart   time.Time
	rateStart    time.Time

	paused      bool
	pausedAt    time.Time
	totalPaused time.Duration
}

func NewTracker(now time.Time) *Tracker {
	return &Tracker{sessionStart: now, phaseStart: now, rateStart: now}
}

// StartPhase restarts phase accounting.
func (t *Tracker) StartPhase(now time.Time) {
	t.phaseStart = t.effective(now)
}

// Pause freezes every elapsed value. It returns false if already paused.
func (t *Tracker) Pause(now time.Time) bool {
	if t.paused {
		return false
	}
	t.paused = true
	t.pausedAt = now
	return true
}

// Resume shifts all start timestamps by the pause length and returns it.
// The boolean is false if the tracker was not paused.
func (t *Tracker) Resume(now time.Time) (time.Duration, bool) {
	if !t.paused {
		return 0, false
	}
	d := now.Sub(t.pausedAt)
	if d < 0 {
		d = 0
	}
	t.sessionStart = t.sessionStart.Add(d)
	t.phaseStart = t.phaseStart.Add(d)
	t.rateStart = t.rateStart.Add(d)
	t.totalPaused += d
	t.paused = false
	t.pausedAt = time.Time{}
	return d, true
}

func (t *Tracker) Paused() bool { return t.paused }

// TotalPaused is the sum of all completed pauses.
func (t *Tracker) TotalPaused() time.Duration { return t.totalPaused }

func (t *Tracker) SessionElapsed(now time.Time) time.Duration {
	return t.since(t.sessionStart, now)
}

func (t *Tracker) PhaseElapsed(now time.Time) time.Duration {
	return t.since(t.phaseStart, now)
}

func (t *Tracker) RateElapsed(now time.Time) time.Duration {
	return t.since(t.rateStart, now)
}

// SessionStartedAt is the pause-shifted session start.
func (t *Tracker) SessionStartedAt() time.Time { return t.sessionStart }

// EffectiveNow is now, or the pause start while paused.
func (t *Tracker) EffectiveNow(now time.Time) time.Time {
	return t.effective(now)
}

func (t *Tracker) effective(now time.Time) time.Time {
	if t.paused {
		return t.pausedAt
	}
	return now
}

func (t *Tracker) since(start, now time.Time) time.Duration {
	d := t.effective(now).Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// PhaseDue reports whether a phase may advance: its budget is spent and
// every card left in its queue has been shown at least once. An empty
// queue is not due here; the scheduler reports that case itself.
func PhaseDue(elapsed, budget time.Duration, queueLen, unseen int) bool {
	return elapsed >= budget && queueLen > 0 && unseen == 0
}

// Remaining is budget minus elapsed, floored at zero.
func Remaining(elapsed, budget time.Duration) time.Duration {
	if elapsed >= budget {
		return 0
	}
	return budget - elapsed
}

// Progress is elapsed over budget in [0,1].
func Progress(elapsed, budget time.Duration) float64 {
	if budget <= 0 {
		return 1
	}
	return min(1, float64(elapsed)/float64(budget))
}
