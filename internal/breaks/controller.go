// Package breaks enforces periodic study breaks.
package breaks

import (
	"time"

	"github.com/vytor/scholarsrs/internal/logger"
)

const (
	DefaultInterval = 25 * time.Minute
	DefaultDuration = 5 * time.Minute
	// CountdownStep is how much one Tick removes from a running break.
	CountdownStep = time.Second
)

// Controller tracks the Studying/OnBreak state. It is not safe for
// concurrent use; the session serializes access.
type Controller struct {
	interval  time.Duration
	duration  time.Duration
	deadline  time.Time
	onBreak   bool
	remaining time.Duration
	log       *logger.Logger
}

// New schedules the first break interval after now. Non-positive values
// fall back to the defaults.
func New(now time.Time, interval, duration time.Duration, log *logger.Logger) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	if log == nil {
		log = logger.Default()
	}
	return &Controller{
		interval: interval,
		duration: duration,
		deadline: now.Add(interval),
		log:      log.WithPrefix("breaks"),
	}
}

// Due reports whether the break deadline has been reached while studying.
func (c *Controller) Due(now time.Time) bool {
	return !c.onBreak && !now.Before(c.deadline)
}

// Start enters a break with the full duration left.
func (c *Controller) Start() bool {
	if c.onBreak {
		return false
	}
	c.onBreak = true
	c.remaining = c.duration
	c.log.Info("break started for %s", c.duration)
	return true
}

// Tick counts the break down by one step and reports whether it is used up.
func (c *Controller) Tick() bool {
	if !c.onBreak {
		return false
	}
	c.remaining -= CountdownStep
	if c.remaining <= 0 {
		c.remaining = 0
		return true
	}
	return false
}

// End leaves the break and schedules the next one interval after now.
func (c *Controller) End(now time.Time) {
	c.onBreak = false
	c.remaining = 0
	c.deadline = now.Add(c.interval)
	c.log.Debug("next break at %s", c.deadline.Format(time.RFC3339))
}

// Skip ends a running break early. It returns false when not on break.
func (c *Controller) Skip(now time.Time) bool {
	if !c.onBreak {
		return false
	}
	c.log.Info("break skipped with %s left", c.remaining)
	c.End(now)
	return true
}

// Shift moves the deadline forward, used after a pause.
func (c *Controller) Shift(d time.Duration) {
	c.deadline = c.deadline.Add(d)
}

func (c *Controller) OnBreak() bool { return c.onBreak }

func (c *Controller) Remaining() time.Duration { return c.remaining }

func (c *Controller) Deadline() time.Time { return c.deadline }

// NextBreakIn is the time left until the deadline, zero once reached.
func (c *Controller) NextBreakIn(now time.Time) time.Duration {
	if d := c.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
