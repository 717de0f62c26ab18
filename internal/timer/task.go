package timer

import (
	"sync"
	"time"
)

// Canceler stops a repeating task. Cancel must be idempotent.
type Canceler interface {
	Cancel()
}

// Runner starts repeating tasks.
type Runner interface {
	Every(interval time.Duration, fn func()) Canceler
}

// Task is a repeating callback driven by a time.Ticker.
type Task struct {
	stop chan struct{}
	once sync.Once
}

// Every runs fn every interval on its own goroutine until cancelled.
// Cancel does not wait for an in-flight fn to return.
func Every(interval time.Duration, fn func()) *Task {
	t := &Task{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				if t.Cancelled() {
					return
				}
				fn()
			}
		}
	}()
	return t
}

// Cancel stops the task. Safe on nil and safe to repeat.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.stop) })
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	if t == nil {
		return true
	}
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// TickerRunner runs tasks on real tickers.
type TickerRunner struct{}

func (TickerRunner) Every(interval time.Duration, fn func()) Canceler {
	return Every(interval, fn)
}

// ManualRunner records tasks and fires them only on Fire. It lets tests
// drive periodic work deterministically.
type ManualRunner struct {
	mu    sync.Mutex
	tasks []*ManualTask
}

// ManualTask is a task registered with a ManualRunner.
type ManualTask struct {
	Interval time.Duration
	fn       func()
	mu       sync.Mutex
	done     bool
}

func (t *ManualTask) Cancel() {
	t.mu.Lock()
	t.done = true
	t.mu.Unlock()
}

func (t *ManualTask) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (r *ManualRunner) Every(interval time.Duration, fn func()) Canceler {
	t := &ManualTask{Interval: interval, fn: fn}
	r.mu.Lock()
	r.tasks = append(r.tasks, t)
	r.mu.Unlock()
	return t
}

// Active returns the tasks that have not been cancelled.
func (r *ManualRunner) Active() []*ManualTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ManualTask
	for _, t := range r.tasks {
		if !t.Cancelled() {
			out = append(out, t)
		}
	}
	return out
}

// Fire runs every active task with the given interval once. Tasks started
// or cancelled by a callback take effect on the next Fire.
func (r *ManualRunner) Fire(interval time.Duration) int {
	fired := 0
	for _, t := range r.Active() {
		if t.Interval != interval || t.Cancelled() {
			continue
		}
		t.fn()
		fired++
	}
	return fired
}
