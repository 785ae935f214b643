package clock

import (
	"sync"
	"time"
)

// Real is a TimeSource backed by the wall clock. Actions fire on their own goroutine,
// so callers must serialize the callback with the rest of their state.
type Real struct{}

// NewReal returns the wall clock.
func NewReal() *Real {
	return &Real{}
}

func (*Real) Now() time.Time {
	return time.Now()
}

func (*Real) Schedule(fn func(), delay time.Duration) ScheduledAction {
	a := &realAction{fn: fn, delay: delay}
	a.Restart()
	return a
}

type realAction struct {
	fn    func()
	delay time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	deadline time.Time
	armed    bool
	// generation invalidates fires that were already dispatched when the action got
	// canceled or restarted.
	generation uint64
}

func (a *realAction) Delay() time.Duration {
	return a.delay
}

func (a *realAction) TimeRemaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.armed {
		return 0
	}
	return time.Until(a.deadline)
}

func (a *realAction) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
}

func (a *realAction) Restart() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	a.armed = true
	a.deadline = time.Now().Add(a.delay)
	generation := a.generation
	a.timer = time.AfterFunc(a.delay, func() { a.fire(generation) })
}

func (a *realAction) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.armed = false
	a.generation++
}

func (a *realAction) fire(generation uint64) {
	a.mu.Lock()
	if generation != a.generation || !a.armed {
		a.mu.Unlock()
		return
	}
	a.armed = false
	a.timer = nil
	a.mu.Unlock()

	a.fn()
}
