package clock

import (
	"sync"
	"time"
)

// Manual is a virtual TimeSource that only moves when Advance is called.
// Due actions fire synchronously on the goroutine calling Advance.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	actions []*manualAction
}

// NewManual returns a virtual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Manual) Schedule(fn func(), delay time.Duration) ScheduledAction {
	a := &manualAction{clock: c, fn: fn, delay: delay}

	c.mu.Lock()
	c.actions = append(c.actions, a)
	c.mu.Unlock()

	a.Restart()
	return a
}

// Advance moves the clock forward by d, firing every action that becomes due in deadline
// order. Callbacks run without the clock lock held and may restart or cancel actions.
func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if next.deadline.After(c.now) {
			c.now = next.deadline
		}
		next.armed = false
		c.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of armed actions.
func (c *Manual) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, a := range c.actions {
		if a.armed {
			n++
		}
	}
	return n
}

func (c *Manual) nextDueLocked(target time.Time) *manualAction {
	var next *manualAction
	for _, a := range c.actions {
		if !a.armed || a.deadline.After(target) {
			continue
		}
		if next == nil || a.deadline.Before(next.deadline) {
			next = a
		}
	}
	return next
}

type manualAction struct {
	clock *Manual
	fn    func()
	delay time.Duration

	// guarded by clock.mu
	deadline time.Time
	armed    bool
}

func (a *manualAction) Delay() time.Duration {
	return a.delay
}

func (a *manualAction) TimeRemaining() time.Duration {
	a.clock.mu.Lock()
	defer a.clock.mu.Unlock()

	if !a.armed {
		return 0
	}
	return a.deadline.Sub(a.clock.now)
}

func (a *manualAction) Cancel() {
	a.clock.mu.Lock()
	defer a.clock.mu.Unlock()
	a.armed = false
}

func (a *manualAction) Restart() {
	a.clock.mu.Lock()
	defer a.clock.mu.Unlock()
	a.deadline = a.clock.now.Add(a.delay)
	a.armed = true
}
