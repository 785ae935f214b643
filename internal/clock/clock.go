// Package clock abstracts the passing of time so turn limits can be driven either by the
// wall clock or by a manually advanced virtual clock.
package clock

import "time"

// TimeSource tells the current time and schedules deferred actions.
type TimeSource interface {
	Now() time.Time
	// Schedule arms fn to be invoked once delay has passed.
	Schedule(fn func(), delay time.Duration) ScheduledAction
}

// ScheduledAction is a single pending invocation with a fixed delay.
type ScheduledAction interface {
	// Delay is the time between arming the action and its invocation.
	Delay() time.Duration
	// TimeRemaining is <= 0 once the action was invoked or canceled.
	TimeRemaining() time.Duration
	// Cancel prevents the invocation. Canceling an invoked or canceled action has no effect.
	Cancel()
	// Restart re-arms the action with its full delay, whatever its current state.
	Restart()
}
