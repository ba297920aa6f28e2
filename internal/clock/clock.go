// Package clock provides the schedulers that drive reveal animations.
//
// All callbacks handed to a Scheduler are expected to run serialized: the
// Loop runs them on its own goroutine, Manual runs them on the caller's.
package clock

import "time"

// Timer is a periodic callback started by a Scheduler.
type Timer interface {
	// Stop prevents any further invocation of the callback. Safe to call
	// multiple times.
	Stop()
}

// Scheduler runs fn every period until the returned Timer is stopped.
// A non-positive period or nil fn yields a timer that never fires.
type Scheduler interface {
	Every(period time.Duration, fn func()) Timer
}

type nopTimer struct{}

func (nopTimer) Stop() {}

// Nop is a Scheduler whose timers are never scheduled.
var Nop Scheduler = nopScheduler{}

type nopScheduler struct{}

func (nopScheduler) Every(time.Duration, func()) Timer { return nopTimer{} }
