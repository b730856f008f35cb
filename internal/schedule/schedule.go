// Package schedule provides the decay ticker and the sleep timer. Every timer
// is a cancelable Handle owned by whoever armed it; a stopped handle never
// runs its callback again.
package schedule

import "time"

// Handle is a cancelable timer.
type Handle interface {
	// Stop cancels the timer. It reports whether the call stopped an
	// active timer; stopping twice is a no-op.
	Stop() bool
}

// Scheduler arms periodic and one-shot timers.
type Scheduler interface {
	Every(d time.Duration, fn func()) Handle
	After(d time.Duration, fn func()) Handle
}

// Stop stops h if it is non-nil and reports whether anything was stopped.
func Stop(h Handle) bool {
	if h == nil {
		return false
	}
	return h.Stop()
}
