package realtime

import "time"

// Cancel stops a scheduled action. It reports whether the action was
// stopped before it ran.
type Cancel interface {
	Stop() bool
}

// Scheduler runs one-shot delayed actions.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Cancel
}

// WallClock schedules with time.AfterFunc.
type WallClock struct{}

// AfterFunc runs f in its own goroutine once d has elapsed.
func (WallClock) AfterFunc(d time.Duration, f func()) Cancel {
	return time.AfterFunc(d, f)
}
