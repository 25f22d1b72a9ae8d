package realtime

import (
	"fmt"
	"time"
)

// TickInterval is how often a running stopwatch counts one elapsed second.
const TickInterval = time.Second

// Stopwatch counts whole elapsed seconds while running. It does not own a
// goroutine; a room loop calls Advance(now) and sleeps until NextWake.
// The zero value is an idle stopwatch at 0s.
type Stopwatch struct {
	Elapsed  int
	running  bool
	nextTick time.Time
}

// Running reports whether the stopwatch is counting.
func (s *Stopwatch) Running() bool {
	return s.running
}

// Start begins counting from the current Elapsed value. Starting a running
// stopwatch is a no-op and returns false.
func (s *Stopwatch) Start(now time.Time) bool {
	if s.running {
		return false
	}
	s.running = true
	s.nextTick = now.Add(TickInterval)
	return true
}

// Stop freezes Elapsed. Stopping an idle stopwatch is a no-op and returns false.
func (s *Stopwatch) Stop() bool {
	if !s.running {
		return false
	}
	s.running = false
	s.nextTick = time.Time{}
	return true
}

// Reset stops the stopwatch and zeroes Elapsed.
func (s *Stopwatch) Reset() {
	s.Stop()
	s.Elapsed = 0
}

// Advance counts every tick boundary at or before now and returns how many
// seconds were added. A loop that woke late catches up in one call.
func (s *Stopwatch) Advance(now time.Time) int {
	if !s.running {
		return 0
	}
	ticks := 0
	for !now.Before(s.nextTick) {
		s.Elapsed++
		s.nextTick = s.nextTick.Add(TickInterval)
		ticks++
	}
	return ticks
}

// NextWake returns the next tick boundary, or (zero, false) when idle.
func (s *Stopwatch) NextWake() (time.Time, bool) {
	if !s.running {
		return time.Time{}, false
	}
	return s.nextTick, true
}

// FormatClock renders seconds as zero-padded MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
