package matching

import (
	"fmt"
	"sync"
	"time"
)

// Desk holds one game per subject for a single visitor and acts as the tab
// controller: only the active subject's clock may keep running.
type Desk struct {
	Visitor string

	mu     sync.Mutex
	order  []string
	games  map[string]*Game
	active string
}

// NewDesk groups games in tab order; the first game starts active.
func NewDesk(visitor string, games []*Game) *Desk {
	d := &Desk{
		Visitor: visitor,
		games:   make(map[string]*Game, len(games)),
	}
	for _, g := range games {
		id := g.Subject().ID
		d.order = append(d.order, id)
		d.games[id] = g
	}
	if len(d.order) > 0 {
		d.active = d.order[0]
	}
	return d
}

// Game returns the game for subject.
func (d *Desk) Game(subject string) (*Game, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.games[subject]
	return g, ok
}

// Subjects returns the desk's subjects in tab order.
func (d *Desk) Subjects() []Subject {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Subject, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.games[id].Subject())
	}
	return out
}

// Active returns the subject currently in view.
func (d *Desk) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Switch brings subject into view and pauses every other game's clock.
func (d *Desk) Switch(subject string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.games[subject]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}
	d.active = subject
	for id, g := range d.games {
		if id != subject {
			g.StopTimer()
		}
	}
	return nil
}

// StopAll pauses every clock on the desk.
func (d *Desk) StopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, g := range d.games {
		g.StopTimer()
	}
}

// Advance ticks every running clock up to now and returns the earliest next
// tick, or false when no clock is running.
func (d *Desk) Advance(now time.Time) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var next time.Time
	running := false
	for _, id := range d.order {
		g := d.games[id]
		g.Advance(now)
		wake, ok := g.NextWake()
		if !ok {
			continue
		}
		if !running || wake.Before(next) {
			next = wake
		}
		running = true
	}
	return next, running
}
