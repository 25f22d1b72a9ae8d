package matching

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"log"
	mathrand "math/rand"
	"strings"
	"time"

	"matchlab/internal/records"
	"matchlab/pkg/realtime"
)

// StoreOptions configures the games every new desk receives.
type StoreOptions struct {
	Subjects   []Subject
	Records    records.Scoper
	Migrations []records.Migration
	Scheduler  realtime.Scheduler
	Tuning     Tuning
}

// Store holds visitor desks and delegates to realtime.RoomStore for
// broadcast and the per-desk clock loop.
type Store struct {
	r    *realtime.RoomStore[*Desk]
	opts StoreOptions
}

// NewStore creates an in-memory desk store.
func NewStore(opts StoreOptions) *Store {
	if len(opts.Subjects) == 0 {
		opts.Subjects = DefaultSubjects()
	}
	if opts.Migrations == nil {
		opts.Migrations = records.DefaultMigrations()
	}
	return &Store{r: realtime.NewRoomStore[*Desk](), opts: opts}
}

// Subjects returns the configured subjects in tab order.
func (s *Store) Subjects() []Subject {
	return append([]Subject(nil), s.opts.Subjects...)
}

// Desk returns the visitor's desk, creating it (and migrating the visitor's
// records) on first use.
func (s *Store) Desk(ctx context.Context, visitor string) (*Desk, error) {
	if room, ok := s.r.Get(visitor); ok {
		s.r.Touch(visitor, time.Now().UTC())
		return room.State, nil
	}
	desk, err := s.newDesk(ctx, visitor)
	if err != nil {
		return nil, err
	}
	room, _ := s.r.CreateIfAbsent(visitor, desk)
	return room.State, nil
}

// Lookup returns an existing desk without creating one.
func (s *Store) Lookup(visitor string) (*Desk, bool) {
	room, ok := s.r.Get(visitor)
	if !ok {
		return nil, false
	}
	s.r.Touch(visitor, time.Now().UTC())
	return room.State, true
}

// Len reports how many desks (and broadcaster placeholders) are held.
func (s *Store) Len() int {
	return s.r.Len()
}

// Sweep drops desks unused since now-idle that nobody is streaming, halting
// their clock loops. It returns how many were dropped.
func (s *Store) Sweep(now time.Time, idle time.Duration) int {
	evicted := s.r.Evict(now.Add(-idle))
	for _, visitor := range evicted {
		log.Printf("desk evicted visitor=%s", visitor)
	}
	return len(evicted)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now.UTC(), idle)
		}
	}
}

func (s *Store) newDesk(ctx context.Context, visitor string) (*Desk, error) {
	var kv records.KV
	if s.opts.Records != nil {
		kv = s.opts.Records.Scope(visitor)
		if err := records.Migrate(ctx, kv, s.opts.Migrations); err != nil {
			// Records degrade to absent; the games stay playable.
			log.Printf("records migrate visitor=%s err=%v", visitor, err)
		}
	}

	games := make([]*Game, 0, len(s.opts.Subjects))
	for _, subject := range s.opts.Subjects {
		var book *records.Book
		if kv != nil {
			book = records.NewBook(kv, records.KeyFor(subject.ID))
		}
		g, err := NewGame(Options{
			Subject: subject,
			Book:    book,
			Surface: BroadcastSurface{
				Subject: subject.ID,
				Publish: func(event string) { s.r.Publish(visitor, event) },
			},
			Scheduler: s.opts.Scheduler,
			Rand:      mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
			Tuning:    s.opts.Tuning,
		})
		if err != nil {
			return nil, fmt.Errorf("new game %s: %w", subject.ID, err)
		}
		games = append(games, g)
	}
	return NewDesk(visitor, games), nil
}

// ImportLegacy stores a best time the visitor's browser kept from the
// single-game release and refreshes the live game that inherits it.
func (s *Store) ImportLegacy(ctx context.Context, visitor string, seconds int) (bool, error) {
	if s.opts.Records == nil {
		return false, records.ErrUnavailable
	}
	imported, err := records.ImportLegacy(ctx, s.opts.Records.Scope(visitor), seconds)
	if err != nil || !imported {
		return imported, err
	}
	if desk, ok := s.Lookup(visitor); ok {
		if g, ok := desk.Game(records.LegacySubject); ok {
			g.ReloadBest(ctx)
		}
	}
	return true, nil
}

// Broadcaster returns the SSE broadcaster for a visitor's desk.
func (s *Store) Broadcaster(visitor string) *realtime.Broadcaster {
	return s.r.Broadcaster(visitor)
}

// Publish notifies a desk's subscribers.
func (s *Store) Publish(visitor string, event string) {
	s.r.Publish(visitor, event)
}

// EnsureClockLoop starts the desk's clock loop if it is not already running.
// The loop exits once no game on the desk has a running clock.
func (s *Store) EnsureClockLoop(visitor string) {
	getState := func() *Desk {
		room, ok := s.r.Get(visitor)
		if !ok {
			return nil
		}
		return room.State
	}
	tick := func(desk *Desk, now time.Time) (time.Time, []string, bool) {
		if desk == nil {
			return time.Time{}, nil, true
		}
		next, running := desk.Advance(now)
		if !running {
			return time.Time{}, nil, true
		}
		return next, nil, false
	}
	s.r.RunLoop(visitor, getState, tick)
}

// WakeClockLoop makes the desk's loop re-evaluate, e.g. after a clock stopped.
func (s *Store) WakeClockLoop(visitor string) {
	s.r.Wake(visitor)
}

// ClockLoopActive reports whether the desk's loop is running.
func (s *Store) ClockLoopActive(visitor string) bool {
	return s.r.Looping(visitor)
}

// NewVisitorID returns a short url-safe random identifier.
func NewVisitorID() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}
