package realtime

import (
	"context"
	"sync"
	"time"
)

// Room holds state and a broadcaster for one room.
type Room[T any] struct {
	ID    string
	State T
	hub   *Broadcaster
	// filled is false for rooms created only to hold a broadcaster.
	filled  bool
	touched time.Time
}

// RoomStore manages rooms, their broadcasters and their timing loops.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	rooms map[string]*Room[T]
	loops map[string]context.CancelFunc
	wakes map[string]chan struct{}
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any]() *RoomStore[T] {
	return &RoomStore[T]{
		rooms: make(map[string]*Room[T]),
		loops: make(map[string]context.CancelFunc),
		wakes: make(map[string]chan struct{}),
	}
}

// Create adds a room with the given id and state, replacing any existing one.
func (s *RoomStore[T]) Create(id string, state T) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster(), filled: true, touched: time.Now().UTC()}
	s.rooms[id] = r
	return r
}

// CreateIfAbsent adds the room unless one with state already exists. A room
// that so far only holds a broadcaster keeps it and receives state. It
// returns the stored room and whether state was the one stored.
func (s *RoomStore[T]) CreateIfAbsent(id string, state T) (*Room[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		if r.filled {
			return r, false
		}
		r.State = state
		r.filled = true
		r.touched = time.Now().UTC()
		return r, true
	}
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster(), filled: true, touched: time.Now().UTC()}
	s.rooms[id] = r
	return r, true
}

// Get returns the room by ID if it exists and holds state.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok || !r.filled {
		return nil, false
	}
	return r, true
}

// Touch marks the room as used at now.
func (s *RoomStore[T]) Touch(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok && now.After(r.touched) {
		r.touched = now
	}
}

// Delete halts the room's loop and removes the room.
func (s *RoomStore[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
}

func (s *RoomStore[T]) deleteLocked(id string) {
	if cancel, ok := s.loops[id]; ok {
		cancel()
	}
	delete(s.rooms, id)
}

// Evict removes rooms last touched before cutoff that have no subscribers,
// halting their loops, and returns their ids. Broadcaster placeholders are
// evicted once nobody listens on them.
func (s *RoomStore[T]) Evict(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted []string
	for id, r := range s.rooms {
		if r.hub != nil && r.hub.Subscribers() > 0 {
			continue
		}
		if r.filled && !r.touched.Before(cutoff) {
			continue
		}
		s.deleteLocked(id)
		evicted = append(evicted, id)
	}
	return evicted
}

// Len reports how many rooms are stored.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Publish notifies subscribers of the room's broadcaster.
func (s *RoomStore[T]) Publish(id string, event string) {
	s.mu.RLock()
	r, ok := s.rooms[id]
	s.mu.RUnlock()
	if !ok || r.hub == nil {
		return
	}
	r.hub.Publish(event)
}

// Broadcaster returns the broadcaster for the room, creating an empty room if
// none exists so that subscribers may attach before the state arrives.
func (s *RoomStore[T]) Broadcaster(id string) *Broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		hub := NewBroadcaster()
		s.rooms[id] = &Room[T]{ID: id, hub: hub}
		return hub
	}
	if r.hub == nil {
		r.hub = NewBroadcaster()
	}
	return r.hub
}

// TickFunc is called by RunLoop to determine the next wake time and events to publish.
// stop true means exit the loop.
type TickFunc[T any] func(state T, now time.Time) (next time.Time, events []string, stop bool)

// RunLoop starts a timing loop for the room. If a loop already exists for id it
// is woken instead, so a loop that was about to stop re-evaluates first.
func (s *RoomStore[T]) RunLoop(id string, getState func() T, tick TickFunc[T]) {
	s.mu.Lock()
	if wake, ok := s.wakes[id]; ok {
		select {
		case wake <- struct{}{}:
		default:
		}
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	s.loops[id] = cancel
	s.wakes[id] = wake
	s.mu.Unlock()

	release := func() {
		delete(s.loops, id)
		delete(s.wakes, id)
		cancel()
	}

	go func() {
		for {
			state := getState()
			now := time.Now().UTC()
			next, events, stop := tick(state, now)
			if stop {
				s.mu.Lock()
				select {
				case <-wake:
					// RunLoop or Wake raced the stop decision; tick again.
					s.mu.Unlock()
					continue
				default:
				}
				release()
				s.mu.Unlock()
				return
			}
			// Publish immediately so subscribers see the state the tick produced.
			for _, e := range events {
				s.Publish(id, e)
			}
			wait := time.Until(next)
			if wait < 0 {
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.mu.Lock()
				release()
				s.mu.Unlock()
				return
			case <-timer.C:
			case <-wake:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
		}
	}()
}

// Looping reports whether a loop is active for id.
func (s *RoomStore[T]) Looping(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loops[id]
	return ok
}

// Wake unblocks the room's loop so it recomputes immediately.
func (s *RoomStore[T]) Wake(id string) {
	s.mu.RLock()
	wake, ok := s.wakes[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}

// Halt cancels the room's loop, if any.
func (s *RoomStore[T]) Halt(id string) {
	s.mu.RLock()
	cancel, ok := s.loops[id]
	s.mu.RUnlock()
	if ok {
		cancel()
	}
}
