package realtime

import "sync"

// subscriberBuffer bounds how far a slow subscriber may lag before events
// are dropped for it.
const subscriberBuffer = 16

// Broadcaster publishes lightweight event names to SSE subscribers.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan string]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its event channel.
func (b *Broadcaster) Subscribe() chan string {
	ch := make(chan string, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan string) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers reports the number of attached subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers an event to all subscribers without blocking.
func (b *Broadcaster) Publish(event string) {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Lagging subscriber; the next event re-renders from a fresh snapshot.
		}
	}
	b.mu.Unlock()
}
