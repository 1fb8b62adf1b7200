package client

import (
	"sync"

	"github.com/gutenbae/gutenbae-server/internal/sse"
)

// busBuffer bounds each subscriber's queue. A tab that stops draining
// loses facts rather than stalling its siblings.
const busBuffer = 64

// Bus is the same-device fallback channel: when the server push stream
// is unavailable, the tab that performed a write relays the resulting
// fact to its sibling tabs through here. Subscribers treat bus facts
// exactly like streamed ones; the reconciler's idempotence absorbs the
// case where both paths deliver the same fact.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan sse.Fact
	next int
}

// NewBus creates an empty fallback bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan sse.Fact)}
}

// Subscribe registers a new listener. The returned cancel function
// removes the subscription and closes its channel; it is safe to call
// more than once.
func (b *Bus) Subscribe() (<-chan sse.Fact, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan sse.Fact, busBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish fans a fact out to every subscriber without blocking the
// publisher. Full subscriber queues drop the fact.
func (b *Bus) Publish(fact sse.Fact) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- fact:
		default:
		}
	}
}
