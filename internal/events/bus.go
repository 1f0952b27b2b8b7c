// Package events implements the in-process event bus that decouples event
// producers (reconciliation, job lifecycle) from consumers (live subscribers).
//
// Publish never blocks the producer. Each subscription owns a bounded queue;
// when a subscriber falls behind, its oldest unread events are dropped and
// counted rather than stalling producers or growing memory without bound.
// Delivery is FIFO per subscriber; there is no cross-subscriber ordering
// guarantee.
package events

import (
	"sync"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
)

// DefaultBuffer is the per-subscriber queue bound used when Subscribe is
// given a non-positive buffer size.
const DefaultBuffer = 64

// Ensure Bus implements the publisher port.
var _ driven.EventPublisher = (*Bus)(nil)

// Bus fans published domain events out to all active subscriptions.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Publish enqueues the event on every subscription and returns immediately.
// Publishing on a closed bus is a no-op.
func (b *Bus) Publish(event domain.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.enqueue(event)
	}
}

// Subscribe registers a new subscriber with the given queue bound.
// Non-positive buffer sizes fall back to DefaultBuffer. Subscriptions on a
// closed bus are returned already closed.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	sub := &Subscription{
		bus:   b,
		limit: buffer,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		out:   make(chan domain.Event),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.closed = true
		close(sub.done)
		close(sub.out)
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.pump()
	return sub
}

// Close shuts the bus down and closes every subscription's event channel.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[uint64]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// remove detaches a subscription after its Close.
func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Subscription is one subscriber's live, ordered view of published events.
type Subscription struct {
	bus   *Bus
	id    uint64
	limit int

	mu      sync.Mutex
	queue   []domain.Event
	dropped int
	closed  bool

	wake chan struct{}
	done chan struct{}
	out  chan domain.Event
}

// Events returns the channel delivering this subscription's events in
// publish order. The channel is closed when the subscription or bus closes.
func (s *Subscription) Events() <-chan domain.Event {
	return s.out
}

// Dropped returns how many events were discarded because the subscriber
// fell behind its queue bound.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close detaches the subscription from the bus. Pending events are
// discarded and the Events channel is closed.
func (s *Subscription) Close() {
	s.bus.remove(s.id)
	s.close()
}

// enqueue appends an event, evicting the oldest unread one when full.
func (s *Subscription) enqueue(event domain.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= s.limit {
		s.queue = s.queue[1:]
		s.dropped++
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves events from the bounded queue to the out channel.
func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		event := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- event:
		case <-s.done:
			return
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	close(s.done)
}
