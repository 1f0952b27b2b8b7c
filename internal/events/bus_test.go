package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursewatch/coursewatch/internal/core/domain"
)

func jobEvent(id string, state domain.JobState) domain.Event {
	return domain.ScrapeJobEvent{Job: domain.ScrapeJob{ID: id, State: state}}
}

func collect(t *testing.T, sub *Subscription, n int) []domain.Event {
	t.Helper()
	out := make([]domain.Event, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-sub.Events():
			require.True(t, ok, "subscription closed early")
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %d of %d", len(out), n)
		}
	}
	return out
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(8)
	defer sub.Close()

	bus.Publish(jobEvent("a", domain.JobQueued))
	bus.Publish(jobEvent("a", domain.JobRunning))
	bus.Publish(jobEvent("a", domain.JobCompleted))

	got := collect(t, sub, 3)
	states := make([]domain.JobState, 0, 3)
	for _, ev := range got {
		je, ok := ev.(domain.ScrapeJobEvent)
		require.True(t, ok)
		states = append(states, je.Job.State)
	}
	assert.Equal(t, []domain.JobState{domain.JobQueued, domain.JobRunning, domain.JobCompleted}, states)
}

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	first := bus.Subscribe(4)
	second := bus.Subscribe(4)
	defer first.Close()
	defer second.Close()

	bus.Publish(jobEvent("a", domain.JobQueued))

	require.Len(t, collect(t, first, 1), 1)
	require.Len(t, collect(t, second, 1), 1)
}

func TestBusDropsOldestWhenSubscriberFallsBehind(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	// Nobody reads from sub, so the queue fills and evicts from the front.
	sub := bus.Subscribe(2)
	defer sub.Close()

	// The pump takes one event out of the queue immediately, so publish
	// enough to overflow the bound regardless of pump timing.
	for i := 0; i < 10; i++ {
		bus.Publish(jobEvent("a", domain.JobRunning))
	}

	require.Eventually(t, func() bool {
		return sub.Dropped() > 0
	}, 2*time.Second, 10*time.Millisecond, "expected oldest events to be dropped")
}

func TestBusPublishDoesNotBlockWithoutReaders(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(1)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(jobEvent("a", domain.JobRunning))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(4)
	sub.Close()

	bus.Publish(jobEvent("a", domain.JobQueued))

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "channel should be closed, not delivering")
	case <-time.After(time.Second):
		t.Fatal("events channel never closed")
	}
}

func TestBusCloseClosesSubscriptions(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(4)

	bus.Close()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel never closed")
	}

	// Publishing and subscribing after close are harmless no-ops.
	bus.Publish(jobEvent("a", domain.JobQueued))
	late := bus.Subscribe(4)
	_, ok := <-late.Events()
	assert.False(t, ok)
}
