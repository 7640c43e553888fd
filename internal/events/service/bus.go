// Package service implements the security event bus: a non-blocking publisher
// with a bounded replay buffer, fan-out to subscribers and forwarding to sinks
// (structured logs, monitoring, metrics).
package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

// DefaultReplayCapacity is the number of most recent events kept for replay.
const DefaultReplayCapacity = 100

// Sink receives every published event on the bus dispatcher goroutine.
type Sink interface {
	Handle(ctx context.Context, event eventsDomain.SecurityEvent)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event eventsDomain.SecurityEvent)

// Handle implements Sink.
func (f SinkFunc) Handle(ctx context.Context, event eventsDomain.SecurityEvent) {
	f(ctx, event)
}

// Bus is a many-producer, many-consumer security event stream.
//
// Publish never blocks: the replay ring drops its oldest entry when full and
// each subscriber queue drops its oldest pending event when the consumer
// falls behind. Sinks run on a single dispatcher goroutine fed through a
// queue with the same drop-oldest policy, so a slow monitoring backend can
// never back-pressure a producer.
//
// Thread safety: all methods are safe for concurrent use.
type Bus struct {
	mu       sync.Mutex
	ring     []eventsDomain.SecurityEvent
	head     int
	size     int
	subs     map[uint64]*subscription
	nextID   uint64
	closed   bool
	dispatch *subscription

	sinks  []Sink
	done   chan struct{}
	cancel context.CancelFunc
}

type subscription struct {
	ch      chan eventsDomain.SecurityEvent
	dropped uint64
}

// offer enqueues without blocking, evicting the oldest queued event when full.
func (s *subscription) offer(event eventsDomain.SecurityEvent) {
	for range 3 {
		select {
		case s.ch <- event:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
	s.dropped++
}

// NewBus creates a bus keeping the given number of events for replay and
// starts the sink dispatcher. A non-positive capacity selects DefaultReplayCapacity.
// Call Close to stop the dispatcher.
func NewBus(capacity int, sinks ...Sink) *Bus {
	if capacity <= 0 {
		capacity = DefaultReplayCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		ring:     make([]eventsDomain.SecurityEvent, capacity),
		subs:     make(map[uint64]*subscription),
		dispatch: &subscription{ch: make(chan eventsDomain.SecurityEvent, capacity)},
		sinks:    sinks,
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	go b.runDispatcher(ctx)

	return b
}

// Publish appends the event to the replay buffer and delivers it to every
// subscriber and sink. Events with a zero ID or timestamp are completed with
// fresh values. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(event eventsDomain.SecurityEvent) {
	if event.ID == uuid.Nil || event.Timestamp.IsZero() {
		fresh := eventsDomain.NewEvent(event.Type, event.Level, event.Message, event.Details)
		if event.ID == uuid.Nil {
			event.ID = fresh.ID
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = fresh.Timestamp
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	capacity := len(b.ring)
	b.ring[(b.head+b.size)%capacity] = event
	if b.size < capacity {
		b.size++
	} else {
		b.head = (b.head + 1) % capacity
	}

	for _, sub := range b.subs {
		sub.offer(event)
	}
	b.dispatch.offer(event)
}

// Subscribe registers a consumer. The returned channel is pre-filled with the
// buffered backlog (oldest first) and then receives live events. The
// subscription ends, and the channel is closed, when ctx is done, the returned
// cancel function is called, or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan eventsDomain.SecurityEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{ch: make(chan eventsDomain.SecurityEvent, len(b.ring))}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	for _, event := range b.snapshotLocked(0) {
		sub.ch <- event
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = sub

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}

	stop := context.AfterFunc(ctx, unsubscribe)

	return sub.ch, func() {
		stop()
		unsubscribe()
	}
}

// Recent returns up to limit of the most recent events, oldest first.
// A non-positive limit returns the whole backlog.
func (b *Bus) Recent(limit int) []eventsDomain.SecurityEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(limit)
}

func (b *Bus) snapshotLocked(limit int) []eventsDomain.SecurityEvent {
	n := b.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]eventsDomain.SecurityEvent, 0, n)
	capacity := len(b.ring)
	for i := b.size - n; i < b.size; i++ {
		out = append(out, b.ring[(b.head+i)%capacity])
	}
	return out
}

// Dropped returns the number of events the sink dispatcher discarded because
// it fell behind.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dispatch.dropped
}

// Close stops the dispatcher after it drains queued events and closes every
// subscriber channel. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	close(b.dispatch.ch)
	b.mu.Unlock()

	<-b.done
	b.cancel()
}

func (b *Bus) runDispatcher(ctx context.Context) {
	defer close(b.done)
	for event := range b.dispatch.ch {
		for _, sink := range b.sinks {
			sink.Handle(ctx, event)
		}
	}
}
