// Package pubsub provides a generic publish/subscribe broker used to fan out
// state snapshots and log entries to interested UI components.
package pubsub

import (
	"context"
	"sync"
	"time"
)

// EventType labels the kind of change an event describes.
type EventType string

const (
	// SnapshotEvent carries a full replacement of the published state.
	SnapshotEvent EventType = "snapshot"
	// InvalidatedEvent signals that previously published state is stale.
	InvalidatedEvent EventType = "invalidated"
)

// Event is a published value with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

const defaultBuffer = 64

// Broker fans events out to any number of subscribers. Publishing never
// blocks: when a subscriber's buffer is full its oldest event is evicted to
// make room, so the most recent event is always the one that survives. That
// is the right policy for snapshot streams, where a newer event supersedes
// everything before it.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	done   chan struct{}
	buffer int
}

// NewBroker creates a broker with the default subscriber buffer size.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		done:   make(chan struct{}),
		buffer: defaultBuffer,
	}
}

// Subscribe returns a channel of events. The subscription is removed and the
// channel closed when ctx is cancelled or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.buffer)
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		select {
		case <-b.done:
			return
		default:
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish delivers an event to every subscriber, evicting the oldest
// buffered event for subscribers that are not keeping up.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	ev := Event[T]{Type: t, Payload: payload, Timestamp: time.Now()}
	for sub := range b.subs {
		select {
		case sub <- ev:
			continue
		default:
		}
		// Full buffer: evict the oldest event so this one is not lost. A
		// terminal snapshot (search completed, cache invalidated) must reach
		// the subscriber even under backpressure.
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- ev:
		default:
		}
	}
}

// Close shuts the broker down and closes all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}
	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount reports the number of active subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
