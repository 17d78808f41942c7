package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

const defaultChannelBufferSize = 64

// Broker fans events out to every live subscriber. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Broker[T any] struct {
	subs     map[chan Event[T]]context.CancelFunc
	mu       sync.RWMutex
	isClosed bool
	// quiet suppresses the drop warnings. Brokers fed from the slog
	// handler must be quiet or a full subscriber would log into itself.
	quiet bool
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]context.CancelFunc),
	}
}

// NewQuietBroker returns a broker that drops events without logging.
func NewQuietBroker[T any]() *Broker[T] {
	b := NewBroker[T]()
	b.quiet = true
	return b
}

func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	if b.isClosed {
		b.mu.Unlock()
		return
	}
	b.isClosed = true

	for ch, cancel := range b.subs {
		cancel()
		close(ch)
		delete(b.subs, ch)
	}
	b.mu.Unlock()
	if !b.quiet {
		slog.Debug("pubsub broker shut down", "type", fmt.Sprintf("%T", *new(T)))
	}
}

// Subscribe returns a channel that is closed when ctx ends or the broker
// shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed {
		closedCh := make(chan Event[T])
		close(closedCh)
		return closedCh
	}

	subCtx, subCancel := context.WithCancel(ctx)
	ch := make(chan Event[T], defaultChannelBufferSize)
	b.subs[ch] = subCancel

	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			close(ch)
			delete(b.subs, ch)
		}
	}()

	return ch
}

func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.publish(Event[T]{Type: eventType, Payload: payload})
}

func (b *Broker[T]) PublishError(payload T, err error) {
	b.publish(Event[T]{Type: EventTypeFailed, Payload: payload, Err: err})
}

func (b *Broker[T]) publish(event Event[T]) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isClosed {
		if !b.quiet {
			slog.Warn("publish on closed pubsub broker", "type", event.Type)
		}
		return
	}

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			if !b.quiet {
				slog.Warn("pubsub subscriber is full, dropping event", "type", event.Type)
			}
		}
	}
}

func (b *Broker[T]) GetSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
