package pubsub

import "context"

type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeFailed  EventType = "failed"
)

type Event[T any] struct {
	Type    EventType
	Payload T
	// Err is set on EventTypeFailed.
	Err error
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
	PublishError(payload T, err error)
}
