// Package events carries the in-process domain event plumbing. Modules
// publish facts about what happened and subscribe to each other's events
// without importing each other.
package events

import (
	"context"
	"time"
)

// Event is a fact that already happened. Implementations are value types.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	// OccurredAt is the publish-side timestamp.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp so concrete events only add their payload.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events it subscribed to. Returning an error only affects
// PublishSync callers; asynchronous delivery logs and moves on.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events from publishers to subscribed handlers.
type Bus interface {
	// Publish delivers the event to all handlers of its name without
	// waiting for them.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler,
	// returning the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for events named eventName.
	Subscribe(eventName string, handler Handler)
}
