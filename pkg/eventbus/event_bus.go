// Package eventbus carries autoflow's workflow lifecycle events: status
// changes recorded by the approval machine, node results from the dispatcher
// and schedule registrations from the scheduler.
package eventbus

import (
	"context"

	"github.com/dukex/autoflow/pkg/events"
)

// Event is any lifecycle event from pkg/events.
type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes lifecycle events. key is the workflow id, so every
// event of one workflow lands on the same partition in order.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber routes delivered events to the handler registered for
// their type. Handle must be called before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives the decoded event value, for example an
// events.WorkflowStatusChanged. Returning an error redelivers the message.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	// GenerateID returns a fresh event id
	GenerateID() string
}
