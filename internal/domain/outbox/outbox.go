package outbox

import (
	"context"
	"errors"
)

// ErrBusStopped is returned by Publish once the bus no longer accepts events.
var ErrBusStopped = errors.New("outbox: bus stopped")

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// HandlerFor adapts a typed handler to Handler. Events of any other type are ignored.
func HandlerFor[E Event](h func(ctx context.Context, e E) error) Handler {
	return func(ctx context.Context, e Event) error {
		typed, ok := e.(E)
		if !ok {
			return nil
		}
		return h(ctx, typed)
	}
}
