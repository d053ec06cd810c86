package propagate

import "context"

// Transport delivers events between execution contexts. Implementations
// are interchangeable: the in-process transport serves directly related
// contexts, the NATS transport serves every subscriber on the shared
// channel.
type Transport interface {
	// Publish delivers an event to all current subscribers.
	Publish(ctx context.Context, e Event) error

	// Subscribe registers a handler for future events and returns an
	// unsubscribe function. Handlers are invoked sequentially per
	// subscriber; a handler must not block indefinitely.
	Subscribe(handler func(Event)) (func(), error)

	// Pending returns the most recently published event, if any. Used by
	// the startup replay check to catch updates published before the
	// subscriber attached. Returns nil when nothing is pending.
	Pending(ctx context.Context) (*Event, error)

	// Close releases transport resources.
	Close() error
}
