package events

import "context"

// Store persists emitted events. Implementations must tolerate concurrent
// appends.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Sink receives every emitted event after the store append. Sink failures
// are logged by the publisher and never surfaced to emitters.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}
