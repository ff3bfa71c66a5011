// Package publisher dispatches funding events to the event store and any
// configured sinks.
//
// Emission is fire-and-forget by design: the donor-facing primary operation
// has already committed, so a failing store or sink is logged and dropped,
// never propagated back into the money path. Async mode buffers events on a
// channel drained by a single goroutine; Close drains the buffer.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"givepool/pkg/platform/events"
)

type Publisher struct {
	store  events.Store
	sinks  []events.Sink
	logger *slog.Logger

	inbox  chan events.Event
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// channel capacity. A full buffer drops the event (logged), keeping Emit
// non-blocking.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan events.Event, size)
	}
}

// WithSink adds a delivery sink invoked after the store append.
func WithSink(sink events.Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sink)
	}
}

// WithLogger sets a logger for dropped or failed deliveries.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store events.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit dispatches one event. In sync mode the append happens inline; in
// async mode the event is buffered. Either way, emission failures stay
// inside the publisher.
func (p *Publisher) Emit(ctx context.Context, event events.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		p.deliver(ctx, event)
		return nil
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("event buffer full, dropping event", "type", event.Type, "project_id", event.ProjectID)
	}
	return nil
}

// List returns every stored event, oldest first.
func (p *Publisher) List(ctx context.Context) ([]events.Event, error) {
	return p.store.List(ctx)
}

// Close drains the async buffer and stops the worker. Safe to call twice.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		close(p.closed)
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Detached context: the emitting request may be long gone.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		p.deliver(ctx, event)
		cancel()
	}
}

func (p *Publisher) deliver(ctx context.Context, event events.Event) {
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.Warn("event store append failed", "type", event.Type, "error", err)
	}
	for _, sink := range p.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			p.logger.Warn("event sink delivery failed", "type", event.Type, "error", err)
		}
	}
}
