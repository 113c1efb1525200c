// Package publisher delivers audit events to a store, synchronously by
// default or through a buffered channel when async delivery is configured.
// Audit failures are logged and swallowed: the domain operation has already
// happened and must not be rolled back over observability.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	audit "felicity/pkg/platform/audit"
)

// Publisher emits audit events. The zero-option form writes through to the
// store on the caller's goroutine; WithAsyncBuffer moves delivery to a
// background worker that Close drains.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery with the given buffer size.
// When the buffer is full, Emit falls back to synchronous delivery rather
// than dropping the event.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.inbox {
		p.deliver(event)
	}
}

func (p *Publisher) deliver(event audit.Event) {
	if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
		p.logger.Error("audit event delivery failed",
			"action", event.Action,
			"error", err,
		)
	}
}

// Emit records an audit event. The event's category is derived from its
// action when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = event.Action.Category()
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
			return nil
		default:
		}
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.Error("audit event delivery failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

// Close drains the async buffer and stops the worker. Safe to call more than
// once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}
