// Package publisher fans ledger notifications out to event sinks.
// Synchronous by default; WithAsyncBuffer turns on buffered background
// delivery that is drained on Close.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chariledger/internal/ledger"
	"chariledger/internal/ledger/ports"
)

type Publisher struct {
	sinks  []ports.EventSink
	logger *slog.Logger
	now    func() time.Time

	buffer chan ledger.Envelope
	wg     sync.WaitGroup
	once   sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithAsyncBuffer enables background delivery through a buffer of the
// given size. When the buffer is full the envelope is dropped and
// logged; notifications are best-effort for indexers, never
// back-pressure on the ledger.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan ledger.Envelope, size)
	}
}

// New builds a publisher over the given sinks.
func New(sinks []ports.EventSink, opts ...Option) *Publisher {
	p := &Publisher{
		sinks:  sinks,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit wraps the event in an envelope and delivers it to every sink.
func (p *Publisher) Emit(ctx context.Context, ev ledger.Event) error {
	env := ledger.Envelope{
		Name:      ev.EventName(),
		Timestamp: p.now(),
		Payload:   ev,
	}

	if p.buffer == nil {
		p.deliver(ctx, env)
		return nil
	}

	select {
	case p.buffer <- env:
	default:
		p.logger.Warn("event buffer full, dropping notification",
			"event", env.Name,
		)
	}
	return nil
}

// Close drains the async buffer and stops the worker. Safe to call
// multiple times.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
		}
	})
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for env := range p.buffer {
		p.deliver(context.Background(), env)
	}
}

func (p *Publisher) deliver(ctx context.Context, env ledger.Envelope) {
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, env); err != nil {
			p.logger.ErrorContext(ctx, "failed to publish notification",
				"event", env.Name,
				"error", err,
			)
		}
	}
}
