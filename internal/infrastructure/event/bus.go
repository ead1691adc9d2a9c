package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracerName identifies spans created by the event bus
const TracerName = "github.com/Z3RO333/formularios/internal/infrastructure/event"

// DefaultHandlerTimeout bounds a single handler call
const DefaultHandlerTimeout = 10 * time.Second

// InMemoryEventBus dispatches events to subscribed handlers in-process.
//
// Services publish only after their unit of work committed, so a handler
// failure never undoes a write: it is logged and the remaining handlers
// still run. Each handler call gets its own span and a bounded context that
// is detached from the caller's cancellation, so a client hanging up right
// after a commit does not drop the notification or the audit row.
type InMemoryEventBus struct {
	registry       *HandlerRegistry
	logger         *zap.Logger
	tracer         trace.Tracer
	handlerTimeout time.Duration
	running        atomic.Bool
	inflight       sync.WaitGroup
	failures       atomic.Int64
}

// BusOption configures the bus
type BusOption func(*InMemoryEventBus)

// WithHandlerTimeout overrides DefaultHandlerTimeout
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *InMemoryEventBus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

// WithTracer sets the tracer used for dispatch spans
func WithTracer(tracer trace.Tracer) BusOption {
	return func(b *InMemoryEventBus) {
		b.tracer = tracer
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry:       NewHandlerRegistry(),
		logger:         logger,
		tracer:         otel.Tracer(TracerName),
		handlerTimeout: DefaultHandlerTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands every event to its handlers. It returns nil even when
// handlers fail; failures are logged and counted.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.inflight.Add(1)
	defer b.inflight.Done()

	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.failures.Add(1)
				b.logger.Error("event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID().String()),
					zap.String("handler", fmt.Sprintf("%T", handler)),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used; an empty list makes it a wildcard handler.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.String("handler", fmt.Sprintf("%T", handler)),
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed", zap.String("handler", fmt.Sprintf("%T", handler)))
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Int("handlers", b.registry.Len()))
	return nil
}

// Stop waits for in-flight publishes or until ctx is done
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped", zap.Int64("handler_failures", b.failures.Load()))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

// IsRunning reports whether Start was called without a later Stop
func (b *InMemoryEventBus) IsRunning() bool {
	return b.running.Load()
}

// Failures returns the number of failed handler calls since creation
func (b *InMemoryEventBus) Failures() int64 {
	return b.failures.Load()
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.handlerTimeout)
	defer cancel()

	hctx, span := b.tracer.Start(hctx, "event.dispatch "+event.EventType(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.type", event.EventType()),
			attribute.String("event.id", event.EventID().String()),
			attribute.String("event.aggregate_type", event.AggregateType()),
			attribute.String("event.aggregate_id", event.AggregateID().String()),
			attribute.String("event.handler", fmt.Sprintf("%T", handler)),
		),
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return handler.Handle(hctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
