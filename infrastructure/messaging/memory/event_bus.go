package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/events"
)

// EventBus is an in-process event bus. Editing services publish through it
// during a request; projections like the navigation tree and the renderer
// fan-in subscribe to it. Subscriber errors and panics are logged and never
// reach the publishing service.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	logger   *zap.Logger
}

// NewEventBus creates an empty in-memory event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]ports.EventHandler),
		logger:   logger,
	}
}

// Publish delivers an event to every handler subscribed to its type
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.mu.RLock()
	subscribed := make([]ports.EventHandler, len(b.handlers[event.GetEventType()]))
	copy(subscribed, b.handlers[event.GetEventType()])
	b.mu.RUnlock()

	for _, handler := range subscribed {
		b.dispatch(ctx, handler, event)
	}

	return nil
}

// PublishBatch delivers events in order
func (b *EventBus) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		if err := b.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a handler for an event type
func (b *EventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Unsubscribe removes a previously registered handler
func (b *EventBus) Unsubscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribed := b.handlers[eventType]
	for i, h := range subscribed {
		if h == handler {
			b.handlers[eventType] = append(subscribed[:i], subscribed[i+1:]...)
			return nil
		}
	}
	return nil
}

// dispatch runs one handler, absorbing its failures
func (b *EventBus) dispatch(ctx context.Context, handler ports.EventHandler, event events.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("eventType", event.GetEventType()),
				zap.Any("panic", r),
			)
		}
	}()

	if !handler.CanHandle(event.GetEventType()) {
		return
	}

	if err := handler.Handle(ctx, event); err != nil {
		b.logger.Warn("event handler failed",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
