package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/domain/events"
)

type capturingHandler struct {
	accepts string
	seen    []events.DomainEvent
	err     error
	panics  bool
}

func (h *capturingHandler) Handle(_ context.Context, event events.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.seen = append(h.seen, event)
	return h.err
}

func (h *capturingHandler) CanHandle(eventType string) bool {
	return h.accepts == "" || h.accepts == eventType
}

func clearedEvent() events.DomainEvent {
	return events.NewSelectionCleared("scene-1", time.Now())
}

func TestEventBus_DeliversToSubscribers(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	handler := &capturingHandler{}
	require.NoError(t, bus.Subscribe("selection.cleared", handler))

	require.NoError(t, bus.Publish(context.Background(), clearedEvent()))

	require.Len(t, handler.seen, 1)
	assert.Equal(t, "selection.cleared", handler.seen[0].GetEventType())
}

func TestEventBus_UnsubscribedTypeIgnored(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	handler := &capturingHandler{}
	require.NoError(t, bus.Subscribe("node.added", handler))

	require.NoError(t, bus.Publish(context.Background(), clearedEvent()))

	assert.Empty(t, handler.seen)
}

func TestEventBus_HandlerFailuresIsolated(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	panicking := &capturingHandler{panics: true}
	failing := &capturingHandler{err: errors.New("projection behind")}
	healthy := &capturingHandler{}

	require.NoError(t, bus.Subscribe("selection.cleared", panicking))
	require.NoError(t, bus.Subscribe("selection.cleared", failing))
	require.NoError(t, bus.Subscribe("selection.cleared", healthy))

	// Neither the panic nor the error reaches the publisher
	require.NoError(t, bus.Publish(context.Background(), clearedEvent()))
	assert.Len(t, healthy.seen, 1)
}

func TestEventBus_CanHandleFilters(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	handler := &capturingHandler{accepts: "node.added"}
	require.NoError(t, bus.Subscribe("selection.cleared", handler))

	require.NoError(t, bus.Publish(context.Background(), clearedEvent()))

	assert.Empty(t, handler.seen)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	handler := &capturingHandler{}
	require.NoError(t, bus.Subscribe("selection.cleared", handler))
	require.NoError(t, bus.Unsubscribe("selection.cleared", handler))

	require.NoError(t, bus.Publish(context.Background(), clearedEvent()))

	assert.Empty(t, handler.seen)
}

func TestEventBus_PublishBatchKeepsOrder(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	handler := &capturingHandler{}
	require.NoError(t, bus.Subscribe("selection.cleared", handler))
	require.NoError(t, bus.Subscribe("selection.changed", handler))

	batch := []events.DomainEvent{
		events.NewSelectionChanged("scene-1", nil, "none", time.Now()),
		clearedEvent(),
	}
	require.NoError(t, bus.PublishBatch(context.Background(), batch))

	require.Len(t, handler.seen, 2)
	assert.Equal(t, "selection.changed", handler.seen[0].GetEventType())
	assert.Equal(t, "selection.cleared", handler.seen[1].GetEventType())
}
