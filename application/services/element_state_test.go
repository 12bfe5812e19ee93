package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/domain/core/valueobjects"
)

func newStateFixture() (*ElementStateStore, *recordingBus) {
	bus := &recordingBus{}
	store := NewElementStateStore(bus, zap.NewNop())
	return store, bus
}

func TestElementState_UnknownNodeReportsZeroState(t *testing.T) {
	store, _ := newStateFixture()

	state := store.StateOf(valueobjects.NewElementID())

	assert.False(t, state.Collapsed)
	assert.False(t, state.Editing)
	assert.False(t, state.ActionsVisible)
	assert.Equal(t, 0, store.TrackedCount())
}

func TestElementState_SetCollapsedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, bus := newStateFixture()
	node := valueobjects.NewElementID()

	store.SetCollapsed(ctx, node, true)
	assert.True(t, store.StateOf(node).Collapsed)
	assert.Equal(t, 1, bus.countOf("node.state_changed"))

	// Same value again emits nothing
	store.SetCollapsed(ctx, node, true)
	assert.Equal(t, 1, bus.countOf("node.state_changed"))

	store.SetCollapsed(ctx, node, false)
	assert.False(t, store.StateOf(node).Collapsed)
	assert.Equal(t, 2, bus.countOf("node.state_changed"))
}

func TestElementState_SingleEditingInvariant(t *testing.T) {
	ctx := context.Background()
	store, _ := newStateFixture()
	first := valueobjects.NewElementID()
	second := valueobjects.NewElementID()

	store.BeginEditing(ctx, first)
	editing, ok := store.EditingNode()
	require.True(t, ok)
	assert.True(t, editing.Equals(first))

	// Starting to edit a second node ends the first automatically
	store.BeginEditing(ctx, second)
	editing, ok = store.EditingNode()
	require.True(t, ok)
	assert.True(t, editing.Equals(second))
	assert.False(t, store.StateOf(first).Editing)
	assert.True(t, store.StateOf(second).Editing)
}

func TestElementState_ReBeginSameNodeIsNoOp(t *testing.T) {
	ctx := context.Background()
	store, bus := newStateFixture()
	node := valueobjects.NewElementID()

	store.BeginEditing(ctx, node)
	require.Equal(t, 1, bus.countOf("node.state_changed"))

	store.BeginEditing(ctx, node)
	assert.Equal(t, 1, bus.countOf("node.state_changed"))
}

func TestElementState_EndEditing(t *testing.T) {
	ctx := context.Background()
	store, bus := newStateFixture()
	node := valueobjects.NewElementID()

	// Ending a node that never edited is a no-op
	store.EndEditing(ctx, node)
	assert.Equal(t, 0, bus.countOf("node.state_changed"))

	store.BeginEditing(ctx, node)
	store.EndEditing(ctx, node)

	assert.False(t, store.StateOf(node).Editing)
	_, ok := store.EditingNode()
	assert.False(t, ok)
}

func TestElementState_ActionsVisible(t *testing.T) {
	ctx := context.Background()
	store, bus := newStateFixture()
	node := valueobjects.NewElementID()

	store.SetActionsVisible(ctx, node, true)
	assert.True(t, store.StateOf(node).ActionsVisible)

	store.SetActionsVisible(ctx, node, true)
	assert.Equal(t, 1, bus.countOf("node.state_changed"))
}

func TestElementState_CachedBounds(t *testing.T) {
	store, _ := newStateFixture()
	node := valueobjects.NewElementID()

	_, ok := store.CachedBounds(node)
	assert.False(t, ok)

	bounds := testBounds(10, 20)
	store.CacheBounds(node, bounds)

	cached, ok := store.CachedBounds(node)
	require.True(t, ok)
	assert.True(t, cached.Equals(bounds))
}

func TestElementState_RemoveClearsEditingPointer(t *testing.T) {
	ctx := context.Background()
	store, _ := newStateFixture()
	node := valueobjects.NewElementID()

	store.BeginEditing(ctx, node)
	store.Remove(node)

	_, ok := store.EditingNode()
	assert.False(t, ok)
	assert.Equal(t, 0, store.TrackedCount())
}
