package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/domain/core/valueobjects"
)

func newSelectionFixture() (*SelectionCoordinator, *fakeRenderer, *recordingBus) {
	renderer := newFakeRenderer()
	bus := &recordingBus{}
	coordinator := NewSelectionCoordinator("scene-1", renderer, bus, zap.NewNop())
	return coordinator, renderer, bus
}

func TestSelectionCoordinator_SelectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	coordinator, renderer, bus := newSelectionFixture()
	ref := valueobjects.NodeRef(valueobjects.NewElementID())

	coordinator.Select(ctx, ref)
	require.True(t, coordinator.IsSelected(ref))
	require.True(t, renderer.hasIndicator(ref))
	require.Equal(t, 1, bus.countOf("selection.changed"))

	// Selecting again changes nothing and emits nothing
	coordinator.Select(ctx, ref)
	assert.Equal(t, 1, coordinator.Count())
	assert.Equal(t, 1, bus.countOf("selection.changed"))
}

func TestSelectionCoordinator_DeselectMissingIsNoOp(t *testing.T) {
	ctx := context.Background()
	coordinator, _, bus := newSelectionFixture()

	coordinator.Deselect(ctx, valueobjects.NodeRef(valueobjects.NewElementID()))

	assert.Equal(t, 0, coordinator.Count())
	assert.Equal(t, 0, bus.countOf("selection.changed"))
	assert.Equal(t, 0, bus.countOf("selection.cleared"))
}

func TestSelectionCoordinator_ClearedEmittedOncePerTransition(t *testing.T) {
	ctx := context.Background()
	coordinator, _, bus := newSelectionFixture()
	first := valueobjects.NodeRef(valueobjects.NewElementID())
	second := valueobjects.NodeRef(valueobjects.NewElementID())

	coordinator.Select(ctx, first)
	coordinator.Select(ctx, second)

	// Removing the first element leaves one selected: no cleared event yet
	coordinator.Deselect(ctx, first)
	assert.Equal(t, 0, bus.countOf("selection.cleared"))

	// Removing the last element crosses non-empty to empty exactly once
	coordinator.Deselect(ctx, second)
	assert.Equal(t, 1, bus.countOf("selection.cleared"))

	// Clearing an already empty selection emits nothing further
	coordinator.Clear(ctx)
	assert.Equal(t, 1, bus.countOf("selection.cleared"))
}

func TestSelectionCoordinator_ClearEmptiesAndNotifies(t *testing.T) {
	ctx := context.Background()
	coordinator, renderer, bus := newSelectionFixture()
	first := valueobjects.NodeRef(valueobjects.NewElementID())
	second := valueobjects.EdgeRef(valueobjects.NewElementID())

	coordinator.Select(ctx, first)
	coordinator.Select(ctx, second)
	bus.reset()

	coordinator.Clear(ctx)

	assert.Equal(t, 0, coordinator.Count())
	assert.False(t, renderer.hasIndicator(first))
	assert.False(t, renderer.hasIndicator(second))
	assert.Equal(t, 1, bus.countOf("selection.changed"))
	assert.Equal(t, 1, bus.countOf("selection.cleared"))
}

func TestSelectionCoordinator_Toggle(t *testing.T) {
	ctx := context.Background()
	coordinator, _, _ := newSelectionFixture()
	ref := valueobjects.NodeRef(valueobjects.NewElementID())

	coordinator.Toggle(ctx, ref)
	assert.True(t, coordinator.IsSelected(ref))

	coordinator.Toggle(ctx, ref)
	assert.False(t, coordinator.IsSelected(ref))
}

func TestSelectionCoordinator_ReplaceKeepsOnlyGivenElement(t *testing.T) {
	ctx := context.Background()
	coordinator, renderer, bus := newSelectionFixture()
	first := valueobjects.NodeRef(valueobjects.NewElementID())
	second := valueobjects.NodeRef(valueobjects.NewElementID())
	replacement := valueobjects.EdgeRef(valueobjects.NewElementID())

	coordinator.Select(ctx, first)
	coordinator.Select(ctx, second)

	coordinator.Replace(ctx, replacement)

	require.Equal(t, []valueobjects.ElementRef{replacement}, coordinator.Selected())
	assert.False(t, renderer.hasIndicator(first))
	assert.False(t, renderer.hasIndicator(second))
	assert.True(t, renderer.hasIndicator(replacement))

	// Replacing with the element that is already the sole selection is a no-op
	bus.reset()
	coordinator.Replace(ctx, replacement)
	assert.Equal(t, 0, bus.countOf("selection.changed"))
}

func TestSelectionCoordinator_Classify(t *testing.T) {
	ctx := context.Background()
	coordinator, _, _ := newSelectionFixture()
	nodeA := valueobjects.NodeRef(valueobjects.NewElementID())
	nodeB := valueobjects.NodeRef(valueobjects.NewElementID())
	edge := valueobjects.EdgeRef(valueobjects.NewElementID())

	assert.Equal(t, ClassificationNone, coordinator.Classify())

	coordinator.Select(ctx, nodeA)
	assert.Equal(t, ClassificationSingle, coordinator.Classify())

	coordinator.Select(ctx, nodeB)
	assert.Equal(t, ClassificationMultipleSameType, coordinator.Classify())

	coordinator.Select(ctx, edge)
	assert.Equal(t, ClassificationMixedType, coordinator.Classify())

	coordinator.Deselect(ctx, nodeA)
	coordinator.Deselect(ctx, nodeB)
	assert.Equal(t, ClassificationSingle, coordinator.Classify())

	coordinator.Clear(ctx)
	assert.Equal(t, ClassificationNone, coordinator.Classify())
}
