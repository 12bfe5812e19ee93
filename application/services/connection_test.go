package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
	pkgerrors "archboard-backend/pkg/errors"
)

func newConnectionFixture(t *testing.T) (*ConnectionSessionManager, *aggregates.Scene, *fakeRenderer, *recordingBus) {
	t.Helper()
	scene := newTestScene(t)
	renderer := newFakeRenderer()
	bus := &recordingBus{}
	manager := NewConnectionSessionManager(scene, renderer, bus, zap.NewNop())
	return manager, scene, renderer, bus
}

func TestConnectionSession_BeginDrawsPreview(t *testing.T) {
	ctx := context.Background()
	manager, scene, renderer, bus := newConnectionFixture(t)
	source := addTestNode(t, scene, "API Gateway")

	err := manager.Begin(ctx, source.ID(), valueobjects.NewPosition(10, 20))
	require.NoError(t, err)

	assert.Equal(t, SessionPending, manager.State())
	assert.True(t, renderer.previewActive())
	assert.Equal(t, 1, bus.countOf("connection.session_changed"))

	snap := manager.Snapshot()
	assert.Equal(t, SessionPending, snap.State)
	assert.True(t, snap.SourceID.Equals(source.ID()))
	assert.False(t, snap.StartedAt.IsZero())
}

func TestConnectionSession_BeginUnknownSourceFails(t *testing.T) {
	ctx := context.Background()
	manager, _, renderer, _ := newConnectionFixture(t)

	err := manager.Begin(ctx, valueobjects.NewElementID(), valueobjects.NewPosition(0, 0))

	require.ErrorIs(t, err, pkgerrors.ErrElementNotFound)
	assert.Equal(t, SessionIdle, manager.State())
	assert.False(t, renderer.previewActive())
}

func TestConnectionSession_SecondBeginIgnoredWhilePending(t *testing.T) {
	ctx := context.Background()
	manager, scene, _, bus := newConnectionFixture(t)
	source := addTestNode(t, scene, "Orders")
	other := addTestNode(t, scene, "Billing")

	require.NoError(t, manager.Begin(ctx, source.ID(), valueobjects.NewPosition(0, 0)))
	bus.reset()

	// A stray press during the drag means nothing: no error, no event
	require.NoError(t, manager.Begin(ctx, other.ID(), valueobjects.NewPosition(5, 5)))
	assert.Equal(t, 0, bus.countOf("connection.session_changed"))

	// The live session is undisturbed
	snap := manager.Snapshot()
	assert.Equal(t, SessionPending, snap.State)
	assert.True(t, snap.SourceID.Equals(source.ID()))
}

func TestConnectionSession_OperationsRequireActiveSession(t *testing.T) {
	ctx := context.Background()
	manager, scene, _, _ := newConnectionFixture(t)
	target := addTestNode(t, scene, "Orders")

	err := manager.UpdatePointer(ctx, valueobjects.NewPosition(1, 1))
	assert.ErrorIs(t, err, pkgerrors.ErrNoActiveSession)

	_, err = manager.CompleteAt(ctx, target.ID())
	assert.ErrorIs(t, err, pkgerrors.ErrNoActiveSession)
}

func TestConnectionSession_CompleteCreatesEdge(t *testing.T) {
	ctx := context.Background()
	manager, scene, renderer, _ := newConnectionFixture(t)
	source := addTestNode(t, scene, "Orders")
	target := addTestNode(t, scene, "Billing")

	require.NoError(t, manager.Begin(ctx, source.ID(), valueobjects.NewPosition(0, 0)))
	require.NoError(t, manager.UpdatePointer(ctx, valueobjects.NewPosition(40, 40)))

	result, err := manager.CompleteAt(ctx, target.ID())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	require.NotNil(t, result.Edge)
	assert.True(t, result.Edge.SourceID().Equals(source.ID()))
	assert.True(t, result.Edge.TargetID().Equals(target.ID()))
	assert.Equal(t, 1, scene.EdgeCount())

	assert.Equal(t, SessionIdle, manager.State())
	assert.False(t, renderer.previewActive())

	// The manager is free for the next gesture
	require.NoError(t, manager.Begin(ctx, target.ID(), valueobjects.NewPosition(0, 0)))
}

func TestConnectionSession_SelfLoopCancelsSilently(t *testing.T) {
	ctx := context.Background()
	manager, scene, renderer, _ := newConnectionFixture(t)
	source := addTestNode(t, scene, "Orders")

	require.NoError(t, manager.Begin(ctx, source.ID(), valueobjects.NewPosition(0, 0)))

	result, err := manager.CompleteAt(ctx, source.ID())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSelfLoopRejected, result.Outcome)
	assert.Nil(t, result.Edge)
	assert.Equal(t, 0, scene.EdgeCount())
	assert.Equal(t, SessionIdle, manager.State())
	assert.False(t, renderer.previewActive())
}

func TestConnectionSession_CompleteOnMissingTargetCancels(t *testing.T) {
	ctx := context.Background()
	manager, scene, _, _ := newConnectionFixture(t)
	source := addTestNode(t, scene, "Orders")

	require.NoError(t, manager.Begin(ctx, source.ID(), valueobjects.NewPosition(0, 0)))

	result, err := manager.CompleteAt(ctx, valueobjects.NewElementID())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.Nil(t, result.Edge)
	assert.Equal(t, 0, scene.EdgeCount())
	assert.Equal(t, SessionIdle, manager.State())
}

func TestConnectionSession_CancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	manager, scene, renderer, bus := newConnectionFixture(t)
	source := addTestNode(t, scene, "Orders")

	require.NoError(t, manager.Begin(ctx, source.ID(), valueobjects.NewPosition(0, 0)))
	bus.reset()

	manager.Cancel(ctx)
	assert.Equal(t, SessionIdle, manager.State())
	assert.False(t, renderer.previewActive())
	assert.Equal(t, 1, bus.countOf("connection.session_changed"))

	// Cancelling with no session in progress is a no-op
	manager.Cancel(ctx)
	assert.Equal(t, 1, bus.countOf("connection.session_changed"))
}

func TestConnectionSession_CancelIfSourceOnlyMatchesAnchor(t *testing.T) {
	ctx := context.Background()
	manager, scene, _, _ := newConnectionFixture(t)
	source := addTestNode(t, scene, "Orders")
	other := addTestNode(t, scene, "Billing")

	require.NoError(t, manager.Begin(ctx, source.ID(), valueobjects.NewPosition(0, 0)))

	manager.CancelIfSource(ctx, other.ID())
	assert.Equal(t, SessionPending, manager.State())

	manager.CancelIfSource(ctx, source.ID())
	assert.Equal(t, SessionIdle, manager.State())
}
