package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/validators"
	"archboard-backend/domain/core/valueobjects"
	pkgerrors "archboard-backend/pkg/errors"
)

type deletionFixture struct {
	scene      *aggregates.Scene
	selection  *SelectionCoordinator
	properties *PropertyStore
	states     *ElementStateStore
	sessions   *ConnectionSessionManager
	tree       *fakeTree
	bus        *recordingBus
	renderer   *fakeRenderer
}

func newDeletionFixture(t *testing.T) (*DeletionCoordinator, *deletionFixture) {
	t.Helper()

	logger := zap.NewNop()
	scene := newTestScene(t)
	renderer := newFakeRenderer()
	bus := &recordingBus{}
	tree := &fakeTree{}

	f := &deletionFixture{
		scene:      scene,
		selection:  NewSelectionCoordinator(scene.ID().String(), renderer, bus, logger),
		properties: NewPropertyStore(validators.NewPropertyValidator(), bus, logger),
		states:     NewElementStateStore(bus, logger),
		sessions:   NewConnectionSessionManager(scene, renderer, bus, logger),
		tree:       tree,
		bus:        bus,
		renderer:   renderer,
	}

	coordinator := NewDeletionCoordinator(
		scene, f.selection, f.properties, f.states, f.sessions,
		tree, bus, logger,
	)
	return coordinator, f
}

// deleteNow runs the cascade and finalizes immediately, as with fades
// disabled.
func deleteNow(t *testing.T, ctx context.Context, coordinator *DeletionCoordinator, ref valueobjects.ElementRef) {
	t.Helper()
	pending, err := coordinator.DeleteElement(ctx, ref)
	require.NoError(t, err)
	if pending != nil {
		pending.Finalize(ctx)
	}
}

func TestDeletion_MissingElement(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newDeletionFixture(t)

	_, err := coordinator.DeleteElement(ctx, valueobjects.NodeRef(valueobjects.NewElementID()))

	require.ErrorIs(t, err, pkgerrors.ErrElementNotFound)
	assert.Empty(t, coordinator.History())
}

func TestDeletion_EdgeRemovedSynchronously(t *testing.T) {
	ctx := context.Background()
	coordinator, f := newDeletionFixture(t)

	source := addTestNode(t, f.scene, "Orders")
	target := addTestNode(t, f.scene, "Billing")
	edge, err := f.scene.ConnectNodes(source.ID(), target.ID(), "charges")
	require.NoError(t, err)

	edgeRef := valueobjects.EdgeRef(edge.ID())
	f.selection.Select(ctx, edgeRef)

	pending, err := coordinator.DeleteElement(ctx, edgeRef)
	require.NoError(t, err)
	assert.Nil(t, pending, "edge deletion needs no finalization")

	assert.False(t, f.scene.HasEdge(edge.ID()))
	assert.Equal(t, 2, f.scene.NodeCount())
	assert.False(t, f.selection.IsSelected(edgeRef))
	assert.Equal(t, []valueobjects.ElementRef{edgeRef}, f.tree.removedRefs())

	history := coordinator.History()
	require.Len(t, history, 1)
	assert.Equal(t, edgeRef, history[0].Ref)
	assert.True(t, history[0].Success)
	assert.Empty(t, history[0].Error)

	assert.Equal(t, 1, f.bus.countOf("deletion.started"))
	assert.Equal(t, 1, f.bus.countOf("deletion.completed"))
}

func TestDeletion_NodeCascadeRemovesEdgesFirst(t *testing.T) {
	ctx := context.Background()
	coordinator, f := newDeletionFixture(t)

	hub := addTestNode(t, f.scene, "Gateway")
	left := addTestNode(t, f.scene, "Orders")
	right := addTestNode(t, f.scene, "Billing")
	_, err := f.scene.ConnectNodes(hub.ID(), left.ID(), "")
	require.NoError(t, err)
	_, err = f.scene.ConnectNodes(right.ID(), hub.ID(), "")
	require.NoError(t, err)

	hubRef := valueobjects.NodeRef(hub.ID())
	f.selection.Select(ctx, hubRef)
	f.states.BeginEditing(ctx, hub.ID())
	require.NoError(t, f.properties.Define(ctx, hub.ID(), "owner", "platform-team", defaultMeta()))

	deleteNow(t, ctx, coordinator, hubRef)

	assert.False(t, f.scene.HasNode(hub.ID()))
	assert.Equal(t, 0, f.scene.EdgeCount())
	assert.Equal(t, 2, f.scene.NodeCount())

	// Every trace of the node is gone
	assert.False(t, f.selection.IsSelected(hubRef))
	assert.Equal(t, 0, f.properties.Count(hub.ID()))
	_, editing := f.states.EditingNode()
	assert.False(t, editing)
	assert.False(t, coordinator.InFlight(hubRef))

	// Two edge records precede the node record, timestamps strictly increasing
	history := coordinator.History()
	require.Len(t, history, 3)
	assert.False(t, history[0].Ref.IsNode())
	assert.False(t, history[1].Ref.IsNode())
	assert.Equal(t, hubRef, history[2].Ref)
	for i, record := range history {
		assert.True(t, record.Success, "record %d must report success", i)
	}
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].DeletedAt.After(history[i-1].DeletedAt),
			"record %d must be strictly after record %d", i, i-1)
	}

	// One completion per removed edge plus one for the node
	assert.Equal(t, 3, f.bus.countOf("deletion.completed"))
}

func TestDeletion_InFlightGuard(t *testing.T) {
	ctx := context.Background()
	coordinator, f := newDeletionFixture(t)

	node := addTestNode(t, f.scene, "Orders")
	ref := valueobjects.NodeRef(node.ID())

	pending, err := coordinator.DeleteElement(ctx, ref)
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.True(t, coordinator.InFlight(ref))

	// The fade has not resolved yet; a second delete is rejected and
	// leaves no record
	_, err = coordinator.DeleteElement(ctx, ref)
	require.ErrorIs(t, err, pkgerrors.ErrDeletionInFlight)
	assert.Empty(t, coordinator.History())

	pending.Finalize(ctx)

	assert.False(t, coordinator.InFlight(ref))
	assert.False(t, f.scene.HasNode(node.ID()))
	history := coordinator.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestDeletion_FinalizeFailureLeavesRecord(t *testing.T) {
	ctx := context.Background()
	coordinator, f := newDeletionFixture(t)

	node := addTestNode(t, f.scene, "Orders")
	other := addTestNode(t, f.scene, "Billing")
	ref := valueobjects.NodeRef(node.ID())

	pending, err := coordinator.DeleteElement(ctx, ref)
	require.NoError(t, err)
	require.NotNil(t, pending)

	// An edge attached while the fade is playing keeps the node anchored
	_, err = f.scene.ConnectNodes(other.ID(), node.ID(), "")
	require.NoError(t, err)

	pending.Finalize(ctx)

	assert.True(t, f.scene.HasNode(node.ID()))
	assert.False(t, coordinator.InFlight(ref))

	history := coordinator.History()
	require.Len(t, history, 1)
	assert.Equal(t, ref, history[0].Ref)
	assert.False(t, history[0].Success)
	assert.NotEmpty(t, history[0].Error)

	assert.Equal(t, 1, f.bus.countOf("deletion.failed"))
	assert.Equal(t, 0, f.bus.countOf("deletion.completed"))
}

func TestDeletion_CancelsConnectionAnchoredAtNode(t *testing.T) {
	ctx := context.Background()
	coordinator, f := newDeletionFixture(t)

	node := addTestNode(t, f.scene, "Orders")
	require.NoError(t, f.sessions.Begin(ctx, node.ID(), valueobjects.NewPosition(0, 0)))

	deleteNow(t, ctx, coordinator, valueobjects.NodeRef(node.ID()))

	assert.Equal(t, SessionIdle, f.sessions.State())
	assert.False(t, f.renderer.previewActive())
}

func TestDeletion_SessionAnchoredElsewhereSurvives(t *testing.T) {
	ctx := context.Background()
	coordinator, f := newDeletionFixture(t)

	anchor := addTestNode(t, f.scene, "Orders")
	victim := addTestNode(t, f.scene, "Billing")
	require.NoError(t, f.sessions.Begin(ctx, anchor.ID(), valueobjects.NewPosition(0, 0)))

	deleteNow(t, ctx, coordinator, valueobjects.NodeRef(victim.ID()))

	assert.Equal(t, SessionPending, f.sessions.State())
}
