package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/infrastructure/persistence/memory"
)

func newManagerFixture() (*EditorManager, *recordingBus) {
	bus := &recordingBus{}
	manager := NewEditorManager(
		memory.NewSceneRepository(),
		newFakeRenderer(),
		&fakeTree{},
		immediateAnimator{},
		bus,
		nil,
		zap.NewNop(),
	)
	return manager, bus
}

func TestEditorManager_CreateScene(t *testing.T) {
	ctx := context.Background()
	manager, bus := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)

	info := editor.SceneSnapshot()
	assert.Equal(t, "user-1", info.UserID)
	assert.Equal(t, "Payment Platform", info.Name)
	assert.Equal(t, 1, bus.countOf("scene.created"))
}

func TestEditorManager_GetReturnsSameEditor(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	created, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)

	got, err := manager.Get(ctx, created.SceneID())
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestEditorManager_GetReloadsDroppedScene(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	created, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	node, err := created.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), testBounds(0, 0))
	require.NoError(t, err)

	manager.Drop(created.SceneID())

	reloaded, err := manager.Get(ctx, created.SceneID())
	require.NoError(t, err)
	assert.NotSame(t, created, reloaded)

	nodes := reloaded.Nodes()
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].ID().Equals(node.ID()))
}

func TestEditorManager_GetUnknownScene(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	_, err := manager.Get(ctx, "missing-scene")
	assert.Error(t, err)
}

func TestEditorManager_DeleteScene(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	created, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)

	require.NoError(t, manager.DeleteScene(ctx, created.SceneID()))

	_, err = manager.Get(ctx, created.SceneID())
	assert.Error(t, err)
}

func TestEditor_AddNodePublishesAndPersists(t *testing.T) {
	ctx := context.Background()
	manager, bus := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	bus.reset()

	node, err := editor.AddNode(ctx, entities.KindContainer, mustLabel(t, "Orders API"), testBounds(10, 10))
	require.NoError(t, err)

	assert.Equal(t, 1, bus.countOf("node.added"))

	// Bounds are cached for layout reads
	cached := editor.NodeState(node.ID())
	assert.True(t, cached.CachedBounds.Equals(testBounds(10, 10)))
}

func TestEditor_AddNodeRejectsTooSmallBounds(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)

	tiny := valueobjects.NewBounds(valueobjects.NewPosition(0, 0), 5, 5)
	_, err = editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), tiny)
	assert.Error(t, err)
	assert.Empty(t, editor.Nodes())
}

func TestEditor_MoveAndRename(t *testing.T) {
	ctx := context.Background()
	manager, bus := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	node, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), testBounds(0, 0))
	require.NoError(t, err)
	bus.reset()

	require.NoError(t, editor.MoveNode(ctx, node.ID(), testBounds(100, 200)))
	assert.Equal(t, 1, bus.countOf("node.moved"))

	require.NoError(t, editor.RenameNode(ctx, node.ID(), mustLabel(t, "Order Service")))
	assert.Equal(t, 1, bus.countOf("node.renamed"))

	nodes := editor.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "Order Service", nodes[0].Name().String())
	assert.True(t, nodes[0].Bounds().Equals(testBounds(100, 200)))
}

func TestEditor_ConnectionGestureEndToEnd(t *testing.T) {
	ctx := context.Background()
	manager, bus := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	source, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), testBounds(0, 0))
	require.NoError(t, err)
	target, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Billing"), testBounds(300, 0))
	require.NoError(t, err)
	bus.reset()

	require.NoError(t, editor.BeginConnection(ctx, source.ID(), valueobjects.NewPosition(60, 30)))
	require.NoError(t, editor.UpdateConnectionPointer(ctx, valueobjects.NewPosition(200, 30)))

	result, err := editor.CompleteConnection(ctx, target.ID())
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, result.Outcome)

	assert.Len(t, editor.Edges(), 1)
	assert.Equal(t, 1, bus.countOf("edge.created"))
	assert.Equal(t, SessionIdle, editor.ConnectionSnapshot().State)
}

func TestEditor_DeleteSelectedNodeUpdatesActions(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	node, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), testBounds(0, 0))
	require.NoError(t, err)

	ref := valueobjects.NodeRef(node.ID())
	editor.SelectElement(ctx, ref)
	require.Equal(t, AvailabilityFor(ClassificationSingle), editor.AvailableActions())

	require.NoError(t, editor.DeleteElement(ctx, ref))

	assert.Empty(t, editor.Nodes())
	assert.Empty(t, editor.Selection())
	assert.Equal(t, ActionSet{}, editor.AvailableActions())

	history := editor.DeletionHistory()
	require.Len(t, history, 1)
	assert.Equal(t, ref, history[0].Ref)
	assert.True(t, history[0].Success)
}

func TestEditor_NodeSurvivesUntilFadeResolves(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	animator := &manualAnimator{}
	manager := NewEditorManager(
		memory.NewSceneRepository(),
		newFakeRenderer(),
		&fakeTree{},
		animator,
		bus,
		nil,
		zap.NewNop(),
	)

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	victim, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), testBounds(0, 0))
	require.NoError(t, err)
	other, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Billing"), testBounds(300, 0))
	require.NoError(t, err)
	bus.reset()

	victimRef := valueobjects.NodeRef(victim.ID())
	otherRef := valueobjects.NodeRef(other.ID())
	require.NoError(t, editor.DeleteElement(ctx, victimRef))

	// The fade is still playing: the node is in the scene and no removal
	// has been recorded or broadcast
	assert.Len(t, editor.Nodes(), 2)
	assert.Empty(t, editor.DeletionHistory())
	assert.Equal(t, 0, bus.countOf("node.removed"))

	// Other intents keep flowing while the fade resolves concurrently
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			editor.ToggleElement(ctx, otherRef)
		}
	}()
	animator.release()
	<-done

	assert.Len(t, editor.Nodes(), 1)
	assert.Equal(t, 1, bus.countOf("node.removed"))

	history := editor.DeletionHistory()
	require.Len(t, history, 1)
	assert.Equal(t, victimRef, history[0].Ref)
	assert.True(t, history[0].Success)
}

func TestEditor_PropertyRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	node, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), testBounds(0, 0))
	require.NoError(t, err)

	require.NoError(t, editor.DefineProperty(ctx, node.ID(), "owner", "platform-team", defaultMeta()))
	require.NoError(t, editor.UpdateProperty(ctx, node.ID(), "owner", "payments-team"))

	props := editor.ListProperties(node.ID())
	require.Len(t, props, 1)
	assert.Equal(t, "payments-team", props[0].Value)

	history := editor.PropertyHistory(node.ID())
	require.Len(t, history, 2)
	assert.Equal(t, PropertyAdded, history[0].Kind)
	assert.Equal(t, PropertyUpdated, history[1].Kind)
	assert.Equal(t, "platform-team", history[1].OldValue)
}

func TestEditor_ReorderProperty(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerFixture()

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)
	node, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), testBounds(0, 0))
	require.NoError(t, err)

	require.NoError(t, editor.DefineProperty(ctx, node.ID(), "owner", "platform-team", defaultMeta()))
	require.NoError(t, editor.DefineProperty(ctx, node.ID(), "tier", "critical", defaultMeta()))

	require.NoError(t, editor.ReorderProperty(ctx, node.ID(), "owner", 10))

	props := editor.ListProperties(node.ID())
	require.Len(t, props, 2)
	assert.Equal(t, "tier", props[0].Key)
	assert.Equal(t, "owner", props[1].Key)
}
