package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	messagingmemory "archboard-backend/infrastructure/messaging/memory"
	"archboard-backend/infrastructure/persistence/memory"
	"archboard-backend/infrastructure/realtime"
	pkgerrors "archboard-backend/pkg/errors"
)

// noopRenderer satisfies ports.Renderer for flows where no browser is
// connected.
type noopRenderer struct{}

func (noopRenderer) RequestIndicator(context.Context, valueobjects.ElementRef) error { return nil }
func (noopRenderer) RemoveIndicator(context.Context, valueobjects.ElementRef) error  { return nil }
func (noopRenderer) RequestPreviewEdge(context.Context, valueobjects.ElementID, valueobjects.Position) error {
	return nil
}
func (noopRenderer) UpdatePreviewEdge(context.Context, valueobjects.Position) error { return nil }
func (noopRenderer) RemovePreviewEdge(context.Context) error                        { return nil }

type noopTree struct{}

func (noopTree) NotifyTreeRemoved(context.Context, valueobjects.ElementRef) error { return nil }

func newTestManager(t *testing.T) *services.EditorManager {
	t.Helper()
	logger := zap.NewNop()
	return services.NewEditorManager(
		memory.NewSceneRepository(),
		noopRenderer{},
		noopTree{},
		realtime.NoopAnimator{},
		messagingmemory.NewEventBus(logger),
		nil,
		logger,
	)
}

func mustBounds(x, y float64) valueobjects.Bounds {
	return valueobjects.NewBounds(valueobjects.NewPosition(x, y), 160, 80)
}

func mustLabel(t *testing.T, text string) valueobjects.Label {
	t.Helper()
	label, err := valueobjects.NewLabel(text)
	require.NoError(t, err)
	return label
}

// TestEditingSession drives a full editing session the way the HTTP and
// websocket layers would: draw a small system landscape, select, connect,
// annotate, and finally delete a node with its cascade.
func TestEditingSession(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)

	// Draw three elements of a C4 landscape
	gateway, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "API Gateway"), mustBounds(0, 0))
	require.NoError(t, err)
	orders, err := editor.AddNode(ctx, entities.KindContainer, mustLabel(t, "Order Service"), mustBounds(300, 0))
	require.NoError(t, err)
	billing, err := editor.AddNode(ctx, entities.KindContainer, mustLabel(t, "Billing Service"), mustBounds(300, 200))
	require.NoError(t, err)

	// Connect gateway -> orders with the drag gesture
	require.NoError(t, editor.BeginConnection(ctx, gateway.ID(), valueobjects.NewPosition(80, 40)))
	require.NoError(t, editor.UpdateConnectionPointer(ctx, valueobjects.NewPosition(250, 40)))
	result, err := editor.CompleteConnection(ctx, orders.ID())
	require.NoError(t, err)
	require.Equal(t, services.OutcomeCompleted, result.Outcome)

	// A drop back on the source never creates an edge and ends quietly
	require.NoError(t, editor.BeginConnection(ctx, gateway.ID(), valueobjects.NewPosition(80, 40)))
	result, err = editor.CompleteConnection(ctx, gateway.ID())
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeSelfLoopRejected, result.Outcome)
	assert.Len(t, editor.Edges(), 1)

	// Second edge: gateway -> billing
	require.NoError(t, editor.BeginConnection(ctx, gateway.ID(), valueobjects.NewPosition(80, 40)))
	result, err = editor.CompleteConnection(ctx, billing.ID())
	require.NoError(t, err)
	require.Equal(t, services.OutcomeCompleted, result.Outcome)
	require.Len(t, editor.Edges(), 2)

	// Selection drives the toolbar
	gatewayRef := valueobjects.NodeRef(gateway.ID())
	editor.SelectElement(ctx, gatewayRef)
	assert.Equal(t, services.ClassificationSingle, editor.ClassifySelection())
	assert.True(t, editor.AvailableActions().CanDelete)

	editor.SelectElement(ctx, valueobjects.NodeRef(orders.ID()))
	assert.Equal(t, services.ClassificationMultipleSameType, editor.ClassifySelection())
	assert.False(t, editor.AvailableActions().CanDelete)

	editor.ReplaceSelection(ctx, gatewayRef)
	require.Equal(t, services.ClassificationSingle, editor.ClassifySelection())

	// Annotate the gateway
	require.NoError(t, editor.DefineProperty(ctx, gateway.ID(), "owner", "platform-team", entities.PropertyMeta{Category: "general"}))
	require.NoError(t, editor.DefineProperty(ctx, gateway.ID(), "tier", "critical", entities.PropertyMeta{Category: "ops"}))
	require.Len(t, editor.ListProperties(gateway.ID()), 2)

	// Deleting the gateway cascades over both edges
	require.NoError(t, editor.DeleteElement(ctx, gatewayRef))

	assert.Len(t, editor.Nodes(), 2)
	assert.Empty(t, editor.Edges())
	assert.Empty(t, editor.Selection())
	assert.Empty(t, editor.ListProperties(gateway.ID()))

	history := editor.DeletionHistory()
	require.Len(t, history, 3)
	assert.Equal(t, gatewayRef, history[2].Ref)
	for _, record := range history {
		assert.True(t, record.Success)
	}
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].DeletedAt.After(history[i-1].DeletedAt))
	}

	// Deleting again reports the element as gone
	err = editor.DeleteElement(ctx, gatewayRef)
	assert.ErrorIs(t, err, pkgerrors.ErrElementNotFound)
}

// TestSceneSurvivesReload verifies the snapshot round-trip through the
// repository: dropping the in-memory editor and reloading the scene keeps
// the diagram intact.
func TestSceneSurvivesReload(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	editor, err := manager.CreateScene(ctx, "user-1", "Payment Platform")
	require.NoError(t, err)

	source, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Orders"), mustBounds(0, 0))
	require.NoError(t, err)
	target, err := editor.AddNode(ctx, entities.KindSystem, mustLabel(t, "Billing"), mustBounds(300, 0))
	require.NoError(t, err)

	require.NoError(t, editor.BeginConnection(ctx, source.ID(), valueobjects.NewPosition(0, 0)))
	result, err := editor.CompleteConnection(ctx, target.ID())
	require.NoError(t, err)
	require.Equal(t, services.OutcomeCompleted, result.Outcome)

	sceneID := editor.SceneID()
	manager.Drop(sceneID)

	reloaded, err := manager.Get(ctx, sceneID)
	require.NoError(t, err)

	assert.Len(t, reloaded.Nodes(), 2)
	assert.Len(t, reloaded.Edges(), 1)
	assert.Equal(t, "Payment Platform", reloaded.SceneSnapshot().Name)

	// Editing state is per editor instance, not persisted
	assert.Empty(t, reloaded.Selection())
	assert.Equal(t, services.SessionIdle, reloaded.ConnectionSnapshot().State)
}
