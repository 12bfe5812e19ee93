package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archboard-backend/domain/config"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	pkgerrors "archboard-backend/pkg/errors"
)

func mustNode(t *testing.T, scene *Scene, name string) *entities.Node {
	t.Helper()
	label, err := valueobjects.NewLabel(name)
	require.NoError(t, err)
	bounds := valueobjects.NewBounds(valueobjects.NewPosition(0, 0), 120, 60)
	node, err := entities.NewNode(scene.ID().String(), entities.KindSystem, label, bounds)
	require.NoError(t, err)
	require.NoError(t, scene.AddNode(node))
	return node
}

func TestNewScene_Validation(t *testing.T) {
	_, err := NewScene("", "Diagram")
	assert.Error(t, err)

	_, err = NewScene("user-1", "")
	assert.Error(t, err)

	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	assert.Equal(t, "user-1", scene.UserID())
	assert.Equal(t, "Diagram", scene.Name())
	assert.Equal(t, 1, scene.Version())

	pending := scene.GetUncommittedEvents()
	require.Len(t, pending, 1)
	assert.Equal(t, "scene.created", pending[0].GetEventType())
}

func TestScene_AddNodeRejectsDuplicate(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)

	node := mustNode(t, scene, "Orders")
	err = scene.AddNode(node)
	assert.Error(t, err)
	assert.Equal(t, 1, scene.NodeCount())
}

func TestScene_NodeLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxNodesPerScene = 2
	scene, err := NewSceneWithConfig("user-1", "Diagram", cfg)
	require.NoError(t, err)

	mustNode(t, scene, "One")
	mustNode(t, scene, "Two")

	label, err := valueobjects.NewLabel("Three")
	require.NoError(t, err)
	bounds := valueobjects.NewBounds(valueobjects.NewPosition(0, 0), 120, 60)
	node, err := entities.NewNode(scene.ID().String(), entities.KindSystem, label, bounds)
	require.NoError(t, err)

	err = scene.AddNode(node)
	assert.ErrorIs(t, err, pkgerrors.ErrSceneNodeLimit)
}

func TestScene_ConnectNodes(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	source := mustNode(t, scene, "Orders")
	target := mustNode(t, scene, "Billing")

	edge, err := scene.ConnectNodes(source.ID(), target.ID(), "charges")
	require.NoError(t, err)

	assert.True(t, edge.SourceID().Equals(source.ID()))
	assert.True(t, edge.TargetID().Equals(target.ID()))
	assert.Equal(t, "charges", edge.Label())
	assert.Equal(t, 1, scene.EdgeCount())
	assert.True(t, scene.HasEdge(edge.ID()))
	require.NoError(t, scene.Validate())
}

func TestScene_ConnectNodesMissingEndpoint(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	source := mustNode(t, scene, "Orders")

	_, err = scene.ConnectNodes(source.ID(), valueobjects.NewElementID(), "")
	assert.ErrorIs(t, err, pkgerrors.ErrEdgeEndpointMissing)
}

func TestScene_SelfLoopRejectedByDefault(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	node := mustNode(t, scene, "Orders")

	_, err = scene.ConnectNodes(node.ID(), node.ID(), "")
	assert.ErrorIs(t, err, pkgerrors.ErrSelfLoopRejected)
	assert.Equal(t, 0, scene.EdgeCount())
}

func TestScene_DuplicateEdgePolicy(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.AllowDuplicateEdges = false
	scene, err := NewSceneWithConfig("user-1", "Diagram", cfg)
	require.NoError(t, err)
	source := mustNode(t, scene, "Orders")
	target := mustNode(t, scene, "Billing")

	_, err = scene.ConnectNodes(source.ID(), target.ID(), "")
	require.NoError(t, err)

	_, err = scene.ConnectNodes(source.ID(), target.ID(), "")
	assert.Error(t, err)
	assert.Equal(t, 1, scene.EdgeCount())

	// The reverse direction is a different edge
	_, err = scene.ConnectNodes(target.ID(), source.ID(), "")
	assert.NoError(t, err)
}

func TestScene_RemoveNodeRequiresDetachedNode(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	source := mustNode(t, scene, "Orders")
	target := mustNode(t, scene, "Billing")
	edge, err := scene.ConnectNodes(source.ID(), target.ID(), "")
	require.NoError(t, err)

	err = scene.RemoveNode(source.ID())
	assert.ErrorIs(t, err, pkgerrors.ErrNodeStillConnected)
	assert.True(t, scene.HasNode(source.ID()))

	require.NoError(t, scene.RemoveEdge(edge.ID()))
	require.NoError(t, scene.RemoveNode(source.ID()))
	assert.False(t, scene.HasNode(source.ID()))
}

func TestScene_RemoveMissingElements(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)

	assert.ErrorIs(t, scene.RemoveNode(valueobjects.NewElementID()), pkgerrors.ErrElementNotFound)
	assert.ErrorIs(t, scene.RemoveEdge(valueobjects.NewElementID()), pkgerrors.ErrEdgeNotFound)
}

func TestScene_EdgesTouching(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	hub := mustNode(t, scene, "Gateway")
	left := mustNode(t, scene, "Orders")
	right := mustNode(t, scene, "Billing")

	_, err = scene.ConnectNodes(hub.ID(), left.ID(), "")
	require.NoError(t, err)
	_, err = scene.ConnectNodes(right.ID(), hub.ID(), "")
	require.NoError(t, err)
	_, err = scene.ConnectNodes(left.ID(), right.ID(), "")
	require.NoError(t, err)

	assert.Len(t, scene.EdgesTouching(hub.ID()), 2)
	assert.Len(t, scene.EdgesTouching(left.ID()), 2)
	assert.Empty(t, scene.EdgesTouching(valueobjects.NewElementID()))
}

func TestScene_HasElement(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	source := mustNode(t, scene, "Orders")
	target := mustNode(t, scene, "Billing")
	edge, err := scene.ConnectNodes(source.ID(), target.ID(), "")
	require.NoError(t, err)

	assert.True(t, scene.HasElement(valueobjects.NodeRef(source.ID())))
	assert.True(t, scene.HasElement(valueobjects.EdgeRef(edge.ID())))
	assert.False(t, scene.HasElement(valueobjects.NodeRef(edge.ID())))
	assert.False(t, scene.HasElement(valueobjects.EdgeRef(source.ID())))
}

func TestScene_EventBuffering(t *testing.T) {
	scene, err := NewScene("user-1", "Diagram")
	require.NoError(t, err)
	scene.MarkEventsAsCommitted()

	node := mustNode(t, scene, "Orders")

	// The node's own creation event surfaces through the aggregate
	types := make([]string, 0)
	for _, event := range scene.GetUncommittedEvents() {
		types = append(types, event.GetEventType())
	}
	assert.Contains(t, types, "node.added")

	scene.MarkEventsAsCommitted()
	assert.Empty(t, scene.GetUncommittedEvents())

	bounds := valueobjects.NewBounds(valueobjects.NewPosition(50, 50), 120, 60)
	require.NoError(t, node.MoveTo(bounds))

	pending := scene.GetUncommittedEvents()
	require.Len(t, pending, 1)
	assert.Equal(t, "node.moved", pending[0].GetEventType())
}
