package aggregates

import (
	"time"

	"github.com/google/uuid"

	"archboard-backend/domain/config"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
	pkgerrors "archboard-backend/pkg/errors"
)

// SceneID represents a unique scene identifier
type SceneID string

// NewSceneID creates a new random SceneID
func NewSceneID() SceneID {
	return SceneID(uuid.New().String())
}

// String returns the string representation
func (id SceneID) String() string {
	return string(id)
}

// Scene is the aggregate root for one diagram canvas.
// It is the consistency boundary for the node and edge collections:
// an edge can only exist while both of its endpoints do.
type Scene struct {
	id          SceneID
	userID      string
	name        string
	description string
	nodes       map[valueobjects.ElementID]*entities.Node
	edges       map[valueobjects.ElementID]*entities.Edge
	metadata    SceneMetadata
	cfg         *config.DomainConfig
	createdAt   time.Time
	updatedAt   time.Time
	version     int
	events      []events.DomainEvent
}

// SceneMetadata contains scene-level information
type SceneMetadata struct {
	NodeCount    int
	EdgeCount    int
	IsPublic     bool
	Tags         []string
	ViewSettings ViewSettings
}

// ViewSettings contains display preferences
type ViewSettings struct {
	Theme      string
	GridSize   int
	SnapToGrid bool
	ShowLabels bool
}

// NewScene creates a new scene aggregate
func NewScene(userID, name string) (*Scene, error) {
	return NewSceneWithConfig(userID, name, config.DefaultDomainConfig())
}

// NewSceneWithConfig creates a new scene aggregate with configuration
func NewSceneWithConfig(userID, name string, cfg *config.DomainConfig) (*Scene, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if name == "" {
		return nil, pkgerrors.ErrSceneNameRequired
	}

	now := time.Now()
	scene := &Scene{
		id:     NewSceneID(),
		userID: userID,
		name:   name,
		nodes:  make(map[valueobjects.ElementID]*entities.Node),
		edges:  make(map[valueobjects.ElementID]*entities.Edge),
		metadata: SceneMetadata{
			ViewSettings: ViewSettings{
				GridSize:   20,
				SnapToGrid: true,
				ShowLabels: true,
			},
		},
		cfg:       cfg,
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}

	scene.addEvent(events.NewSceneCreated(scene.id.String(), userID, name, now))

	return scene, nil
}

// ReconstructScene recreates a scene from stored data
func ReconstructScene(
	id string,
	userID string,
	name string,
	description string,
	createdAt time.Time,
	updatedAt time.Time,
	version int,
) (*Scene, error) {
	if id == "" || userID == "" || name == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for scene reconstruction")
	}

	return &Scene{
		id:          SceneID(id),
		userID:      userID,
		name:        name,
		description: description,
		nodes:       make(map[valueobjects.ElementID]*entities.Node),
		edges:       make(map[valueobjects.ElementID]*entities.Edge),
		metadata: SceneMetadata{
			ViewSettings: ViewSettings{
				GridSize:   20,
				SnapToGrid: true,
				ShowLabels: true,
			},
		},
		cfg:       config.DefaultDomainConfig(),
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
		events:    []events.DomainEvent{},
	}, nil
}

// ID returns the scene's unique identifier
func (s *Scene) ID() SceneID {
	return s.id
}

// UserID returns the owner's ID
func (s *Scene) UserID() string {
	return s.userID
}

// Name returns the scene's name
func (s *Scene) Name() string {
	return s.name
}

// Description returns the scene's description
func (s *Scene) Description() string {
	return s.description
}

// Rename updates the scene's name
func (s *Scene) Rename(name string) error {
	if name == "" {
		return pkgerrors.ErrSceneNameRequired
	}
	if name == s.name {
		return nil
	}

	oldName := s.name
	s.name = name
	s.updatedAt = time.Now()
	s.version++

	s.addEvent(events.NewSceneRenamed(s.id.String(), oldName, name, s.updatedAt))

	return nil
}

// SetDescription updates the scene's description
func (s *Scene) SetDescription(description string) error {
	if len(description) > s.cfg.MaxDescriptionLength {
		return pkgerrors.NewValidationError("scene description exceeds maximum length")
	}
	s.description = description
	s.updatedAt = time.Now()
	return nil
}

// CreatedAt returns when the scene was created
func (s *Scene) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns when the scene was last updated
func (s *Scene) UpdatedAt() time.Time {
	return s.updatedAt
}

// Version returns the scene's version for optimistic locking
func (s *Scene) Version() int {
	return s.version
}

// AddNode adds a node to the scene
func (s *Scene) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}

	nodeID := node.ID()
	if _, exists := s.nodes[nodeID]; exists {
		return pkgerrors.NewConflictError("node already exists in scene")
	}

	if len(s.nodes) >= s.cfg.MaxNodesPerScene {
		return pkgerrors.ErrSceneNodeLimit.
			WithDetail("limit", s.cfg.MaxNodesPerScene)
	}

	s.nodes[nodeID] = node
	s.metadata.NodeCount++
	s.updatedAt = time.Now()
	s.version++

	return nil
}

// ConnectNodes creates a directed edge between two existing, distinct nodes
func (s *Scene) ConnectNodes(sourceID, targetID valueobjects.ElementID, label string) (*entities.Edge, error) {
	_, sourceExists := s.nodes[sourceID]
	_, targetExists := s.nodes[targetID]
	if !sourceExists || !targetExists {
		return nil, pkgerrors.ErrEdgeEndpointMissing.
			WithDetail("source_id", sourceID.String()).
			WithDetail("target_id", targetID.String())
	}

	if !s.cfg.AllowSelfLoops && sourceID.Equals(targetID) {
		return nil, pkgerrors.ErrSelfLoopRejected.WithDetail("node_id", sourceID.String())
	}

	if !s.cfg.AllowDuplicateEdges {
		for _, edge := range s.edges {
			if edge.SourceID().Equals(sourceID) && edge.TargetID().Equals(targetID) {
				return nil, pkgerrors.NewConflictError("edge already exists")
			}
		}
	}

	if len(s.edges) >= s.cfg.MaxEdgesPerScene {
		return nil, pkgerrors.NewConflictError("maximum edges reached")
	}

	edge, err := entities.NewEdgeWithConfig(s.id.String(), sourceID, targetID, label, s.cfg)
	if err != nil {
		return nil, err
	}

	s.edges[edge.ID()] = edge
	s.metadata.EdgeCount++
	s.updatedAt = time.Now()
	s.version++

	s.addEvent(events.NewEdgeCreated(s.id.String(), edge.ID(), sourceID, targetID, label, s.updatedAt))

	return edge, nil
}

// RemoveNode removes a node from the scene. Edges touching the node must
// already be gone; callers cascade edge removal first.
func (s *Scene) RemoveNode(nodeID valueobjects.ElementID) error {
	if _, exists := s.nodes[nodeID]; !exists {
		return pkgerrors.ErrElementNotFound.WithDetail("node_id", nodeID.String())
	}

	if touching := s.EdgesTouching(nodeID); len(touching) > 0 {
		return pkgerrors.ErrNodeStillConnected.
			WithDetail("node_id", nodeID.String()).
			WithDetail("edge_count", len(touching))
	}

	delete(s.nodes, nodeID)
	s.metadata.NodeCount--
	s.updatedAt = time.Now()
	s.version++

	s.addEvent(events.NewNodeRemoved(s.id.String(), nodeID, s.updatedAt))

	return nil
}

// RemoveEdge removes an edge from the scene
func (s *Scene) RemoveEdge(edgeID valueobjects.ElementID) error {
	edge, exists := s.edges[edgeID]
	if !exists {
		return pkgerrors.ErrEdgeNotFound.WithDetail("edge_id", edgeID.String())
	}

	delete(s.edges, edgeID)
	s.metadata.EdgeCount--
	s.updatedAt = time.Now()
	s.version++

	s.addEvent(events.NewEdgeRemoved(s.id.String(), edgeID, edge.SourceID(), edge.TargetID(), s.updatedAt))

	return nil
}

// EdgesTouching returns every edge that references the node as either endpoint
func (s *Scene) EdgesTouching(nodeID valueobjects.ElementID) []*entities.Edge {
	var touching []*entities.Edge
	for _, edge := range s.edges {
		if edge.Touches(nodeID) {
			touching = append(touching, edge)
		}
	}
	return touching
}

// GetNode retrieves a node by ID
func (s *Scene) GetNode(nodeID valueobjects.ElementID) (*entities.Node, error) {
	node, exists := s.nodes[nodeID]
	if !exists {
		return nil, pkgerrors.ErrElementNotFound.WithDetail("node_id", nodeID.String())
	}
	return node, nil
}

// GetEdge retrieves an edge by ID
func (s *Scene) GetEdge(edgeID valueobjects.ElementID) (*entities.Edge, error) {
	edge, exists := s.edges[edgeID]
	if !exists {
		return nil, pkgerrors.ErrEdgeNotFound.WithDetail("edge_id", edgeID.String())
	}
	return edge, nil
}

// HasNode checks if a node exists in the scene without error
func (s *Scene) HasNode(nodeID valueobjects.ElementID) bool {
	_, exists := s.nodes[nodeID]
	return exists
}

// HasEdge checks if an edge exists in the scene without error
func (s *Scene) HasEdge(edgeID valueobjects.ElementID) bool {
	_, exists := s.edges[edgeID]
	return exists
}

// HasElement checks whether the referenced element exists in the scene
func (s *Scene) HasElement(ref valueobjects.ElementRef) bool {
	if ref.IsNode() {
		return s.HasNode(ref.ID)
	}
	return s.HasEdge(ref.ID)
}

// GetNodes returns all nodes in the scene
func (s *Scene) GetNodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// GetEdges returns all edges in the scene
func (s *Scene) GetEdges() []*entities.Edge {
	edges := make([]*entities.Edge, 0, len(s.edges))
	for _, edge := range s.edges {
		edges = append(edges, edge)
	}
	return edges
}

// NodeCount returns the number of nodes in the scene
func (s *Scene) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges in the scene
func (s *Scene) EdgeCount() int {
	return len(s.edges)
}

// Validate ensures scene invariants
func (s *Scene) Validate() error {
	for _, edge := range s.edges {
		if _, sourceExists := s.nodes[edge.SourceID()]; !sourceExists {
			return pkgerrors.NewInternalError("edge references non-existent source node")
		}
		if _, targetExists := s.nodes[edge.TargetID()]; !targetExists {
			return pkgerrors.NewInternalError("edge references non-existent target node")
		}
		if edge.SourceID().Equals(edge.TargetID()) {
			return pkgerrors.NewInternalError("edge references the same node at both ends")
		}
	}

	if len(s.nodes) != s.metadata.NodeCount {
		return pkgerrors.NewInternalError("node count mismatch")
	}
	if len(s.edges) != s.metadata.EdgeCount {
		return pkgerrors.NewInternalError("edge count mismatch")
	}

	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (s *Scene) GetUncommittedEvents() []events.DomainEvent {
	allEvents := make([]events.DomainEvent, len(s.events))
	copy(allEvents, s.events)

	for _, node := range s.nodes {
		allEvents = append(allEvents, node.GetUncommittedEvents()...)
	}

	return allEvents
}

// MarkEventsAsCommitted clears all uncommitted events
func (s *Scene) MarkEventsAsCommitted() {
	s.events = []events.DomainEvent{}

	for _, node := range s.nodes {
		node.MarkEventsAsCommitted()
	}
}

func (s *Scene) addEvent(event events.DomainEvent) {
	s.events = append(s.events, event)
}
