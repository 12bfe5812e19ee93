package entities

import (
	"fmt"
	"time"

	"archboard-backend/domain/config"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
	pkgerrors "archboard-backend/pkg/errors"
)

// NodeKind classifies a node in the C4 vocabulary
type NodeKind string

const (
	KindPerson    NodeKind = "person"
	KindSystem    NodeKind = "system"
	KindContainer NodeKind = "container"
	KindComponent NodeKind = "component"
)

// ParseNodeKind validates and converts a raw kind string
func ParseNodeKind(raw string) (NodeKind, error) {
	switch NodeKind(raw) {
	case KindPerson, KindSystem, KindContainer, KindComponent:
		return NodeKind(raw), nil
	default:
		return "", pkgerrors.ErrInvalidNodeKind.WithDetail("kind", raw)
	}
}

// Node is a diagram element representing a person, system, container or
// component. This is a rich domain model with encapsulated business logic.
type Node struct {
	// Private fields ensure encapsulation
	id          valueobjects.ElementID
	sceneID     string
	kind        NodeKind
	name        valueobjects.Label
	description string
	bounds      valueobjects.Bounds
	createdAt   time.Time
	updatedAt   time.Time
	version     int

	// Domain events that occurred during this entity's lifetime
	events []events.DomainEvent
}

// NewNode creates a new node with full business rule validation
func NewNode(sceneID string, kind NodeKind, name valueobjects.Label, bounds valueobjects.Bounds) (*Node, error) {
	return NewNodeWithConfig(sceneID, kind, name, bounds, config.DefaultDomainConfig())
}

// NewNodeWithConfig creates a new node with validation and configuration
func NewNodeWithConfig(sceneID string, kind NodeKind, name valueobjects.Label, bounds valueobjects.Bounds, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if sceneID == "" {
		return nil, pkgerrors.NewValidationError("sceneID cannot be empty")
	}

	if _, err := ParseNodeKind(string(kind)); err != nil {
		return nil, err
	}

	if name.IsEmpty() {
		return nil, pkgerrors.ErrNodeNameRequired
	}

	if bounds.Width < cfg.MinNodeWidth || bounds.Height < cfg.MinNodeHeight {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("node bounds below minimum size %gx%g", cfg.MinNodeWidth, cfg.MinNodeHeight))
	}

	now := time.Now()
	node := &Node{
		id:        valueobjects.NewElementID(),
		sceneID:   sceneID,
		kind:      kind,
		name:      name,
		bounds:    bounds,
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}

	node.addEvent(events.NewNodeAdded(sceneID, node.id, string(kind), name.String(), bounds, now))

	return node, nil
}

// ReconstructNode reconstructs a node from repository data with preserved timestamps
func ReconstructNode(
	id valueobjects.ElementID,
	sceneID string,
	kind NodeKind,
	name valueobjects.Label,
	description string,
	bounds valueobjects.Bounds,
	createdAt, updatedAt time.Time,
	version int,
) (*Node, error) {
	if sceneID == "" {
		return nil, pkgerrors.NewValidationError("sceneID cannot be empty")
	}

	if name.IsEmpty() {
		return nil, pkgerrors.ErrNodeNameRequired
	}

	return &Node{
		id:          id,
		sceneID:     sceneID,
		kind:        kind,
		name:        name,
		description: description,
		bounds:      bounds,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		version:     version,
		events:      []events.DomainEvent{},
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.ElementID {
	return n.id
}

// SceneID returns the ID of the scene this node belongs to
func (n *Node) SceneID() string {
	return n.sceneID
}

// Kind returns the node's C4 classification
func (n *Node) Kind() NodeKind {
	return n.kind
}

// Name returns the node's display name
func (n *Node) Name() valueobjects.Label {
	return n.name
}

// Description returns the node's description text
func (n *Node) Description() string {
	return n.description
}

// Bounds returns the node's display rectangle
func (n *Node) Bounds() valueobjects.Bounds {
	return n.bounds
}

// Version returns the node's version for optimistic locking
func (n *Node) Version() int {
	return n.version
}

// Rename updates the node's display name with validation
func (n *Node) Rename(name valueobjects.Label) error {
	if name.IsEmpty() {
		return pkgerrors.ErrNodeNameRequired
	}

	if name.Equals(n.name) {
		return nil // No change needed
	}

	oldName := n.name
	n.name = name
	n.updatedAt = time.Now()
	n.version++

	n.addEvent(events.NewNodeRenamed(n.id, oldName.String(), name.String(), n.updatedAt))

	return nil
}

// SetDescription updates the node's description
func (n *Node) SetDescription(description string) error {
	return n.SetDescriptionWithConfig(description, config.DefaultDomainConfig())
}

// SetDescriptionWithConfig updates the node's description with configuration
func (n *Node) SetDescriptionWithConfig(description string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if len(description) > cfg.MaxDescriptionLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("description exceeds maximum length of %d characters", cfg.MaxDescriptionLength))
	}

	n.description = description
	n.updatedAt = time.Now()

	return nil
}

// MoveTo updates the node's bounds on the canvas
func (n *Node) MoveTo(bounds valueobjects.Bounds) error {
	return n.MoveToWithConfig(bounds, config.DefaultDomainConfig())
}

// MoveToWithConfig updates the node's bounds with configuration
func (n *Node) MoveToWithConfig(bounds valueobjects.Bounds, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if bounds.Width < cfg.MinNodeWidth || bounds.Height < cfg.MinNodeHeight {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("node bounds below minimum size %gx%g", cfg.MinNodeWidth, cfg.MinNodeHeight))
	}

	if bounds.Equals(n.bounds) {
		return nil // No movement needed
	}

	oldBounds := n.bounds
	n.bounds = bounds
	n.updatedAt = time.Now()

	n.addEvent(events.NewNodeMoved(n.id, oldBounds, bounds, n.updatedAt))

	return nil
}

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

// addEvent adds a domain event to the uncommitted list
func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}
