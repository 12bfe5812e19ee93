package entities

import (
	"fmt"
	"time"

	"archboard-backend/domain/config"
	"archboard-backend/domain/core/valueobjects"
	pkgerrors "archboard-backend/pkg/errors"
)

// Edge is a directed relationship between two distinct nodes
type Edge struct {
	id         valueobjects.ElementID
	sceneID    string
	sourceID   valueobjects.ElementID
	targetID   valueobjects.ElementID
	label      string
	technology string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewEdge creates an edge between two distinct nodes
func NewEdge(sceneID string, sourceID, targetID valueobjects.ElementID, label string) (*Edge, error) {
	return NewEdgeWithConfig(sceneID, sourceID, targetID, label, config.DefaultDomainConfig())
}

// NewEdgeWithConfig creates an edge with configuration
func NewEdgeWithConfig(sceneID string, sourceID, targetID valueobjects.ElementID, label string, cfg *config.DomainConfig) (*Edge, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if sceneID == "" {
		return nil, pkgerrors.NewValidationError("sceneID cannot be empty")
	}

	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.ErrEdgeEndpointMissing
	}

	// An edge never points back at its own source
	if !cfg.AllowSelfLoops && sourceID.Equals(targetID) {
		return nil, pkgerrors.ErrSelfLoopRejected.WithDetail("node_id", sourceID.String())
	}

	if len(label) > cfg.MaxEdgeLabelLength {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("edge label exceeds maximum length of %d characters", cfg.MaxEdgeLabelLength))
	}

	now := time.Now()
	return &Edge{
		id:        valueobjects.NewElementID(),
		sceneID:   sceneID,
		sourceID:  sourceID,
		targetID:  targetID,
		label:     label,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructEdge reconstructs an edge from repository data
func ReconstructEdge(
	id valueobjects.ElementID,
	sceneID string,
	sourceID, targetID valueobjects.ElementID,
	label, technology string,
	createdAt, updatedAt time.Time,
) (*Edge, error) {
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.ErrSelfLoopRejected.WithDetail("node_id", sourceID.String())
	}

	return &Edge{
		id:         id,
		sceneID:    sceneID,
		sourceID:   sourceID,
		targetID:   targetID,
		label:      label,
		technology: technology,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

// ID returns the edge's unique identifier
func (e *Edge) ID() valueobjects.ElementID {
	return e.id
}

// SceneID returns the ID of the scene this edge belongs to
func (e *Edge) SceneID() string {
	return e.sceneID
}

// SourceID returns the ID of the node this edge starts at
func (e *Edge) SourceID() valueobjects.ElementID {
	return e.sourceID
}

// TargetID returns the ID of the node this edge points to
func (e *Edge) TargetID() valueobjects.ElementID {
	return e.targetID
}

// Label returns the edge's relationship text
func (e *Edge) Label() string {
	return e.label
}

// Technology returns the technology annotation, if any
func (e *Edge) Technology() string {
	return e.technology
}

// SetLabel updates the edge's relationship text
func (e *Edge) SetLabel(label string) error {
	return e.SetLabelWithConfig(label, config.DefaultDomainConfig())
}

// SetLabelWithConfig updates the edge's relationship text with configuration
func (e *Edge) SetLabelWithConfig(label string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if len(label) > cfg.MaxEdgeLabelLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("edge label exceeds maximum length of %d characters", cfg.MaxEdgeLabelLength))
	}

	e.label = label
	e.updatedAt = time.Now()

	return nil
}

// SetTechnology updates the technology annotation
func (e *Edge) SetTechnology(technology string) {
	e.technology = technology
	e.updatedAt = time.Now()
}

// Touches reports whether the edge references the given node as either endpoint
func (e *Edge) Touches(nodeID valueobjects.ElementID) bool {
	return e.sourceID.Equals(nodeID) || e.targetID.Equals(nodeID)
}

// CreatedAt returns when the edge was created
func (e *Edge) CreatedAt() time.Time {
	return e.createdAt
}

// UpdatedAt returns when the edge was last updated
func (e *Edge) UpdatedAt() time.Time {
	return e.updatedAt
}
