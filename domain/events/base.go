package events

import (
	"time"

	"archboard-backend/domain/core/valueobjects"
)

// SourceEditor identifies this service as the origin of published events
const SourceEditor = "archboard.editor"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Scene Events

// SceneCreated is raised when a new scene is created
type SceneCreated struct {
	BaseEvent
	SceneID string `json:"scene_id"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
}

// NewSceneCreated creates a SceneCreated event
func NewSceneCreated(sceneID, userID, name string, timestamp time.Time) SceneCreated {
	return SceneCreated{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "scene.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID: sceneID,
		UserID:  userID,
		Name:    name,
	}
}

// SceneRenamed is raised when a scene is renamed
type SceneRenamed struct {
	BaseEvent
	SceneID string `json:"scene_id"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// NewSceneRenamed creates a SceneRenamed event
func NewSceneRenamed(sceneID, oldName, newName string, timestamp time.Time) SceneRenamed {
	return SceneRenamed{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "scene.renamed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID: sceneID,
		OldName: oldName,
		NewName: newName,
	}
}

// Node Events

// NodeAdded is raised when a node is placed on a scene
type NodeAdded struct {
	BaseEvent
	SceneID string                 `json:"scene_id"`
	NodeID  valueobjects.ElementID `json:"node_id"`
	Kind    string                 `json:"kind"`
	Name    string                 `json:"name"`
	Bounds  valueobjects.Bounds    `json:"bounds"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(sceneID string, nodeID valueobjects.ElementID, kind, name string, bounds valueobjects.Bounds, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "node.added",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID: sceneID,
		NodeID:  nodeID,
		Kind:    kind,
		Name:    name,
		Bounds:  bounds,
	}
}

// NodeMoved is raised when a node's bounds change on the canvas
type NodeMoved struct {
	BaseEvent
	NodeID    valueobjects.ElementID `json:"node_id"`
	OldBounds valueobjects.Bounds    `json:"old_bounds"`
	NewBounds valueobjects.Bounds    `json:"new_bounds"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(nodeID valueobjects.ElementID, oldBounds, newBounds valueobjects.Bounds, timestamp time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.moved",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:    nodeID,
		OldBounds: oldBounds,
		NewBounds: newBounds,
	}
}

// NodeRenamed is raised when a node's display name changes
type NodeRenamed struct {
	BaseEvent
	NodeID  valueobjects.ElementID `json:"node_id"`
	OldName string                 `json:"old_name"`
	NewName string                 `json:"new_name"`
}

// NewNodeRenamed creates a NodeRenamed event
func NewNodeRenamed(nodeID valueobjects.ElementID, oldName, newName string, timestamp time.Time) NodeRenamed {
	return NodeRenamed{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.renamed",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:  nodeID,
		OldName: oldName,
		NewName: newName,
	}
}

// NodeRemoved is raised when a node is removed from a scene
type NodeRemoved struct {
	BaseEvent
	SceneID string                 `json:"scene_id"`
	NodeID  valueobjects.ElementID `json:"node_id"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(sceneID string, nodeID valueobjects.ElementID, timestamp time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "node.removed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID: sceneID,
		NodeID:  nodeID,
	}
}

// Edge Events

// EdgeCreated is raised when a directed edge between two nodes is created
type EdgeCreated struct {
	BaseEvent
	SceneID  string                 `json:"scene_id"`
	EdgeID   valueobjects.ElementID `json:"edge_id"`
	SourceID valueobjects.ElementID `json:"source_id"`
	TargetID valueobjects.ElementID `json:"target_id"`
	Label    string                 `json:"label,omitempty"`
}

// NewEdgeCreated creates an EdgeCreated event
func NewEdgeCreated(sceneID string, edgeID, sourceID, targetID valueobjects.ElementID, label string, timestamp time.Time) EdgeCreated {
	return EdgeCreated{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "edge.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID:  sceneID,
		EdgeID:   edgeID,
		SourceID: sourceID,
		TargetID: targetID,
		Label:    label,
	}
}

// EdgeRemoved is raised when an edge is removed from a scene
type EdgeRemoved struct {
	BaseEvent
	SceneID  string                 `json:"scene_id"`
	EdgeID   valueobjects.ElementID `json:"edge_id"`
	SourceID valueobjects.ElementID `json:"source_id"`
	TargetID valueobjects.ElementID `json:"target_id"`
}

// NewEdgeRemoved creates an EdgeRemoved event
func NewEdgeRemoved(sceneID string, edgeID, sourceID, targetID valueobjects.ElementID, timestamp time.Time) EdgeRemoved {
	return EdgeRemoved{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "edge.removed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID:  sceneID,
		EdgeID:   edgeID,
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// Selection Events

// SelectionChanged is raised whenever the selected set changes
type SelectionChanged struct {
	BaseEvent
	SceneID        string                   `json:"scene_id"`
	Selected       []valueobjects.ElementRef `json:"selected"`
	Classification string                   `json:"classification"`
}

// NewSelectionChanged creates a SelectionChanged event
func NewSelectionChanged(sceneID string, selected []valueobjects.ElementRef, classification string, timestamp time.Time) SelectionChanged {
	return SelectionChanged{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "selection.changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID:        sceneID,
		Selected:       selected,
		Classification: classification,
	}
}

// SelectionCleared is raised exactly once when a non-empty selection empties
type SelectionCleared struct {
	BaseEvent
	SceneID string `json:"scene_id"`
}

// NewSelectionCleared creates a SelectionCleared event
func NewSelectionCleared(sceneID string, timestamp time.Time) SelectionCleared {
	return SelectionCleared{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "selection.cleared",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID: sceneID,
	}
}

// Connection Session Events

// ConnectionSessionChanged is raised on every session state transition
type ConnectionSessionChanged struct {
	BaseEvent
	SceneID  string                 `json:"scene_id"`
	State    string                 `json:"state"`
	SourceID valueobjects.ElementID `json:"source_id,omitempty"`
	EdgeID   valueobjects.ElementID `json:"edge_id,omitempty"`
}

// NewConnectionSessionChanged creates a ConnectionSessionChanged event
func NewConnectionSessionChanged(sceneID, state string, sourceID, edgeID valueobjects.ElementID, timestamp time.Time) ConnectionSessionChanged {
	return ConnectionSessionChanged{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "connection.session_changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID:  sceneID,
		State:    state,
		SourceID: sourceID,
		EdgeID:   edgeID,
	}
}

// Deletion Events

// ElementDeletionStarted is raised when a cascade deletion begins
type ElementDeletionStarted struct {
	BaseEvent
	SceneID string                  `json:"scene_id"`
	Element valueobjects.ElementRef `json:"element"`
}

// NewElementDeletionStarted creates an ElementDeletionStarted event
func NewElementDeletionStarted(sceneID string, element valueobjects.ElementRef, timestamp time.Time) ElementDeletionStarted {
	return ElementDeletionStarted{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "deletion.started",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID: sceneID,
		Element: element,
	}
}

// ElementDeletionCompleted is raised when a cascade deletion finishes
type ElementDeletionCompleted struct {
	BaseEvent
	SceneID      string                  `json:"scene_id"`
	Element      valueobjects.ElementRef `json:"element"`
	RemovedEdges int                     `json:"removed_edges"`
}

// NewElementDeletionCompleted creates an ElementDeletionCompleted event
func NewElementDeletionCompleted(sceneID string, element valueobjects.ElementRef, removedEdges int, timestamp time.Time) ElementDeletionCompleted {
	return ElementDeletionCompleted{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "deletion.completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID:      sceneID,
		Element:      element,
		RemovedEdges: removedEdges,
	}
}

// ElementDeletionFailed is raised when a cascade deletion aborts partway
type ElementDeletionFailed struct {
	BaseEvent
	SceneID string                  `json:"scene_id"`
	Element valueobjects.ElementRef `json:"element"`
	Reason  string                  `json:"reason"`
}

// NewElementDeletionFailed creates an ElementDeletionFailed event
func NewElementDeletionFailed(sceneID string, element valueobjects.ElementRef, reason string, timestamp time.Time) ElementDeletionFailed {
	return ElementDeletionFailed{
		BaseEvent: BaseEvent{
			AggregateID: sceneID,
			EventType:   "deletion.failed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SceneID: sceneID,
		Element: element,
		Reason:  reason,
	}
}

// Property Events

// PropertyChanged is raised when a property is added, updated or removed
type PropertyChanged struct {
	BaseEvent
	ElementID valueobjects.ElementID `json:"element_id"`
	Key       string                 `json:"key"`
	Change    string                 `json:"change"`
	NewValue  interface{}            `json:"new_value,omitempty"`
}

// NewPropertyChanged creates a PropertyChanged event
func NewPropertyChanged(elementID valueobjects.ElementID, key, change string, newValue interface{}, timestamp time.Time) PropertyChanged {
	return PropertyChanged{
		BaseEvent: BaseEvent{
			AggregateID: elementID.String(),
			EventType:   "property.changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		ElementID: elementID,
		Key:       key,
		Change:    change,
		NewValue:  newValue,
	}
}

// Element State Events

// NodeStateChanged is raised when a node's interaction state flips
type NodeStateChanged struct {
	BaseEvent
	NodeID         valueobjects.ElementID `json:"node_id"`
	Collapsed      bool                   `json:"collapsed"`
	Editing        bool                   `json:"editing"`
	ActionsVisible bool                   `json:"actions_visible"`
}

// NewNodeStateChanged creates a NodeStateChanged event
func NewNodeStateChanged(nodeID valueobjects.ElementID, collapsed, editing, actionsVisible bool, timestamp time.Time) NodeStateChanged {
	return NodeStateChanged{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.state_changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:         nodeID,
		Collapsed:      collapsed,
		Editing:        editing,
		ActionsVisible: actionsVisible,
	}
}
