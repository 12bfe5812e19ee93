package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
)

// NodeState holds the transient interaction state of one node
type NodeState struct {
	Collapsed      bool                `json:"collapsed"`
	Editing        bool                `json:"editing"`
	ActionsVisible bool                `json:"actions_visible"`
	CachedBounds   valueobjects.Bounds `json:"cached_bounds"`
}

// ElementStateStore tracks per-node interaction state for one scene.
// At most one node is in editing mode at any time; starting to edit a second
// node ends the first node's editing session automatically.
type ElementStateStore struct {
	states  map[valueobjects.ElementID]*NodeState
	editing *valueobjects.ElementID
	bus     ports.EventPublisher
	logger  *zap.Logger
}

// NewElementStateStore creates an element state store
func NewElementStateStore(bus ports.EventPublisher, logger *zap.Logger) *ElementStateStore {
	return &ElementStateStore{
		states: make(map[valueobjects.ElementID]*NodeState),
		bus:    bus,
		logger: logger,
	}
}

// StateOf returns a copy of the node's state. Unknown nodes report the
// zero state.
func (s *ElementStateStore) StateOf(id valueobjects.ElementID) NodeState {
	if state, ok := s.states[id]; ok {
		return *state
	}
	return NodeState{}
}

// SetCollapsed flips the collapsed flag for a node
func (s *ElementStateStore) SetCollapsed(ctx context.Context, id valueobjects.ElementID, collapsed bool) {
	state := s.ensure(id)
	if state.Collapsed == collapsed {
		return
	}
	state.Collapsed = collapsed
	s.publish(ctx, id, state)
}

// BeginEditing puts a node into editing mode. Any other node currently in
// editing mode is taken out of it first.
func (s *ElementStateStore) BeginEditing(ctx context.Context, id valueobjects.ElementID) {
	if s.editing != nil {
		if s.editing.Equals(id) {
			return
		}
		prev := *s.editing
		if prevState, ok := s.states[prev]; ok && prevState.Editing {
			prevState.Editing = false
			s.publish(ctx, prev, prevState)
		}
	}

	state := s.ensure(id)
	state.Editing = true
	s.editing = &id
	s.publish(ctx, id, state)
}

// EndEditing takes a node out of editing mode. Ending a node that is not
// editing is a no-op.
func (s *ElementStateStore) EndEditing(ctx context.Context, id valueobjects.ElementID) {
	state, ok := s.states[id]
	if !ok || !state.Editing {
		return
	}
	state.Editing = false
	if s.editing != nil && s.editing.Equals(id) {
		s.editing = nil
	}
	s.publish(ctx, id, state)
}

// EditingNode returns the node currently in editing mode, if any
func (s *ElementStateStore) EditingNode() (valueobjects.ElementID, bool) {
	if s.editing == nil {
		return valueobjects.ElementID{}, false
	}
	return *s.editing, true
}

// SetActionsVisible toggles the hover action affordances for a node
func (s *ElementStateStore) SetActionsVisible(ctx context.Context, id valueobjects.ElementID, visible bool) {
	state := s.ensure(id)
	if state.ActionsVisible == visible {
		return
	}
	state.ActionsVisible = visible
	s.publish(ctx, id, state)
}

// CacheBounds stores the last rendered bounds for a node so layout reads
// can avoid a reflow
func (s *ElementStateStore) CacheBounds(id valueobjects.ElementID, bounds valueobjects.Bounds) {
	s.ensure(id).CachedBounds = bounds
}

// CachedBounds returns the cached bounds for a node, if present
func (s *ElementStateStore) CachedBounds(id valueobjects.ElementID) (valueobjects.Bounds, bool) {
	state, ok := s.states[id]
	if !ok || state.CachedBounds.IsZero() {
		return valueobjects.Bounds{}, false
	}
	return state.CachedBounds, true
}

// Remove drops all state for a node. Called during element deletion.
func (s *ElementStateStore) Remove(id valueobjects.ElementID) {
	if s.editing != nil && s.editing.Equals(id) {
		s.editing = nil
	}
	delete(s.states, id)
}

// TrackedCount returns how many nodes carry state
func (s *ElementStateStore) TrackedCount() int {
	return len(s.states)
}

func (s *ElementStateStore) ensure(id valueobjects.ElementID) *NodeState {
	state, ok := s.states[id]
	if !ok {
		state = &NodeState{}
		s.states[id] = state
	}
	return state
}

func (s *ElementStateStore) publish(ctx context.Context, id valueobjects.ElementID, state *NodeState) {
	event := events.NewNodeStateChanged(id, state.Collapsed, state.Editing, state.ActionsVisible, time.Now())
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish node state change",
			zap.String("nodeID", id.String()),
			zap.Error(err),
		)
	}
}
