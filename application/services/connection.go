package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
	pkgerrors "archboard-backend/pkg/errors"
)

// SessionState is the lifecycle phase of a connection session
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionPending   SessionState = "pending"
	SessionCompleted SessionState = "completed"
	SessionCancelled SessionState = "cancelled"
)

// ConnectionOutcome describes how a session ended
type ConnectionOutcome string

const (
	OutcomeCompleted        ConnectionOutcome = "completed"
	OutcomeCancelled        ConnectionOutcome = "cancelled"
	OutcomeSelfLoopRejected ConnectionOutcome = "self-loop-rejected"
)

// ConnectionResult reports the end of a session to the caller
type ConnectionResult struct {
	Outcome ConnectionOutcome
	Edge    *entities.Edge
}

// SessionSnapshot is a read-only view of the session for introspection
type SessionSnapshot struct {
	State     SessionState           `json:"state"`
	SourceID  valueobjects.ElementID `json:"source_id,omitempty"`
	StartedAt time.Time              `json:"started_at,omitempty"`
}

// ConnectionSessionManager drives the interactive edge-drawing gesture for
// one scene. The session moves Idle -> Pending -> Completed or Cancelled and
// settles back to Idle; at most one session exists at a time. Dropping the
// gesture on the source node itself cancels the session rather than creating
// a self loop.
type ConnectionSessionManager struct {
	scene     *aggregates.Scene
	renderer  ports.Renderer
	bus       ports.EventPublisher
	logger    *zap.Logger
	state     SessionState
	sourceID  valueobjects.ElementID
	startedAt time.Time
}

// NewConnectionSessionManager creates a session manager for a scene
func NewConnectionSessionManager(
	scene *aggregates.Scene,
	renderer ports.Renderer,
	bus ports.EventPublisher,
	logger *zap.Logger,
) *ConnectionSessionManager {
	return &ConnectionSessionManager{
		scene:    scene,
		renderer: renderer,
		bus:      bus,
		logger:   logger,
		state:    SessionIdle,
	}
}

// State returns the current lifecycle phase
func (m *ConnectionSessionManager) State() SessionState {
	return m.state
}

// Snapshot returns a read-only view of the session
func (m *ConnectionSessionManager) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{State: m.state}
	if m.state == SessionPending {
		snap.SourceID = m.sourceID
		snap.StartedAt = m.startedAt
	}
	return snap
}

// Begin starts a session anchored at the given node. A second Begin while a
// session is pending is ignored: the live session is undisturbed and no
// error surfaces, matching the gesture model where a stray press during a
// drag means nothing.
func (m *ConnectionSessionManager) Begin(ctx context.Context, sourceID valueobjects.ElementID, anchor valueobjects.Position) error {
	if m.state == SessionPending {
		m.logger.Debug("connection begin ignored, session already pending",
			zap.String("sourceID", m.sourceID.String()),
		)
		return nil
	}

	if !m.scene.HasNode(sourceID) {
		return pkgerrors.ErrElementNotFound.WithDetail("node_id", sourceID.String())
	}

	m.state = SessionPending
	m.sourceID = sourceID
	m.startedAt = time.Now()

	if err := m.renderer.RequestPreviewEdge(ctx, sourceID, anchor); err != nil {
		m.logger.Warn("failed to draw preview edge",
			zap.String("sourceID", sourceID.String()),
			zap.Error(err),
		)
	}

	m.publishTransition(ctx, SessionPending, valueobjects.ElementID{})

	return nil
}

// UpdatePointer moves the free end of the preview edge while pending
func (m *ConnectionSessionManager) UpdatePointer(ctx context.Context, to valueobjects.Position) error {
	if m.state != SessionPending {
		return pkgerrors.ErrNoActiveSession
	}

	if err := m.renderer.UpdatePreviewEdge(ctx, to); err != nil {
		m.logger.Warn("failed to move preview edge", zap.Error(err))
	}

	return nil
}

// CompleteAt finishes the gesture on the given target node. Dropping on the
// source node cancels the session; no edge is ever created for a self loop.
// Dropping on a node that is no longer in the scene also cancels.
func (m *ConnectionSessionManager) CompleteAt(ctx context.Context, targetID valueobjects.ElementID) (ConnectionResult, error) {
	if m.state != SessionPending {
		return ConnectionResult{}, pkgerrors.ErrNoActiveSession
	}

	sourceID := m.sourceID
	m.removePreview(ctx)

	if sourceID.Equals(targetID) {
		m.settle(ctx, SessionCancelled)
		m.logger.Debug("connection session dropped on its own source",
			zap.String("nodeID", sourceID.String()),
		)
		return ConnectionResult{Outcome: OutcomeSelfLoopRejected}, nil
	}

	if !m.scene.HasNode(targetID) {
		m.settle(ctx, SessionCancelled)
		return ConnectionResult{Outcome: OutcomeCancelled}, nil
	}

	edge, err := m.scene.ConnectNodes(sourceID, targetID, "")
	if err != nil {
		m.settle(ctx, SessionCancelled)
		return ConnectionResult{Outcome: OutcomeCancelled}, err
	}

	m.state = SessionCompleted
	m.publishTransition(ctx, SessionCompleted, edge.ID())
	m.state = SessionIdle
	m.sourceID = valueobjects.ElementID{}

	m.logger.Info("connection session completed",
		zap.String("edgeID", edge.ID().String()),
		zap.String("sourceID", sourceID.String()),
		zap.String("targetID", targetID.String()),
	)

	return ConnectionResult{Outcome: OutcomeCompleted, Edge: edge}, nil
}

// Cancel abandons a pending session. Cancelling with no session is a no-op.
func (m *ConnectionSessionManager) Cancel(ctx context.Context) {
	if m.state != SessionPending {
		return
	}

	m.removePreview(ctx)
	m.settle(ctx, SessionCancelled)
}

// CancelIfSource abandons a pending session anchored at the given node.
// Used when the anchor node is deleted mid-gesture.
func (m *ConnectionSessionManager) CancelIfSource(ctx context.Context, nodeID valueobjects.ElementID) {
	if m.state == SessionPending && m.sourceID.Equals(nodeID) {
		m.Cancel(ctx)
	}
}

func (m *ConnectionSessionManager) settle(ctx context.Context, terminal SessionState) {
	m.state = terminal
	m.publishTransition(ctx, terminal, valueobjects.ElementID{})
	m.state = SessionIdle
	m.sourceID = valueobjects.ElementID{}
}

func (m *ConnectionSessionManager) removePreview(ctx context.Context) {
	if err := m.renderer.RemovePreviewEdge(ctx); err != nil {
		m.logger.Warn("failed to remove preview edge", zap.Error(err))
	}
}

func (m *ConnectionSessionManager) publishTransition(ctx context.Context, state SessionState, edgeID valueobjects.ElementID) {
	event := events.NewConnectionSessionChanged(m.scene.ID().String(), string(state), m.sourceID, edgeID, time.Now())
	if err := m.bus.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish connection session change", zap.Error(err))
	}
}
