package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
	pkgerrors "archboard-backend/pkg/errors"
)

// DeletionRecord is one entry in the append-only deletion history. Every
// cascade that started leaves a record, successful or not. Timestamps within
// a history are strictly increasing, so the edge records produced by a node
// cascade always sort before the node's own record.
type DeletionRecord struct {
	Ref       valueobjects.ElementRef `json:"ref"`
	Success   bool                    `json:"success"`
	Error     string                  `json:"error,omitempty"`
	DeletedAt time.Time               `json:"deleted_at"`
}

// DeletionCoordinator runs the cascade that removes an element and every
// trace of it. Deleting a node removes its touching edges first, then the
// node itself; selection, properties and interaction state are cleaned up
// for each removed element. A per-element in-flight marker rejects
// re-entrant deletes and is cleared on every exit path, including panics.
type DeletionCoordinator struct {
	scene      *aggregates.Scene
	selection  *SelectionCoordinator
	properties *PropertyStore
	states     *ElementStateStore
	sessions   *ConnectionSessionManager
	tree       ports.TreeNotifier
	bus        ports.EventPublisher
	logger     *zap.Logger

	mu           sync.Mutex
	inFlight     map[valueobjects.ElementRef]bool
	records      []DeletionRecord
	lastRecordAt time.Time
}

// NewDeletionCoordinator creates a deletion coordinator for a scene
func NewDeletionCoordinator(
	scene *aggregates.Scene,
	selection *SelectionCoordinator,
	properties *PropertyStore,
	states *ElementStateStore,
	sessions *ConnectionSessionManager,
	tree ports.TreeNotifier,
	bus ports.EventPublisher,
	logger *zap.Logger,
) *DeletionCoordinator {
	return &DeletionCoordinator{
		scene:      scene,
		selection:  selection,
		properties: properties,
		states:     states,
		sessions:   sessions,
		tree:       tree,
		bus:        bus,
		logger:     logger,
		inFlight:   make(map[valueobjects.ElementRef]bool),
	}
}

// PendingDeletion is a node deletion whose edge cascade has completed but
// whose node is still in the scene, awaiting the fade. The in-flight marker
// stays set until Finalize runs.
type PendingDeletion struct {
	coordinator  *DeletionCoordinator
	ref          valueobjects.ElementRef
	removedEdges int
}

// Ref returns the element awaiting finalization
func (p *PendingDeletion) Ref() valueobjects.ElementRef {
	return p.ref
}

// Finalize detaches the node and cleans up its remaining traces. The caller
// is responsible for serializing this with other scene mutations; the editor
// re-enters through its own mutex when the fade resolves.
func (p *PendingDeletion) Finalize(ctx context.Context) {
	c := p.coordinator
	defer c.clearInFlight(p.ref)
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("panic: %v", r)
			c.appendRecord(p.ref, false, reason)
			c.publishFailed(ctx, p.ref, reason)
			c.logger.Error("deletion finalization panicked",
				zap.String("element", p.ref.String()),
				zap.Any("panic", r),
			)
		}
	}()
	c.finalizeNode(ctx, p.ref, p.removedEdges)
}

// DeleteElement removes an element from the scene with full cascade.
// Edge deletions complete synchronously and return a nil pending. Node
// deletions remove the touching edges, then return a PendingDeletion the
// caller finalizes once any fade has played out. A delete requested while
// the same element is already being deleted is rejected and leaves no trace
// in the history.
func (c *DeletionCoordinator) DeleteElement(ctx context.Context, ref valueobjects.ElementRef) (pending *PendingDeletion, err error) {
	if !c.markInFlight(ref) {
		return nil, pkgerrors.ErrDeletionInFlight.WithDetail("element", ref.String())
	}

	defer func() {
		if r := recover(); r != nil {
			c.clearInFlight(ref)
			reason := fmt.Sprintf("panic: %v", r)
			c.appendRecord(ref, false, reason)
			c.publishFailed(ctx, ref, reason)
			c.logger.Error("deletion cascade panicked",
				zap.String("element", ref.String()),
				zap.Any("panic", r),
			)
			pending = nil
			err = pkgerrors.NewInternalError("deletion cascade failed")
			return
		}
		if pending == nil {
			c.clearInFlight(ref)
		}
	}()

	if !c.scene.HasElement(ref) {
		return nil, pkgerrors.ErrElementNotFound.WithDetail("element", ref.String())
	}

	c.publishStarted(ctx, ref)

	if !ref.IsNode() {
		edge, getErr := c.scene.GetEdge(ref.ID)
		if getErr != nil {
			return nil, getErr
		}
		if removeErr := c.removeEdge(ctx, edge); removeErr != nil {
			c.appendRecord(ref, false, removeErr.Error())
			c.publishFailed(ctx, ref, removeErr.Error())
			return nil, removeErr
		}
		c.publishCompleted(ctx, ref, 0)
		return nil, nil
	}

	// A pending connection gesture anchored at this node cannot survive it
	c.sessions.CancelIfSource(ctx, ref.ID)

	touching := c.scene.EdgesTouching(ref.ID)
	for _, edge := range touching {
		if removeErr := c.removeEdge(ctx, edge); removeErr != nil {
			c.appendRecord(ref, false, removeErr.Error())
			c.publishFailed(ctx, ref, removeErr.Error())
			return nil, removeErr
		}
	}

	return &PendingDeletion{
		coordinator:  c,
		ref:          ref,
		removedEdges: len(touching),
	}, nil
}

// InFlight reports whether the element is currently being deleted
func (c *DeletionCoordinator) InFlight(ref valueobjects.ElementRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[ref]
}

// History returns the deletion records in append order
func (c *DeletionCoordinator) History() []DeletionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DeletionRecord, len(c.records))
	copy(out, c.records)
	return out
}

func (c *DeletionCoordinator) removeEdge(ctx context.Context, edge *entities.Edge) error {
	edgeRef := valueobjects.EdgeRef(edge.ID())

	c.selection.Deselect(ctx, edgeRef)
	c.properties.RemoveAll(edge.ID())

	if err := c.scene.RemoveEdge(edge.ID()); err != nil {
		return err
	}

	if err := c.tree.NotifyTreeRemoved(ctx, edgeRef); err != nil {
		c.logger.Warn("failed to notify tree of edge removal",
			zap.String("edgeID", edge.ID().String()),
			zap.Error(err),
		)
	}

	c.appendRecord(edgeRef, true, "")

	return nil
}

func (c *DeletionCoordinator) finalizeNode(ctx context.Context, ref valueobjects.ElementRef, removedEdges int) {
	c.selection.Deselect(ctx, ref)
	c.properties.RemoveAll(ref.ID)
	c.states.Remove(ref.ID)

	if err := c.scene.RemoveNode(ref.ID); err != nil {
		c.appendRecord(ref, false, err.Error())
		c.publishFailed(ctx, ref, err.Error())
		c.logger.Error("failed to remove node from scene",
			zap.String("nodeID", ref.ID.String()),
			zap.Error(err),
		)
		return
	}

	if err := c.tree.NotifyTreeRemoved(ctx, ref); err != nil {
		c.logger.Warn("failed to notify tree of node removal",
			zap.String("nodeID", ref.ID.String()),
			zap.Error(err),
		)
	}

	c.appendRecord(ref, true, "")
	c.publishCompleted(ctx, ref, removedEdges)
}

func (c *DeletionCoordinator) markInFlight(ref valueobjects.ElementRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[ref] {
		return false
	}
	c.inFlight[ref] = true
	return true
}

func (c *DeletionCoordinator) clearInFlight(ref valueobjects.ElementRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, ref)
}

// appendRecord adds a deletion record with a timestamp strictly after the
// previous one, even if the clock has not advanced between appends
func (c *DeletionCoordinator) appendRecord(ref valueobjects.ElementRef, success bool, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	at := time.Now()
	if !at.After(c.lastRecordAt) {
		at = c.lastRecordAt.Add(time.Nanosecond)
	}
	c.lastRecordAt = at

	c.records = append(c.records, DeletionRecord{
		Ref:       ref,
		Success:   success,
		Error:     reason,
		DeletedAt: at,
	})
}

func (c *DeletionCoordinator) publishStarted(ctx context.Context, ref valueobjects.ElementRef) {
	event := events.NewElementDeletionStarted(c.scene.ID().String(), ref, time.Now())
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish deletion started", zap.Error(err))
	}
}

func (c *DeletionCoordinator) publishCompleted(ctx context.Context, ref valueobjects.ElementRef, removedEdges int) {
	event := events.NewElementDeletionCompleted(c.scene.ID().String(), ref, removedEdges, time.Now())
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish deletion completed", zap.Error(err))
	}
}

func (c *DeletionCoordinator) publishFailed(ctx context.Context, ref valueobjects.ElementRef, reason string) {
	event := events.NewElementDeletionFailed(c.scene.ID().String(), ref, reason, time.Now())
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish deletion failed", zap.Error(err))
	}
}
