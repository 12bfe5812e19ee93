package realtime

import (
	"context"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/valueobjects"
)

// Canvas message types understood by the browser client
const (
	msgIndicatorShow = "canvas.indicator.show"
	msgIndicatorHide = "canvas.indicator.hide"
	msgPreviewShow   = "canvas.preview_edge.show"
	msgPreviewMove   = "canvas.preview_edge.move"
	msgPreviewHide   = "canvas.preview_edge.hide"
	msgTreeRemoved   = "tree.element_removed"
)

// PushRenderer renders selection indicators and the connection preview edge
// by broadcasting canvas messages to connected clients. Clients scope the
// update to the scene they are viewing using the element reference.
type PushRenderer struct {
	broadcaster *Broadcaster
	logger      *zap.Logger
}

var _ ports.Renderer = (*PushRenderer)(nil)

// NewPushRenderer creates a renderer that pushes over websockets
func NewPushRenderer(broadcaster *Broadcaster, logger *zap.Logger) *PushRenderer {
	return &PushRenderer{broadcaster: broadcaster, logger: logger}
}

// RequestIndicator shows a selection indicator for an element
func (r *PushRenderer) RequestIndicator(ctx context.Context, ref valueobjects.ElementRef) error {
	return r.broadcaster.Broadcast(ctx, msgIndicatorShow, map[string]interface{}{
		"element_id":   ref.ID.String(),
		"element_type": string(ref.Type),
	})
}

// RemoveIndicator hides the selection indicator for an element
func (r *PushRenderer) RemoveIndicator(ctx context.Context, ref valueobjects.ElementRef) error {
	return r.broadcaster.Broadcast(ctx, msgIndicatorHide, map[string]interface{}{
		"element_id":   ref.ID.String(),
		"element_type": string(ref.Type),
	})
}

// RequestPreviewEdge draws a preview edge anchored at the source node
func (r *PushRenderer) RequestPreviewEdge(ctx context.Context, sourceID valueobjects.ElementID, from valueobjects.Position) error {
	return r.broadcaster.Broadcast(ctx, msgPreviewShow, map[string]interface{}{
		"source_id": sourceID.String(),
		"from_x":    from.X,
		"from_y":    from.Y,
	})
}

// UpdatePreviewEdge moves the free end of the preview edge
func (r *PushRenderer) UpdatePreviewEdge(ctx context.Context, to valueobjects.Position) error {
	return r.broadcaster.Broadcast(ctx, msgPreviewMove, map[string]interface{}{
		"to_x": to.X,
		"to_y": to.Y,
	})
}

// RemovePreviewEdge removes the preview edge
func (r *PushRenderer) RemovePreviewEdge(ctx context.Context) error {
	return r.broadcaster.Broadcast(ctx, msgPreviewHide, map[string]interface{}{})
}

// PushTreeNotifier tells connected clients to drop an element from the
// navigation tree after a deletion cascade removes it from the scene.
type PushTreeNotifier struct {
	broadcaster *Broadcaster
	logger      *zap.Logger
}

var _ ports.TreeNotifier = (*PushTreeNotifier)(nil)

// NewPushTreeNotifier creates a websocket-backed tree notifier
func NewPushTreeNotifier(broadcaster *Broadcaster, logger *zap.Logger) *PushTreeNotifier {
	return &PushTreeNotifier{broadcaster: broadcaster, logger: logger}
}

// NotifyTreeRemoved tells the tree view an element left the scene
func (n *PushTreeNotifier) NotifyTreeRemoved(ctx context.Context, ref valueobjects.ElementRef) error {
	return n.broadcaster.Broadcast(ctx, msgTreeRemoved, map[string]interface{}{
		"element_id":   ref.ID.String(),
		"element_type": string(ref.Type),
	})
}
