package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
)

// ConnectElementsCommand creates a relationship edge between two nodes.
// It drives a full connection gesture so the same session rules apply as
// when the user drags on the canvas.
type ConnectElementsCommand struct {
	SceneID  string `json:"scene_id" validate:"required"`
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
}

// Validate validates the command
func (cmd ConnectElementsCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.SourceID == "" {
		return errors.New("source node ID is required")
	}
	if cmd.TargetID == "" {
		return errors.New("target node ID is required")
	}
	return nil
}

// ConnectElementsHandler handles the ConnectElementsCommand
type ConnectElementsHandler struct {
	editors *services.EditorManager
	logger  *zap.Logger
}

// NewConnectElementsHandler creates a new handler instance
func NewConnectElementsHandler(editors *services.EditorManager, logger *zap.Logger) *ConnectElementsHandler {
	return &ConnectElementsHandler{editors: editors, logger: logger}
}

// Handle executes the connect command as a begin/complete gesture
func (h *ConnectElementsHandler) Handle(ctx context.Context, cmd ConnectElementsCommand) (services.ConnectionResult, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(cmd.SceneID))
	if err != nil {
		return services.ConnectionResult{}, err
	}

	sourceID, err := valueobjects.NewElementIDFromString(cmd.SourceID)
	if err != nil {
		return services.ConnectionResult{}, err
	}
	targetID, err := valueobjects.NewElementIDFromString(cmd.TargetID)
	if err != nil {
		return services.ConnectionResult{}, err
	}

	anchor, err := h.nodeCenter(editor, sourceID)
	if err != nil {
		return services.ConnectionResult{}, err
	}

	if err := editor.BeginConnection(ctx, sourceID, anchor); err != nil {
		return services.ConnectionResult{}, err
	}

	result, err := editor.CompleteConnection(ctx, targetID)
	if err != nil {
		return result, err
	}

	h.logger.Debug("connection gesture finished",
		zap.String("sceneID", cmd.SceneID),
		zap.String("sourceID", cmd.SourceID),
		zap.String("targetID", cmd.TargetID),
		zap.String("outcome", string(result.Outcome)),
	)

	return result, nil
}

func (h *ConnectElementsHandler) nodeCenter(editor *services.Editor, nodeID valueobjects.ElementID) (valueobjects.Position, error) {
	for _, node := range editor.Nodes() {
		if node.ID().Equals(nodeID) {
			return node.Bounds().Center(), nil
		}
	}
	return valueobjects.Position{}, errors.New("source node not found in scene")
}
