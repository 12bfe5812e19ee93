package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
)

// MoveNodeCommand updates a node's position and extent on the canvas
type MoveNodeCommand struct {
	SceneID string  `json:"scene_id" validate:"required"`
	NodeID  string  `json:"node_id" validate:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width" validate:"required,gt=0"`
	Height  float64 `json:"height" validate:"required,gt=0"`
}

// Validate validates the command
func (cmd MoveNodeCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.NodeID == "" {
		return errors.New("node ID is required")
	}
	if cmd.Width <= 0 || cmd.Height <= 0 {
		return errors.New("node bounds must have positive extent")
	}
	return nil
}

// RenameNodeCommand changes a node's display name
type RenameNodeCommand struct {
	SceneID string `json:"scene_id" validate:"required"`
	NodeID  string `json:"node_id" validate:"required"`
	Name    string `json:"name" validate:"required,min=1,max=100"`
}

// Validate validates the command
func (cmd RenameNodeCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.NodeID == "" {
		return errors.New("node ID is required")
	}
	if cmd.Name == "" {
		return errors.New("node name is required")
	}
	return nil
}

// UpdateNodeHandler handles node move and rename commands
type UpdateNodeHandler struct {
	editors *services.EditorManager
	logger  *zap.Logger
}

// NewUpdateNodeHandler creates a new handler instance
func NewUpdateNodeHandler(editors *services.EditorManager, logger *zap.Logger) *UpdateNodeHandler {
	return &UpdateNodeHandler{editors: editors, logger: logger}
}

// HandleMove executes the move node command
func (h *UpdateNodeHandler) HandleMove(ctx context.Context, cmd MoveNodeCommand) error {
	editor, nodeID, err := h.resolve(ctx, cmd.SceneID, cmd.NodeID)
	if err != nil {
		return err
	}

	bounds := valueobjects.Bounds{
		Origin: valueobjects.Position{X: cmd.X, Y: cmd.Y},
		Width:  cmd.Width,
		Height: cmd.Height,
	}

	return editor.MoveNode(ctx, nodeID, bounds)
}

// HandleRename executes the rename node command
func (h *UpdateNodeHandler) HandleRename(ctx context.Context, cmd RenameNodeCommand) error {
	editor, nodeID, err := h.resolve(ctx, cmd.SceneID, cmd.NodeID)
	if err != nil {
		return err
	}

	name, err := valueobjects.NewLabel(cmd.Name)
	if err != nil {
		return err
	}

	return editor.RenameNode(ctx, nodeID, name)
}

func (h *UpdateNodeHandler) resolve(ctx context.Context, sceneID, nodeID string) (*services.Editor, valueobjects.ElementID, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(sceneID))
	if err != nil {
		return nil, valueobjects.ElementID{}, err
	}
	id, err := valueobjects.NewElementIDFromString(nodeID)
	if err != nil {
		return nil, valueobjects.ElementID{}, err
	}
	return editor, id, nil
}
