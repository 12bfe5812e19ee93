package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
)

// AddNodeCommand places a new element on a scene's canvas
type AddNodeCommand struct {
	SceneID     string  `json:"scene_id" validate:"required"`
	Kind        string  `json:"kind" validate:"required,oneof=person system container component"`
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width" validate:"required,gt=0"`
	Height      float64 `json:"height" validate:"required,gt=0"`
}

// Validate validates the command
func (cmd AddNodeCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.Name == "" {
		return errors.New("node name is required")
	}
	if _, err := entities.ParseNodeKind(cmd.Kind); err != nil {
		return err
	}
	if cmd.Width <= 0 || cmd.Height <= 0 {
		return errors.New("node bounds must have positive extent")
	}
	return nil
}

// AddNodeHandler handles the AddNodeCommand
type AddNodeHandler struct {
	editors *services.EditorManager
	logger  *zap.Logger
}

// NewAddNodeHandler creates a new handler instance
func NewAddNodeHandler(editors *services.EditorManager, logger *zap.Logger) *AddNodeHandler {
	return &AddNodeHandler{editors: editors, logger: logger}
}

// Handle executes the add node command
func (h *AddNodeHandler) Handle(ctx context.Context, cmd AddNodeCommand) (*entities.Node, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(cmd.SceneID))
	if err != nil {
		return nil, err
	}

	kind, err := entities.ParseNodeKind(cmd.Kind)
	if err != nil {
		return nil, err
	}

	name, err := valueobjects.NewLabel(cmd.Name)
	if err != nil {
		return nil, err
	}

	bounds := valueobjects.Bounds{
		Origin: valueobjects.Position{X: cmd.X, Y: cmd.Y},
		Width:  cmd.Width,
		Height: cmd.Height,
	}

	node, err := editor.AddNode(ctx, kind, name, bounds)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("node added",
		zap.String("sceneID", cmd.SceneID),
		zap.String("nodeID", node.ID().String()),
		zap.String("kind", cmd.Kind),
	)

	return node, nil
}
