package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
)

// DeleteElementCommand removes an element from a scene with full cascade
type DeleteElementCommand struct {
	SceneID     string `json:"scene_id" validate:"required"`
	ElementID   string `json:"element_id" validate:"required"`
	ElementType string `json:"element_type" validate:"required,oneof=node edge"`
}

// Validate validates the command
func (cmd DeleteElementCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.ElementID == "" {
		return errors.New("element ID is required")
	}
	if _, err := valueobjects.ParseElementType(cmd.ElementType); err != nil {
		return err
	}
	return nil
}

// DeleteElementHandler handles the DeleteElementCommand
type DeleteElementHandler struct {
	editors *services.EditorManager
	logger  *zap.Logger
}

// NewDeleteElementHandler creates a new handler instance
func NewDeleteElementHandler(editors *services.EditorManager, logger *zap.Logger) *DeleteElementHandler {
	return &DeleteElementHandler{editors: editors, logger: logger}
}

// Handle executes the delete element command
func (h *DeleteElementHandler) Handle(ctx context.Context, cmd DeleteElementCommand) error {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(cmd.SceneID))
	if err != nil {
		return err
	}

	elementID, err := valueobjects.NewElementIDFromString(cmd.ElementID)
	if err != nil {
		return err
	}
	elementType, err := valueobjects.ParseElementType(cmd.ElementType)
	if err != nil {
		return err
	}

	ref := valueobjects.NewElementRef(elementID, elementType)
	if err := editor.DeleteElement(ctx, ref); err != nil {
		return err
	}

	h.logger.Info("element deleted",
		zap.String("sceneID", cmd.SceneID),
		zap.String("element", ref.String()),
	)

	return nil
}
