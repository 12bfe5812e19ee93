package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
)

// CreateSceneCommand creates a new empty diagram scene
type CreateSceneCommand struct {
	UserID      string `json:"user_id" validate:"required"`
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// Validate validates the command
func (cmd CreateSceneCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.Name == "" {
		return errors.New("scene name is required")
	}
	return nil
}

// CreateSceneHandler handles the CreateSceneCommand
type CreateSceneHandler struct {
	editors *services.EditorManager
	logger  *zap.Logger
}

// NewCreateSceneHandler creates a new handler instance
func NewCreateSceneHandler(editors *services.EditorManager, logger *zap.Logger) *CreateSceneHandler {
	return &CreateSceneHandler{editors: editors, logger: logger}
}

// Handle executes the create scene command
func (h *CreateSceneHandler) Handle(ctx context.Context, cmd CreateSceneCommand) (aggregates.SceneID, error) {
	editor, err := h.editors.CreateScene(ctx, cmd.UserID, cmd.Name)
	if err != nil {
		return "", err
	}

	h.logger.Info("scene created",
		zap.String("sceneID", editor.SceneID().String()),
		zap.String("userID", cmd.UserID),
	)

	return editor.SceneID(), nil
}
