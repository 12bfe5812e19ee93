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

// DefinePropertyCommand adds a new typed property to an element
type DefinePropertyCommand struct {
	SceneID   string      `json:"scene_id" validate:"required"`
	ElementID string      `json:"element_id" validate:"required"`
	Key       string      `json:"key" validate:"required,max=100"`
	Value     interface{} `json:"value"`
	Category  string      `json:"category"`
	Required  bool        `json:"required"`
	ReadOnly  bool        `json:"read_only"`
}

// Validate validates the command
func (cmd DefinePropertyCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.ElementID == "" {
		return errors.New("element ID is required")
	}
	if cmd.Key == "" {
		return errors.New("property key is required")
	}
	return nil
}

// UpdatePropertyCommand changes an existing property's value
type UpdatePropertyCommand struct {
	SceneID   string      `json:"scene_id" validate:"required"`
	ElementID string      `json:"element_id" validate:"required"`
	Key       string      `json:"key" validate:"required"`
	Value     interface{} `json:"value"`
}

// Validate validates the command
func (cmd UpdatePropertyCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.ElementID == "" {
		return errors.New("element ID is required")
	}
	if cmd.Key == "" {
		return errors.New("property key is required")
	}
	return nil
}

// ReorderPropertyCommand moves a property to a new display position
type ReorderPropertyCommand struct {
	SceneID   string `json:"scene_id" validate:"required"`
	ElementID string `json:"element_id" validate:"required"`
	Key       string `json:"key" validate:"required"`
	NewOrder  int64  `json:"new_order" validate:"gte=0"`
}

// Validate validates the command
func (cmd ReorderPropertyCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.ElementID == "" {
		return errors.New("element ID is required")
	}
	if cmd.Key == "" {
		return errors.New("property key is required")
	}
	if cmd.NewOrder < 0 {
		return errors.New("new order must not be negative")
	}
	return nil
}

// RemovePropertyCommand deletes a property from an element
type RemovePropertyCommand struct {
	SceneID   string `json:"scene_id" validate:"required"`
	ElementID string `json:"element_id" validate:"required"`
	Key       string `json:"key" validate:"required"`
}

// Validate validates the command
func (cmd RemovePropertyCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.ElementID == "" {
		return errors.New("element ID is required")
	}
	if cmd.Key == "" {
		return errors.New("property key is required")
	}
	return nil
}

// PropertyHandler handles the property commands
type PropertyHandler struct {
	editors *services.EditorManager
	logger  *zap.Logger
}

// NewPropertyHandler creates a new handler instance
func NewPropertyHandler(editors *services.EditorManager, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{editors: editors, logger: logger}
}

// HandleDefine executes the define property command
func (h *PropertyHandler) HandleDefine(ctx context.Context, cmd DefinePropertyCommand) error {
	editor, elementID, err := h.resolve(ctx, cmd.SceneID, cmd.ElementID)
	if err != nil {
		return err
	}

	meta := entities.PropertyMeta{
		Category: cmd.Category,
		Required: cmd.Required,
		ReadOnly: cmd.ReadOnly,
	}

	return editor.DefineProperty(ctx, elementID, cmd.Key, cmd.Value, meta)
}

// HandleUpdate executes the update property command
func (h *PropertyHandler) HandleUpdate(ctx context.Context, cmd UpdatePropertyCommand) error {
	editor, elementID, err := h.resolve(ctx, cmd.SceneID, cmd.ElementID)
	if err != nil {
		return err
	}
	return editor.UpdateProperty(ctx, elementID, cmd.Key, cmd.Value)
}

// HandleReorder executes the reorder property command
func (h *PropertyHandler) HandleReorder(ctx context.Context, cmd ReorderPropertyCommand) error {
	editor, elementID, err := h.resolve(ctx, cmd.SceneID, cmd.ElementID)
	if err != nil {
		return err
	}
	return editor.ReorderProperty(ctx, elementID, cmd.Key, cmd.NewOrder)
}

// HandleRemove executes the remove property command
func (h *PropertyHandler) HandleRemove(ctx context.Context, cmd RemovePropertyCommand) error {
	editor, elementID, err := h.resolve(ctx, cmd.SceneID, cmd.ElementID)
	if err != nil {
		return err
	}
	return editor.RemoveProperty(ctx, elementID, cmd.Key)
}

func (h *PropertyHandler) resolve(ctx context.Context, sceneID, elementID string) (*services.Editor, valueobjects.ElementID, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(sceneID))
	if err != nil {
		return nil, valueobjects.ElementID{}, err
	}
	id, err := valueobjects.NewElementIDFromString(elementID)
	if err != nil {
		return nil, valueobjects.ElementID{}, err
	}
	return editor, id, nil
}
