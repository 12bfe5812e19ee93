package queries

import (
	"context"
	"errors"
	"time"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
)

// GetPropertiesQuery fetches an element's properties in definition order
type GetPropertiesQuery struct {
	SceneID   string `json:"scene_id" validate:"required"`
	ElementID string `json:"element_id" validate:"required"`
}

// Validate validates the query
func (q GetPropertiesQuery) Validate() error {
	if q.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if q.ElementID == "" {
		return errors.New("element ID is required")
	}
	return nil
}

// PropertyView is the read model for one property
type PropertyView struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	Type      string      `json:"type"`
	Order     int64       `json:"order"`
	Category  string      `json:"category,omitempty"`
	Required  bool        `json:"required"`
	ReadOnly  bool        `json:"read_only"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// GetPropertiesHandler handles the GetPropertiesQuery
type GetPropertiesHandler struct {
	editors *services.EditorManager
}

// NewGetPropertiesHandler creates a new handler instance
func NewGetPropertiesHandler(editors *services.EditorManager) *GetPropertiesHandler {
	return &GetPropertiesHandler{editors: editors}
}

// Handle executes the get properties query
func (h *GetPropertiesHandler) Handle(ctx context.Context, query GetPropertiesQuery) ([]PropertyView, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(query.SceneID))
	if err != nil {
		return nil, err
	}

	elementID, err := valueobjects.NewElementIDFromString(query.ElementID)
	if err != nil {
		return nil, err
	}

	properties := editor.ListProperties(elementID)
	views := make([]PropertyView, 0, len(properties))
	for _, property := range properties {
		views = append(views, PropertyView{
			Key:       property.Key,
			Value:     property.Value,
			Type:      string(property.Type),
			Order:     property.Order,
			Category:  property.Meta.Category,
			Required:  property.Meta.Required,
			ReadOnly:  property.Meta.ReadOnly,
			UpdatedAt: property.UpdatedAt,
		})
	}

	return views, nil
}
