package queries

import (
	"context"
	"errors"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/infrastructure/persistence/schema"
)

// ExportSceneQuery serializes a scene into a versioned snapshot document
// that can be re-imported later, including by newer builds
type ExportSceneQuery struct {
	SceneID string `json:"scene_id" validate:"required"`
}

// Validate validates the query
func (q ExportSceneQuery) Validate() error {
	if q.SceneID == "" {
		return errors.New("scene ID is required")
	}
	return nil
}

// ExportSceneHandler handles the ExportSceneQuery
type ExportSceneHandler struct {
	editors *services.EditorManager
}

// NewExportSceneHandler creates a new handler instance
func NewExportSceneHandler(editors *services.EditorManager) *ExportSceneHandler {
	return &ExportSceneHandler{editors: editors}
}

// Handle executes the export, producing the snapshot document bytes
func (h *ExportSceneHandler) Handle(ctx context.Context, query ExportSceneQuery) ([]byte, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(query.SceneID))
	if err != nil {
		return nil, err
	}

	view := BuildSceneView(editor)

	nodes := make([]interface{}, 0, len(view.Nodes))
	for _, node := range view.Nodes {
		nodes = append(nodes, map[string]interface{}{
			"id":          node.ID,
			"kind":        node.Kind,
			"name":        node.Name,
			"description": node.Description,
			"bounds": map[string]interface{}{
				"x":      node.X,
				"y":      node.Y,
				"width":  node.Width,
				"height": node.Height,
			},
		})
	}

	edges := make([]interface{}, 0, len(view.Edges))
	for _, edge := range view.Edges {
		edges = append(edges, map[string]interface{}{
			"id":        edge.ID,
			"source_id": edge.SourceID,
			"target_id": edge.TargetID,
			"label":     edge.Label,
		})
	}

	return schema.Marshal(map[string]interface{}{
		"name":        view.Name,
		"description": view.Description,
		"nodes":       nodes,
		"edges":       edges,
	})
}
