package queries

import (
	"context"
	"errors"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
)

// GetSceneQuery fetches a scene with all its elements
type GetSceneQuery struct {
	SceneID string `json:"scene_id" validate:"required"`
}

// Validate validates the query
func (q GetSceneQuery) Validate() error {
	if q.SceneID == "" {
		return errors.New("scene ID is required")
	}
	return nil
}

// SceneView is the read model for a full scene
type SceneView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Version     int        `json:"version"`
	Nodes       []NodeView `json:"nodes"`
	Edges       []EdgeView `json:"edges"`
}

// NodeView is the read model for a node
type NodeView struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Collapsed   bool    `json:"collapsed"`
	Editing     bool    `json:"editing"`
}

// EdgeView is the read model for an edge
type EdgeView struct {
	ID         string `json:"id"`
	SourceID   string `json:"source_id"`
	TargetID   string `json:"target_id"`
	Label      string `json:"label,omitempty"`
	Technology string `json:"technology,omitempty"`
}

// GetSceneHandler handles the GetSceneQuery
type GetSceneHandler struct {
	editors *services.EditorManager
}

// NewGetSceneHandler creates a new handler instance
func NewGetSceneHandler(editors *services.EditorManager) *GetSceneHandler {
	return &GetSceneHandler{editors: editors}
}

// Handle executes the get scene query
func (h *GetSceneHandler) Handle(ctx context.Context, query GetSceneQuery) (*SceneView, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(query.SceneID))
	if err != nil {
		return nil, err
	}

	return BuildSceneView(editor), nil
}

// BuildSceneView projects an editor's scene into its read model
func BuildSceneView(editor *services.Editor) *SceneView {
	scene := editor.SceneSnapshot()

	view := &SceneView{
		ID:          scene.ID,
		UserID:      scene.UserID,
		Name:        scene.Name,
		Description: scene.Description,
		Version:     scene.Version,
	}

	for _, node := range editor.Nodes() {
		bounds := node.Bounds()
		state := editor.NodeState(node.ID())
		view.Nodes = append(view.Nodes, NodeView{
			ID:          node.ID().String(),
			Kind:        string(node.Kind()),
			Name:        node.Name().String(),
			Description: node.Description(),
			X:           bounds.Origin.X,
			Y:           bounds.Origin.Y,
			Width:       bounds.Width,
			Height:      bounds.Height,
			Collapsed:   state.Collapsed,
			Editing:     state.Editing,
		})
	}

	for _, edge := range editor.Edges() {
		view.Edges = append(view.Edges, EdgeView{
			ID:         edge.ID().String(),
			SourceID:   edge.SourceID().String(),
			TargetID:   edge.TargetID().String(),
			Label:      edge.Label(),
			Technology: edge.Technology(),
		})
	}

	return view
}
