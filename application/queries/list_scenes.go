package queries

import (
	"context"
	"errors"

	"archboard-backend/application/ports"
)

// ListScenesQuery fetches the scenes belonging to a user
type ListScenesQuery struct {
	UserID string `json:"user_id" validate:"required"`
}

// Validate validates the query
func (q ListScenesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// SceneSummary is the read model for a scene listing entry
type SceneSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	UpdatedAt string `json:"updated_at"`
}

// ListScenesHandler handles the ListScenesQuery
type ListScenesHandler struct {
	repo ports.SceneRepository
}

// NewListScenesHandler creates a new handler instance
func NewListScenesHandler(repo ports.SceneRepository) *ListScenesHandler {
	return &ListScenesHandler{repo: repo}
}

// Handle executes the list scenes query
func (h *ListScenesHandler) Handle(ctx context.Context, query ListScenesQuery) ([]SceneSummary, error) {
	scenes, err := h.repo.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	summaries := make([]SceneSummary, 0, len(scenes))
	for _, scene := range scenes {
		summaries = append(summaries, SceneSummary{
			ID:        string(scene.ID()),
			Name:      scene.Name(),
			NodeCount: scene.NodeCount(),
			EdgeCount: scene.EdgeCount(),
			UpdatedAt: scene.UpdatedAt().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return summaries, nil
}
