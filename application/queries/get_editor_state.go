package queries

import (
	"context"
	"errors"
	"time"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
)

// GetEditorStateQuery fetches the interaction state of a scene's editor:
// the selection, available actions, connection session and deletion history
type GetEditorStateQuery struct {
	SceneID string `json:"scene_id" validate:"required"`
}

// Validate validates the query
func (q GetEditorStateQuery) Validate() error {
	if q.SceneID == "" {
		return errors.New("scene ID is required")
	}
	return nil
}

// SelectedElementView is one selected element in the state view
type SelectedElementView struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ConnectionSessionView describes the connection gesture in progress
type ConnectionSessionView struct {
	State     string     `json:"state"`
	SourceID  string     `json:"source_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// DeletionRecordView is one entry of the deletion history
type DeletionRecordView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	DeletedAt time.Time `json:"deleted_at"`
}

// EditorStateView is the read model for a scene's editing state
type EditorStateView struct {
	SceneID        string                `json:"scene_id"`
	Selection      []SelectedElementView `json:"selection"`
	Classification string                `json:"classification"`
	ShowEdit       bool                  `json:"show_edit"`
	ShowDelete     bool                  `json:"show_delete"`
	CanEdit        bool                  `json:"can_edit"`
	CanDelete      bool                  `json:"can_delete"`
	CanConnect     bool                  `json:"can_connect"`
	Session        ConnectionSessionView `json:"session"`
	Deletions      []DeletionRecordView  `json:"deletions"`
}

// GetEditorStateHandler handles the GetEditorStateQuery
type GetEditorStateHandler struct {
	editors *services.EditorManager
}

// NewGetEditorStateHandler creates a new handler instance
func NewGetEditorStateHandler(editors *services.EditorManager) *GetEditorStateHandler {
	return &GetEditorStateHandler{editors: editors}
}

// Handle executes the get editor state query
func (h *GetEditorStateHandler) Handle(ctx context.Context, query GetEditorStateQuery) (*EditorStateView, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(query.SceneID))
	if err != nil {
		return nil, err
	}

	view := &EditorStateView{
		SceneID:        query.SceneID,
		Classification: string(editor.ClassifySelection()),
	}

	for _, ref := range editor.Selection() {
		view.Selection = append(view.Selection, selectedElementView(ref))
	}

	actions := editor.AvailableActions()
	view.ShowEdit = actions.ShowEdit
	view.ShowDelete = actions.ShowDelete
	view.CanEdit = actions.CanEdit
	view.CanDelete = actions.CanDelete
	view.CanConnect = actions.CanConnect

	session := editor.ConnectionSnapshot()
	view.Session = ConnectionSessionView{State: string(session.State)}
	if !session.SourceID.IsZero() {
		view.Session.SourceID = session.SourceID.String()
	}
	if !session.StartedAt.IsZero() {
		startedAt := session.StartedAt
		view.Session.StartedAt = &startedAt
	}

	for _, record := range editor.DeletionHistory() {
		view.Deletions = append(view.Deletions, DeletionRecordView{
			ID:        record.Ref.ID.String(),
			Type:      string(record.Ref.Type),
			Success:   record.Success,
			Error:     record.Error,
			DeletedAt: record.DeletedAt,
		})
	}

	return view, nil
}

func selectedElementView(ref valueobjects.ElementRef) SelectedElementView {
	return SelectedElementView{
		ID:   ref.ID.String(),
		Type: string(ref.Type),
	}
}
