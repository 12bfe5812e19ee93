package handlers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"archboard-backend/application/sagas"
	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
	pkgerrors "archboard-backend/pkg/errors"
)

// BulkDeleteSelectionCommand deletes every element in the current selection
type BulkDeleteSelectionCommand struct {
	SceneID string `json:"scene_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

// Validate validates the command
func (cmd BulkDeleteSelectionCommand) Validate() error {
	if cmd.SceneID == "" {
		return errors.New("scene ID is required")
	}
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// BulkDeleteSelectionResult reports what the bulk delete removed
type BulkDeleteSelectionResult struct {
	Requested int                       `json:"requested"`
	Deleted   int                       `json:"deleted"`
	Failed    []valueobjects.ElementRef `json:"failed,omitempty"`
}

// BulkDeleteSelectionHandler deletes the selected elements one cascade at a
// time, edges before nodes so no node deletion trips over an edge that is
// itself queued for deletion. Each element runs as a saga step; deletion
// cascades are irreversible, so steps carry no compensation and a failure
// partway simply stops the run with a partial result.
type BulkDeleteSelectionHandler struct {
	editors *services.EditorManager
	logger  *zap.Logger
}

// NewBulkDeleteSelectionHandler creates a new handler instance
func NewBulkDeleteSelectionHandler(editors *services.EditorManager, logger *zap.Logger) *BulkDeleteSelectionHandler {
	return &BulkDeleteSelectionHandler{editors: editors, logger: logger}
}

// Handle executes the bulk delete
func (h *BulkDeleteSelectionHandler) Handle(ctx context.Context, cmd BulkDeleteSelectionCommand) (*BulkDeleteSelectionResult, error) {
	editor, err := h.editors.Get(ctx, aggregates.SceneID(cmd.SceneID))
	if err != nil {
		return nil, err
	}

	selected := editor.Selection()
	if len(selected) == 0 {
		return &BulkDeleteSelectionResult{}, nil
	}

	// Edges first. A selected edge touching a selected node would already
	// be gone by the time the node cascade runs, and the cascade treats a
	// missing edge as a failure.
	ordered := make([]valueobjects.ElementRef, 0, len(selected))
	for _, ref := range selected {
		if !ref.IsNode() {
			ordered = append(ordered, ref)
		}
	}
	for _, ref := range selected {
		if ref.IsNode() {
			ordered = append(ordered, ref)
		}
	}

	result := &BulkDeleteSelectionResult{Requested: len(ordered)}

	saga := sagas.NewSaga("bulk-delete-selection", h.logger)
	for _, ref := range ordered {
		ref := ref
		saga.AddStep(sagas.Step{
			Name: fmt.Sprintf("delete-%s", ref.String()),
			Execute: func(ctx context.Context, _ interface{}) (interface{}, error) {
				if err := editor.DeleteElement(ctx, ref); err != nil {
					// An element already gone counts as deleted, not failed
					if errors.Is(err, pkgerrors.ErrElementNotFound) {
						result.Deleted++
						return nil, nil
					}
					result.Failed = append(result.Failed, ref)
					return nil, err
				}
				result.Deleted++
				return nil, nil
			},
		})
	}

	if _, err := saga.Execute(ctx, nil); err != nil {
		h.logger.Warn("bulk delete stopped early",
			zap.String("sceneID", cmd.SceneID),
			zap.Int("requested", result.Requested),
			zap.Int("deleted", result.Deleted),
			zap.Error(err),
		)
		return result, err
	}

	h.logger.Info("selection deleted",
		zap.String("sceneID", cmd.SceneID),
		zap.String("userID", cmd.UserID),
		zap.Int("deleted", result.Deleted),
	)

	return result, nil
}
