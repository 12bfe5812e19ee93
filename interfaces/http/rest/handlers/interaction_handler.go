package handlers

import (
	"encoding/json"
	"net/http"

	cmdhandlers "archboard-backend/application/commands/handlers"
	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/pkg/auth"
	"archboard-backend/pkg/common"
	"archboard-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// InteractionHandler handles selection, the interactive connection gesture
// and per-node interaction state. These operations mutate transient editor
// state rather than persisted scene content, so they talk to the editor
// directly instead of going through the command bus.
type InteractionHandler struct {
	editors    *services.EditorManager
	bulkDelete *cmdhandlers.BulkDeleteSelectionHandler
	logger     *zap.Logger
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(
	editors *services.EditorManager,
	bulkDelete *cmdhandlers.BulkDeleteSelectionHandler,
	logger *zap.Logger,
) *InteractionHandler {
	return &InteractionHandler{
		editors:    editors,
		bulkDelete: bulkDelete,
		logger:     logger,
	}
}

// SelectionRequest identifies the element a selection operation targets
type SelectionRequest struct {
	ElementID   string `json:"element_id" validate:"required"`
	ElementType string `json:"element_type" validate:"required,oneof=node edge"`
}

// SelectionStateResponse reports the selection after an operation
type SelectionStateResponse struct {
	Selection      []SelectionEntry   `json:"selection"`
	Classification string             `json:"classification"`
	Actions        services.ActionSet `json:"actions"`
}

// SelectionEntry is one selected element
type SelectionEntry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Select handles POST /scenes/{sceneID}/selection/select
func (h *InteractionHandler) Select(w http.ResponseWriter, r *http.Request) {
	h.selectionOp(w, r, func(editor *services.Editor, ref valueobjects.ElementRef) {
		editor.SelectElement(r.Context(), ref)
	})
}

// Deselect handles POST /scenes/{sceneID}/selection/deselect
func (h *InteractionHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	h.selectionOp(w, r, func(editor *services.Editor, ref valueobjects.ElementRef) {
		editor.DeselectElement(r.Context(), ref)
	})
}

// Toggle handles POST /scenes/{sceneID}/selection/toggle
func (h *InteractionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.selectionOp(w, r, func(editor *services.Editor, ref valueobjects.ElementRef) {
		editor.ToggleElement(r.Context(), ref)
	})
}

// Replace handles POST /scenes/{sceneID}/selection/replace
func (h *InteractionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.selectionOp(w, r, func(editor *services.Editor, ref valueobjects.ElementRef) {
		editor.ReplaceSelection(r.Context(), ref)
	})
}

// Clear handles POST /scenes/{sceneID}/selection/clear
func (h *InteractionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editorFor(w, r)
	if !ok {
		return
	}

	editor.ClearSelection(r.Context())
	h.respondJSON(w, r, http.StatusOK, h.selectionState(editor))
}

// BulkDeleteSelection handles POST /scenes/{sceneID}/selection/delete.
// Every selected element is deleted; edges go first so that node cascades
// do not collide with selected edges.
func (h *InteractionHandler) BulkDeleteSelection(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := cmdhandlers.BulkDeleteSelectionCommand{
		SceneID: sceneID,
		UserID:  userCtx.UserID,
	}

	result, err := h.bulkDelete.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Bulk delete failed",
			zap.String("sceneID", sceneID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		if result != nil {
			h.respondJSON(w, r, http.StatusMultiStatus, result)
			return
		}
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete selection")
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// BeginConnectionRequest starts an edge-drawing gesture from a source node
type BeginConnectionRequest struct {
	SourceID string  `json:"source_id" validate:"required"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// PointerRequest carries the pointer position while a gesture is pending
type PointerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CompleteConnectionRequest drops the gesture on a target node
type CompleteConnectionRequest struct {
	TargetID string `json:"target_id" validate:"required"`
}

// BeginConnection handles POST /scenes/{sceneID}/connection/begin
func (h *InteractionHandler) BeginConnection(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editorFor(w, r)
	if !ok {
		return
	}

	var req BeginConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	sourceID, err := valueobjects.NewElementIDFromString(req.SourceID)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid source ID")
		return
	}

	if err := editor.BeginConnection(r.Context(), sourceID, valueobjects.Position{X: req.X, Y: req.Y}); err != nil {
		h.respondError(w, r, http.StatusConflict, err.Error())
		return
	}

	h.respondJSON(w, r, http.StatusOK, editor.ConnectionSnapshot())
}

// UpdatePointer handles PUT /scenes/{sceneID}/connection/pointer
func (h *InteractionHandler) UpdatePointer(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editorFor(w, r)
	if !ok {
		return
	}

	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := editor.UpdateConnectionPointer(r.Context(), valueobjects.Position{X: req.X, Y: req.Y}); err != nil {
		h.respondError(w, r, http.StatusConflict, err.Error())
		return
	}

	h.respondJSON(w, r, http.StatusOK, editor.ConnectionSnapshot())
}

// CompleteConnection handles POST /scenes/{sceneID}/connection/complete
func (h *InteractionHandler) CompleteConnection(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editorFor(w, r)
	if !ok {
		return
	}

	var req CompleteConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	targetID, err := valueobjects.NewElementIDFromString(req.TargetID)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid target ID")
		return
	}

	result, err := editor.CompleteConnection(r.Context(), targetID)
	if err != nil {
		h.respondError(w, r, http.StatusConflict, err.Error())
		return
	}

	response := ConnectResponse{Outcome: string(result.Outcome)}
	status := http.StatusOK
	if result.Outcome == services.OutcomeCompleted && result.Edge != nil {
		response.EdgeID = result.Edge.ID().String()
		status = http.StatusCreated
	}

	h.respondJSON(w, r, status, response)
}

// CancelConnection handles POST /scenes/{sceneID}/connection/cancel
func (h *InteractionHandler) CancelConnection(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editorFor(w, r)
	if !ok {
		return
	}

	editor.CancelConnection(r.Context())
	h.respondJSON(w, r, http.StatusOK, editor.ConnectionSnapshot())
}

// NodeStateRequest represents the request body for node state updates
type NodeStateRequest struct {
	Collapsed      *bool `json:"collapsed,omitempty"`
	ActionsVisible *bool `json:"actions_visible,omitempty"`
}

// UpdateNodeState handles PATCH /scenes/{sceneID}/nodes/{nodeID}/state
func (h *InteractionHandler) UpdateNodeState(w http.ResponseWriter, r *http.Request) {
	editor, nodeID, ok := h.nodeFor(w, r)
	if !ok {
		return
	}

	var req NodeStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Collapsed != nil {
		editor.SetCollapsed(r.Context(), nodeID, *req.Collapsed)
	}
	if req.ActionsVisible != nil {
		editor.SetActionsVisible(r.Context(), nodeID, *req.ActionsVisible)
	}

	h.respondJSON(w, r, http.StatusOK, editor.NodeState(nodeID))
}

// StartEditing handles POST /scenes/{sceneID}/nodes/{nodeID}/editing.
// Any node previously in editing mode leaves it.
func (h *InteractionHandler) StartEditing(w http.ResponseWriter, r *http.Request) {
	editor, nodeID, ok := h.nodeFor(w, r)
	if !ok {
		return
	}

	editor.BeginEditing(r.Context(), nodeID)
	h.respondJSON(w, r, http.StatusOK, editor.NodeState(nodeID))
}

// StopEditing handles DELETE /scenes/{sceneID}/nodes/{nodeID}/editing
func (h *InteractionHandler) StopEditing(w http.ResponseWriter, r *http.Request) {
	editor, nodeID, ok := h.nodeFor(w, r)
	if !ok {
		return
	}

	editor.EndEditing(r.Context(), nodeID)
	h.respondJSON(w, r, http.StatusOK, editor.NodeState(nodeID))
}

// GetNodeState handles GET /scenes/{sceneID}/nodes/{nodeID}/state
func (h *InteractionHandler) GetNodeState(w http.ResponseWriter, r *http.Request) {
	editor, nodeID, ok := h.nodeFor(w, r)
	if !ok {
		return
	}

	h.respondJSON(w, r, http.StatusOK, editor.NodeState(nodeID))
}

// Helper methods

func (h *InteractionHandler) selectionOp(w http.ResponseWriter, r *http.Request, op func(*services.Editor, valueobjects.ElementRef)) {
	editor, ok := h.editorFor(w, r)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	elementID, err := valueobjects.NewElementIDFromString(req.ElementID)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid element ID")
		return
	}
	elementType, err := valueobjects.ParseElementType(req.ElementType)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	op(editor, valueobjects.NewElementRef(elementID, elementType))
	h.respondJSON(w, r, http.StatusOK, h.selectionState(editor))
}

func (h *InteractionHandler) selectionState(editor *services.Editor) SelectionStateResponse {
	response := SelectionStateResponse{
		Selection:      []SelectionEntry{},
		Classification: string(editor.ClassifySelection()),
		Actions:        editor.AvailableActions(),
	}
	for _, ref := range editor.Selection() {
		response.Selection = append(response.Selection, SelectionEntry{
			ID:   ref.ID.String(),
			Type: string(ref.Type),
		})
	}
	return response
}

func (h *InteractionHandler) editorFor(w http.ResponseWriter, r *http.Request) (*services.Editor, bool) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return nil, false
	}

	editor, err := h.editors.Get(r.Context(), aggregates.SceneID(sceneID))
	if err != nil {
		h.respondError(w, r, http.StatusNotFound, "Scene not found")
		return nil, false
	}
	return editor, true
}

func (h *InteractionHandler) nodeFor(w http.ResponseWriter, r *http.Request) (*services.Editor, valueobjects.ElementID, bool) {
	editor, ok := h.editorFor(w, r)
	if !ok {
		return nil, valueobjects.ElementID{}, false
	}

	nodeID, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid node ID")
		return nil, valueobjects.ElementID{}, false
	}
	return editor, nodeID, true
}

func (h *InteractionHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	common.RespondJSON(w, r, status, data)
}

func (h *InteractionHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	common.RespondError(w, r, status, common.ErrorCode(status), message)
}
