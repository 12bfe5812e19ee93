package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"archboard-backend/application/commands"
	"archboard-backend/application/commands/bus"
	"archboard-backend/application/queries"
	querybus "archboard-backend/application/queries/bus"
	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/pkg/common"
	"archboard-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PropertyHandler handles element property HTTP requests
type PropertyHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	editors    *services.EditorManager
	logger     *zap.Logger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	editors *services.EditorManager,
	logger *zap.Logger,
) *PropertyHandler {
	return &PropertyHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		editors:    editors,
		logger:     logger,
	}
}

// DefinePropertyRequest represents the request body for defining a property
type DefinePropertyRequest struct {
	Key      string      `json:"key" validate:"required,max=100"`
	Value    interface{} `json:"value"`
	Category string      `json:"category,omitempty" validate:"omitempty,max=100"`
	Required bool        `json:"required"`
	ReadOnly bool        `json:"read_only"`
}

// UpdatePropertyRequest represents the request body for updating a property
type UpdatePropertyRequest struct {
	Value interface{} `json:"value"`
}

// ReorderPropertyRequest represents the request body for reordering a property
type ReorderPropertyRequest struct {
	NewOrder int64 `json:"new_order" validate:"gte=0"`
}

// DefineProperty handles POST /scenes/{sceneID}/elements/{elementID}/properties
func (h *PropertyHandler) DefineProperty(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	elementID := chi.URLParam(r, "elementID")
	if sceneID == "" || elementID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID and element ID are required")
		return
	}

	var req DefinePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd := commands.DefinePropertyCommand{
		SceneID:   sceneID,
		ElementID: elementID,
		Key:       req.Key,
		Value:     req.Value,
		Category:  req.Category,
		Required:  req.Required,
		ReadOnly:  req.ReadOnly,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondCommandError(w, r, err, "Failed to define property")
		return
	}

	h.respondJSON(w, r, http.StatusCreated, map[string]string{
		"message": "Property defined successfully",
		"key":     req.Key,
	})
}

// UpdateProperty handles PUT /scenes/{sceneID}/elements/{elementID}/properties/{key}
func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	elementID := chi.URLParam(r, "elementID")
	key := chi.URLParam(r, "key")
	if sceneID == "" || elementID == "" || key == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID, element ID and key are required")
		return
	}

	var req UpdatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cmd := commands.UpdatePropertyCommand{
		SceneID:   sceneID,
		ElementID: elementID,
		Key:       key,
		Value:     req.Value,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondCommandError(w, r, err, "Failed to update property")
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{
		"message": "Property updated successfully",
		"key":     key,
	})
}

// ReorderProperty handles PUT /scenes/{sceneID}/elements/{elementID}/properties/{key}/order
func (h *PropertyHandler) ReorderProperty(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	elementID := chi.URLParam(r, "elementID")
	key := chi.URLParam(r, "key")
	if sceneID == "" || elementID == "" || key == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID, element ID and key are required")
		return
	}

	var req ReorderPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd := commands.ReorderPropertyCommand{
		SceneID:   sceneID,
		ElementID: elementID,
		Key:       key,
		NewOrder:  req.NewOrder,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondCommandError(w, r, err, "Failed to reorder property")
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":   "Property reordered successfully",
		"key":       key,
		"new_order": req.NewOrder,
	})
}

// RemoveProperty handles DELETE /scenes/{sceneID}/elements/{elementID}/properties/{key}
func (h *PropertyHandler) RemoveProperty(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	elementID := chi.URLParam(r, "elementID")
	key := chi.URLParam(r, "key")
	if sceneID == "" || elementID == "" || key == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID, element ID and key are required")
		return
	}

	cmd := commands.RemovePropertyCommand{
		SceneID:   sceneID,
		ElementID: elementID,
		Key:       key,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondCommandError(w, r, err, "Failed to remove property")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListProperties handles GET /scenes/{sceneID}/elements/{elementID}/properties
func (h *PropertyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	elementID := chi.URLParam(r, "elementID")
	if sceneID == "" || elementID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID and element ID are required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetPropertiesQuery{
		SceneID:   sceneID,
		ElementID: elementID,
	})
	if err != nil {
		h.respondError(w, r, http.StatusNotFound, "Element not found")
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// PropertyHistory handles GET /scenes/{sceneID}/elements/{elementID}/properties/history
func (h *PropertyHandler) PropertyHistory(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	elementID, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid element ID")
		return
	}

	editor, err := h.editors.Get(r.Context(), aggregates.SceneID(sceneID))
	if err != nil {
		h.respondError(w, r, http.StatusNotFound, "Scene not found")
		return
	}

	history := editor.PropertyHistory(elementID)
	if history == nil {
		history = []services.PropertyChange{}
	}
	h.respondJSON(w, r, http.StatusOK, history)
}

// Helper methods

func (h *PropertyHandler) respondCommandError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case strings.Contains(err.Error(), "not found"):
		h.respondError(w, r, http.StatusNotFound, err.Error())
	case strings.Contains(err.Error(), "read-only") || strings.Contains(err.Error(), "validation"):
		h.respondError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.respondError(w, r, http.StatusBadRequest, fallback+": "+err.Error())
	}
}

func (h *PropertyHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	common.RespondJSON(w, r, status, data)
}

func (h *PropertyHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	common.RespondError(w, r, status, common.ErrorCode(status), message)
}
