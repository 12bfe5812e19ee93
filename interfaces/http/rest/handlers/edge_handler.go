package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"archboard-backend/application/commands"
	"archboard-backend/application/commands/bus"
	"archboard-backend/application/services"
	"archboard-backend/pkg/common"
	"archboard-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	connect    *commands.ConnectElementsHandler
	commandBus *bus.CommandBus
	logger     *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(connect *commands.ConnectElementsHandler, commandBus *bus.CommandBus, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{
		connect:    connect,
		commandBus: commandBus,
		logger:     logger,
	}
}

// ConnectRequest represents the request body for connecting two nodes
type ConnectRequest struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
}

// ConnectResponse represents the outcome of a connection request
type ConnectResponse struct {
	Outcome string `json:"outcome"`
	EdgeID  string `json:"edge_id,omitempty"`
}

// Connect handles POST /scenes/{sceneID}/edges. Connecting a node to itself
// is not an error; the response reports the rejected outcome and no edge is
// created.
func (h *EdgeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd := commands.ConnectElementsCommand{
		SceneID:  sceneID,
		SourceID: req.SourceID,
		TargetID: req.TargetID,
	}

	result, err := h.connect.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to connect elements",
			zap.String("sceneID", sceneID),
			zap.String("sourceID", req.SourceID),
			zap.String("targetID", req.TargetID),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "not found") {
			h.respondError(w, r, http.StatusNotFound, "Element not found")
		} else {
			h.respondError(w, r, http.StatusBadRequest, err.Error())
		}
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

// DeleteEdge handles DELETE /scenes/{sceneID}/edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	edgeID := chi.URLParam(r, "edgeID")
	if sceneID == "" || edgeID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID and edge ID are required")
		return
	}

	cmd := commands.DeleteElementCommand{
		SceneID:     sceneID,
		ElementID:   edgeID,
		ElementType: "edge",
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to delete edge",
			zap.String("sceneID", sceneID),
			zap.String("edgeID", edgeID),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "not found") {
			h.respondError(w, r, http.StatusNotFound, "Edge not found")
		} else {
			h.respondError(w, r, http.StatusInternalServerError, "Failed to delete edge")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *EdgeHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	common.RespondJSON(w, r, status, data)
}

func (h *EdgeHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	common.RespondError(w, r, status, common.ErrorCode(status), message)
}
