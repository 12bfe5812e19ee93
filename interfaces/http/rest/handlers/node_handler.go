package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"archboard-backend/application/commands"
	"archboard-backend/application/commands/bus"
	cmdhandlers "archboard-backend/application/commands/handlers"
	"archboard-backend/pkg/common"
	"archboard-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	addNode    *commands.AddNodeHandler
	commandBus *bus.CommandBus
	logger     *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	addNode *commands.AddNodeHandler,
	commandBus *bus.CommandBus,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		addNode:    addNode,
		commandBus: commandBus,
		logger:     logger,
	}
}

// AddNodeRequest represents the request body for adding a node
type AddNodeRequest struct {
	Kind        string  `json:"kind" validate:"required"`
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// AddNodeResponse represents the response for adding a node
type AddNodeResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// MoveNodeRequest represents the request body for moving a node
type MoveNodeRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"required,gt=0"`
	Height float64 `json:"height" validate:"required,gt=0"`
}

// RenameNodeRequest represents the request body for renaming a node
type RenameNodeRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// AddNode handles POST /scenes/{sceneID}/nodes
func (h *NodeHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	var req AddNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Default to the standard card extent when the client omits one
	if req.Width <= 0 {
		req.Width = 120
	}
	if req.Height <= 0 {
		req.Height = 60
	}

	cmd := commands.AddNodeCommand{
		SceneID:     sceneID,
		Kind:        req.Kind,
		Name:        req.Name,
		Description: req.Description,
		X:           req.X,
		Y:           req.Y,
		Width:       req.Width,
		Height:      req.Height,
	}

	node, err := h.addNode.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to add node",
			zap.String("sceneID", sceneID),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "not found") {
			h.respondError(w, r, http.StatusNotFound, "Scene not found")
		} else {
			h.respondError(w, r, http.StatusBadRequest, "Failed to add node: "+err.Error())
		}
		return
	}

	h.respondJSON(w, r, http.StatusCreated, AddNodeResponse{
		ID:        node.ID().String(),
		Message:   "Node added successfully",
		CreatedAt: utils.NowRFC3339(),
	})
}

// MoveNode handles PUT /scenes/{sceneID}/nodes/{nodeID}/bounds
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	nodeID := chi.URLParam(r, "nodeID")
	if sceneID == "" || nodeID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID and node ID are required")
		return
	}

	var req MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd := cmdhandlers.MoveNodeCommand{
		SceneID: sceneID,
		NodeID:  nodeID,
		X:       req.X,
		Y:       req.Y,
		Width:   req.Width,
		Height:  req.Height,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to move node",
			zap.String("sceneID", sceneID),
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "not found") {
			h.respondError(w, r, http.StatusNotFound, "Node not found")
		} else {
			h.respondError(w, r, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{
		"message": "Node moved successfully",
		"id":      nodeID,
	})
}

// RenameNode handles PUT /scenes/{sceneID}/nodes/{nodeID}/name
func (h *NodeHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	nodeID := chi.URLParam(r, "nodeID")
	if sceneID == "" || nodeID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID and node ID are required")
		return
	}

	var req RenameNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd := cmdhandlers.RenameNodeCommand{
		SceneID: sceneID,
		NodeID:  nodeID,
		Name:    req.Name,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to rename node",
			zap.String("sceneID", sceneID),
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "not found") {
			h.respondError(w, r, http.StatusNotFound, "Node not found")
		} else {
			h.respondError(w, r, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{
		"message": "Node renamed successfully",
		"id":      nodeID,
	})
}

// DeleteNode handles DELETE /scenes/{sceneID}/nodes/{nodeID}.
// Edges attached to the node are deleted with it.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	nodeID := chi.URLParam(r, "nodeID")
	if sceneID == "" || nodeID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID and node ID are required")
		return
	}

	cmd := commands.DeleteElementCommand{
		SceneID:     sceneID,
		ElementID:   nodeID,
		ElementType: "node",
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to delete node",
			zap.String("sceneID", sceneID),
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "not found") {
			h.respondError(w, r, http.StatusNotFound, "Node not found")
		} else {
			h.respondError(w, r, http.StatusInternalServerError, "Failed to delete node")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *NodeHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	common.RespondJSON(w, r, status, data)
}

func (h *NodeHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	common.RespondError(w, r, status, common.ErrorCode(status), message)
}
