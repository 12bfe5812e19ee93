package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"archboard-backend/application/commands"
	"archboard-backend/application/queries"
	querybus "archboard-backend/application/queries/bus"
	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/pkg/auth"
	"archboard-backend/pkg/common"
	"archboard-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SceneHandler handles scene-related HTTP requests
type SceneHandler struct {
	createScene *commands.CreateSceneHandler
	importScene *commands.ImportSceneHandler
	exportScene *queries.ExportSceneHandler
	editors     *services.EditorManager
	checkpoints *services.CheckpointService
	queryBus    *querybus.QueryBus
	logger      *zap.Logger
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(
	createScene *commands.CreateSceneHandler,
	importScene *commands.ImportSceneHandler,
	exportScene *queries.ExportSceneHandler,
	editors *services.EditorManager,
	checkpoints *services.CheckpointService,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *SceneHandler {
	return &SceneHandler{
		createScene: createScene,
		importScene: importScene,
		exportScene: exportScene,
		editors:     editors,
		checkpoints: checkpoints,
		queryBus:    queryBus,
		logger:      logger,
	}
}

// CreateSceneRequest represents the request body for creating a scene
type CreateSceneRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// CreateSceneResponse represents the response for creating a scene
type CreateSceneResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// CreateScene handles POST /scenes
func (h *SceneHandler) CreateScene(w http.ResponseWriter, r *http.Request) {
	var req CreateSceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := commands.CreateSceneCommand{
		UserID:      userCtx.UserID,
		Name:        req.Name,
		Description: req.Description,
	}

	sceneID, err := h.createScene.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to create scene",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create scene")
		return
	}

	h.respondJSON(w, r, http.StatusCreated, CreateSceneResponse{
		ID:        sceneID.String(),
		Message:   "Scene created successfully",
		CreatedAt: utils.NowRFC3339(),
	})
}

// ListScenes handles GET /scenes
func (h *SceneHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListScenesQuery{UserID: userCtx.UserID})
	if err != nil {
		h.logger.Error("Failed to list scenes",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, r, http.StatusInternalServerError, "Failed to list scenes")
		return
	}

	summaries, ok := result.([]queries.SceneSummary)
	if !ok {
		h.respondError(w, r, http.StatusInternalServerError, "Failed to list scenes")
		return
	}

	params := common.ExtractPaginationParams(r)
	total := len(summaries)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	h.respondJSON(w, r, http.StatusOK, common.NewPaginatedResult(summaries[start:end], params.Page, params.PageSize, total))
}

// GetScene handles GET /scenes/{sceneID}
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetSceneQuery{SceneID: sceneID})
	if err != nil {
		h.logger.Error("Failed to get scene",
			zap.String("sceneID", sceneID),
			zap.Error(err),
		)
		h.respondError(w, r, http.StatusNotFound, "Scene not found")
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// GetEditorState handles GET /scenes/{sceneID}/state
func (h *SceneHandler) GetEditorState(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetEditorStateQuery{SceneID: sceneID})
	if err != nil {
		h.logger.Error("Failed to get editor state",
			zap.String("sceneID", sceneID),
			zap.Error(err),
		)
		h.respondError(w, r, http.StatusNotFound, "Scene not found")
		return
	}

	h.respondJSON(w, r, http.StatusOK, result)
}

// DeleteScene handles DELETE /scenes/{sceneID}
func (h *SceneHandler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	if err := h.editors.DeleteScene(r.Context(), aggregates.SceneID(sceneID)); err != nil {
		h.logger.Error("Failed to delete scene",
			zap.String("sceneID", sceneID),
			zap.Error(err),
		)
		if strings.Contains(err.Error(), "not found") {
			h.respondError(w, r, http.StatusNotFound, "Scene not found")
		} else {
			h.respondError(w, r, http.StatusInternalServerError, "Failed to delete scene")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportScene handles GET /scenes/{sceneID}/export
func (h *SceneHandler) ExportScene(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	snapshot, err := h.exportScene.Handle(r.Context(), queries.ExportSceneQuery{SceneID: sceneID})
	if err != nil {
		h.logger.Error("Failed to export scene",
			zap.String("sceneID", sceneID),
			zap.Error(err),
		)
		h.respondError(w, r, http.StatusNotFound, "Scene not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\"scene-"+sceneID+".json\"")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(snapshot); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}

// ImportScene handles POST /scenes/import. The request body is a snapshot
// document as produced by the export endpoint.
func (h *SceneHandler) ImportScene(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	snapshot, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}

	cmd := commands.ImportSceneCommand{
		UserID:   userCtx.UserID,
		Snapshot: snapshot,
	}
	if err := cmd.Validate(); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	sceneID, err := h.importScene.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to import scene",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, r, http.StatusBadRequest, "Failed to import scene: "+err.Error())
		return
	}

	h.respondJSON(w, r, http.StatusCreated, CreateSceneResponse{
		ID:        sceneID.String(),
		Message:   "Scene imported successfully",
		CreatedAt: utils.NowRFC3339(),
	})
}

// CreateCheckpointRequest represents the request body for creating a checkpoint
type CreateCheckpointRequest struct {
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// CreateCheckpoint handles POST /scenes/{sceneID}/checkpoints
func (h *SceneHandler) CreateCheckpoint(w http.ResponseWriter, r *http.Request) {
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

	var req CreateCheckpointRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	version, err := h.checkpoints.Create(r.Context(), aggregates.SceneID(sceneID), userCtx.UserID, req.Description)
	if err != nil {
		h.logger.Error("Failed to create checkpoint",
			zap.String("sceneID", sceneID),
			zap.Error(err),
		)
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create checkpoint")
		return
	}

	h.respondJSON(w, r, http.StatusCreated, version)
}

// ListCheckpoints handles GET /scenes/{sceneID}/checkpoints
func (h *SceneHandler) ListCheckpoints(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	h.respondJSON(w, r, http.StatusOK, h.checkpoints.List(aggregates.SceneID(sceneID)))
}

// DiffCheckpoints handles GET /scenes/{sceneID}/checkpoints/diff?from=N&to=M
func (h *SceneHandler) DiffCheckpoints(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "sceneID")
	if sceneID == "" {
		h.respondError(w, r, http.StatusBadRequest, "Scene ID is required")
		return
	}

	from, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid 'from' version")
		return
	}
	to, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid 'to' version")
		return
	}

	diff, err := h.checkpoints.Diff(aggregates.SceneID(sceneID), from, to)
	if err != nil {
		h.respondError(w, r, http.StatusNotFound, err.Error())
		return
	}

	h.respondJSON(w, r, http.StatusOK, diff)
}

// Helper methods

func (h *SceneHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	common.RespondJSON(w, r, status, data)
}

func (h *SceneHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	common.RespondError(w, r, status, common.ErrorCode(status), message)
}
