package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"archboard-backend/application/services"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/infrastructure/persistence/schema"
)

// ImportSceneCommand recreates a scene from an exported snapshot document.
// Snapshots written by older builds are upgraded before import.
type ImportSceneCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	Snapshot []byte `json:"snapshot" validate:"required"`
}

// Validate validates the command
func (cmd ImportSceneCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if len(cmd.Snapshot) == 0 {
		return errors.New("snapshot document is required")
	}
	return nil
}

// ImportSceneHandler handles the ImportSceneCommand
type ImportSceneHandler struct {
	editors   *services.EditorManager
	evolution *schema.Evolution
	logger    *zap.Logger
}

// NewImportSceneHandler creates a new handler instance
func NewImportSceneHandler(editors *services.EditorManager, evolution *schema.Evolution, logger *zap.Logger) *ImportSceneHandler {
	return &ImportSceneHandler{
		editors:   editors,
		evolution: evolution,
		logger:    logger,
	}
}

// Handle executes the import and returns the new scene's ID
func (h *ImportSceneHandler) Handle(ctx context.Context, cmd ImportSceneCommand) (aggregates.SceneID, error) {
	payload, err := h.evolution.Unmarshal(cmd.Snapshot)
	if err != nil {
		return "", err
	}

	name, _ := payload["name"].(string)
	if name == "" {
		name = "Imported scene"
	}

	editor, err := h.editors.CreateScene(ctx, cmd.UserID, name)
	if err != nil {
		return "", err
	}

	// Node IDs are reassigned on import; edges are remapped through the
	// snapshot's original IDs
	idMap := make(map[string]valueobjects.ElementID)

	if rawNodes, ok := payload["nodes"].([]interface{}); ok {
		for i, raw := range rawNodes {
			node, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			newID, err := h.importNode(ctx, editor, node)
			if err != nil {
				return "", fmt.Errorf("failed to import node %d: %w", i, err)
			}
			if originalID, ok := node["id"].(string); ok {
				idMap[originalID] = newID
			}
		}
	}

	if rawEdges, ok := payload["edges"].([]interface{}); ok {
		for i, raw := range rawEdges {
			edge, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if err := h.importEdge(ctx, editor, edge, idMap); err != nil {
				return "", fmt.Errorf("failed to import edge %d: %w", i, err)
			}
		}
	}

	h.logger.Info("scene imported",
		zap.String("sceneID", editor.SceneID().String()),
		zap.String("userID", cmd.UserID),
		zap.Int("nodes", len(idMap)),
	)

	return editor.SceneID(), nil
}

func (h *ImportSceneHandler) importNode(ctx context.Context, editor *services.Editor, node map[string]interface{}) (valueobjects.ElementID, error) {
	rawKind, _ := node["kind"].(string)
	kind, err := entities.ParseNodeKind(rawKind)
	if err != nil {
		return valueobjects.ElementID{}, err
	}

	rawName, _ := node["name"].(string)
	name, err := valueobjects.NewLabel(rawName)
	if err != nil {
		return valueobjects.ElementID{}, err
	}

	bounds := valueobjects.Bounds{Width: 120, Height: 60}
	if rawBounds, ok := node["bounds"].(map[string]interface{}); ok {
		bounds.Origin.X = floatValue(rawBounds["x"])
		bounds.Origin.Y = floatValue(rawBounds["y"])
		if w := floatValue(rawBounds["width"]); w > 0 {
			bounds.Width = w
		}
		if h := floatValue(rawBounds["height"]); h > 0 {
			bounds.Height = h
		}
	}

	created, err := editor.AddNode(ctx, kind, name, bounds)
	if err != nil {
		return valueobjects.ElementID{}, err
	}

	return created.ID(), nil
}

func (h *ImportSceneHandler) importEdge(ctx context.Context, editor *services.Editor, edge map[string]interface{}, idMap map[string]valueobjects.ElementID) error {
	rawSource, _ := edge["source_id"].(string)
	rawTarget, _ := edge["target_id"].(string)

	sourceID, ok := idMap[rawSource]
	if !ok {
		return fmt.Errorf("edge references unknown source %q", rawSource)
	}
	targetID, ok := idMap[rawTarget]
	if !ok {
		return fmt.Errorf("edge references unknown target %q", rawTarget)
	}

	if err := editor.BeginConnection(ctx, sourceID, h.centerOf(editor, sourceID)); err != nil {
		return err
	}
	result, err := editor.CompleteConnection(ctx, targetID)
	if err != nil {
		return err
	}
	if result.Outcome != services.OutcomeCompleted {
		return fmt.Errorf("edge import ended with outcome %s", result.Outcome)
	}

	if label, ok := edge["label"].(string); ok && label != "" && result.Edge != nil {
		if err := result.Edge.SetLabel(label); err != nil {
			h.logger.Warn("failed to apply edge label", zap.Error(err))
		}
	}

	return nil
}

func (h *ImportSceneHandler) centerOf(editor *services.Editor, nodeID valueobjects.ElementID) valueobjects.Position {
	for _, node := range editor.Nodes() {
		if node.ID().Equals(nodeID) {
			return node.Bounds().Center()
		}
	}
	return valueobjects.Position{}
}

func floatValue(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int:
		return float64(value)
	default:
		return 0
	}
}
