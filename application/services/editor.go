package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/config"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/validators"
	"archboard-backend/domain/core/valueobjects"
)

// Editor owns all editing state for one scene. Every operation takes the
// editor mutex, so within a scene the components always observe each other
// between operations, never mid-operation.
type Editor struct {
	mu         sync.Mutex
	scene      *aggregates.Scene
	selection  *SelectionCoordinator
	states     *ElementStateStore
	sessions   *ConnectionSessionManager
	properties *PropertyStore
	deletion   *DeletionCoordinator
	actions    *ActionAvailability
	repo       ports.SceneRepository
	animator   ports.Animator
	bus        ports.EventPublisher
	logger     *zap.Logger
}

// NewEditor wires the editing components around a scene
func NewEditor(
	scene *aggregates.Scene,
	repo ports.SceneRepository,
	renderer ports.Renderer,
	tree ports.TreeNotifier,
	animator ports.Animator,
	bus ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *Editor {
	sceneID := scene.ID().String()
	selection := NewSelectionCoordinator(sceneID, renderer, bus, logger)
	states := NewElementStateStore(bus, logger)
	sessions := NewConnectionSessionManager(scene, renderer, bus, logger)
	properties := NewPropertyStore(validators.NewPropertyValidatorWithConfig(cfg), bus, logger)
	deletion := NewDeletionCoordinator(scene, selection, properties, states, sessions, tree, bus, logger)

	return &Editor{
		scene:      scene,
		selection:  selection,
		states:     states,
		sessions:   sessions,
		properties: properties,
		deletion:   deletion,
		actions:    NewActionAvailability(selection),
		repo:       repo,
		animator:   animator,
		bus:        bus,
		logger:     logger.With(zap.String("sceneID", sceneID)),
	}
}

// SceneID returns the scene this editor serves
func (e *Editor) SceneID() aggregates.SceneID {
	return e.scene.ID()
}

// SceneInfo is a read-only summary of a scene's metadata
type SceneInfo struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Version     int
}

// SceneSnapshot returns the scene's metadata
func (e *Editor) SceneSnapshot() SceneInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SceneInfo{
		ID:          e.scene.ID().String(),
		UserID:      e.scene.UserID(),
		Name:        e.scene.Name(),
		Description: e.scene.Description(),
		Version:     e.scene.Version(),
	}
}

// Scene operations

// AddNode places a new node on the canvas
func (e *Editor) AddNode(ctx context.Context, kind entities.NodeKind, name valueobjects.Label, bounds valueobjects.Bounds) (*entities.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := entities.NewNode(e.scene.ID().String(), kind, name, bounds)
	if err != nil {
		return nil, err
	}
	if err := e.scene.AddNode(node); err != nil {
		return nil, err
	}
	e.states.CacheBounds(node.ID(), bounds)
	e.flush(ctx)
	return node, nil
}

// MoveNode updates a node's bounds
func (e *Editor) MoveNode(ctx context.Context, nodeID valueobjects.ElementID, bounds valueobjects.Bounds) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := e.scene.GetNode(nodeID)
	if err != nil {
		return err
	}
	if err := node.MoveTo(bounds); err != nil {
		return err
	}
	e.states.CacheBounds(nodeID, bounds)
	e.flush(ctx)
	return nil
}

// RenameNode updates a node's display name
func (e *Editor) RenameNode(ctx context.Context, nodeID valueobjects.ElementID, name valueobjects.Label) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := e.scene.GetNode(nodeID)
	if err != nil {
		return err
	}
	if err := node.Rename(name); err != nil {
		return err
	}
	e.flush(ctx)
	return nil
}

// Nodes returns all nodes in the scene
func (e *Editor) Nodes() []*entities.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.GetNodes()
}

// Edges returns all edges in the scene
func (e *Editor) Edges() []*entities.Edge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.GetEdges()
}

// Selection operations

// SelectElement adds an element to the selection
func (e *Editor) SelectElement(ctx context.Context, ref valueobjects.ElementRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Select(ctx, ref)
}

// DeselectElement removes an element from the selection
func (e *Editor) DeselectElement(ctx context.Context, ref valueobjects.ElementRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Deselect(ctx, ref)
}

// ToggleElement flips an element's selection state
func (e *Editor) ToggleElement(ctx context.Context, ref valueobjects.ElementRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Toggle(ctx, ref)
}

// ReplaceSelection selects exactly the given element
func (e *Editor) ReplaceSelection(ctx context.Context, ref valueobjects.ElementRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Replace(ctx, ref)
}

// ClearSelection empties the selection
func (e *Editor) ClearSelection(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Clear(ctx)
}

// Selection returns the selected elements in selection order
func (e *Editor) Selection() []valueobjects.ElementRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Selected()
}

// ClassifySelection summarizes the current selection shape
func (e *Editor) ClassifySelection() Classification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Classify()
}

// AvailableActions returns the toolbar actions permitted right now
func (e *Editor) AvailableActions() ActionSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actions.Current()
}

// Connection operations

// BeginConnection starts a connection gesture from a node
func (e *Editor) BeginConnection(ctx context.Context, sourceID valueobjects.ElementID, anchor valueobjects.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Begin(ctx, sourceID, anchor)
}

// UpdateConnectionPointer moves the preview edge's free end
func (e *Editor) UpdateConnectionPointer(ctx context.Context, to valueobjects.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.UpdatePointer(ctx, to)
}

// CompleteConnection drops the gesture on a target node
func (e *Editor) CompleteConnection(ctx context.Context, targetID valueobjects.ElementID) (ConnectionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.sessions.CompleteAt(ctx, targetID)
	if result.Outcome == OutcomeCompleted {
		e.flush(ctx)
	}
	return result, err
}

// CancelConnection abandons a pending gesture
func (e *Editor) CancelConnection(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions.Cancel(ctx)
}

// ConnectionSnapshot returns a read-only view of the session
func (e *Editor) ConnectionSnapshot() SessionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Snapshot()
}

// Deletion operations

// DeleteElement removes an element with full cascade. The edge cascade runs
// under the editor mutex before the fade starts; the fade may resolve on
// another goroutine, so finalization re-enters through the mutex and
// serializes with every other intent.
func (e *Editor) DeleteElement(ctx context.Context, ref valueobjects.ElementRef) error {
	e.mu.Lock()
	pending, err := e.deletion.DeleteElement(ctx, ref)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.flush(ctx)
	e.mu.Unlock()

	if pending == nil {
		return nil
	}

	e.animator.FadeOutThenResolve(ctx, ref, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		pending.Finalize(ctx)
		e.flush(ctx)
	})
	return nil
}

// DeletionHistory returns the append-only deletion records
func (e *Editor) DeletionHistory() []DeletionRecord {
	return e.deletion.History()
}

// Property operations

// DefineProperty adds a new property to an element
func (e *Editor) DefineProperty(ctx context.Context, elementID valueobjects.ElementID, key string, value interface{}, meta entities.PropertyMeta) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.properties.Define(ctx, elementID, key, value, meta)
}

// UpdateProperty changes an existing property's value
func (e *Editor) UpdateProperty(ctx context.Context, elementID valueobjects.ElementID, key string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.properties.Update(ctx, elementID, key, value)
}

// RemoveProperty deletes a property from an element
func (e *Editor) RemoveProperty(ctx context.Context, elementID valueobjects.ElementID, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.properties.Remove(ctx, elementID, key)
}

// ReorderProperty moves a property to a new display position
func (e *Editor) ReorderProperty(ctx context.Context, elementID valueobjects.ElementID, key string, newOrder int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.properties.Reorder(ctx, elementID, key, newOrder)
}

// ListProperties returns an element's properties in definition order
func (e *Editor) ListProperties(elementID valueobjects.ElementID) []entities.Property {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.properties.List(elementID)
}

// PropertyHistory returns an element's property change history
func (e *Editor) PropertyHistory(elementID valueobjects.ElementID) []PropertyChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.properties.History(elementID)
}

// Element state operations

// SetCollapsed flips a node's collapsed flag
func (e *Editor) SetCollapsed(ctx context.Context, nodeID valueobjects.ElementID, collapsed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states.SetCollapsed(ctx, nodeID, collapsed)
}

// BeginEditing puts a node into editing mode
func (e *Editor) BeginEditing(ctx context.Context, nodeID valueobjects.ElementID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states.BeginEditing(ctx, nodeID)
}

// EndEditing takes a node out of editing mode
func (e *Editor) EndEditing(ctx context.Context, nodeID valueobjects.ElementID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states.EndEditing(ctx, nodeID)
}

// SetActionsVisible toggles a node's hover affordances
func (e *Editor) SetActionsVisible(ctx context.Context, nodeID valueobjects.ElementID, visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states.SetActionsVisible(ctx, nodeID, visible)
}

// NodeState returns a copy of a node's interaction state
func (e *Editor) NodeState(nodeID valueobjects.ElementID) NodeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states.StateOf(nodeID)
}

// flush publishes the scene's buffered events and persists the snapshot.
// Callers hold the editor mutex.
func (e *Editor) flush(ctx context.Context) {
	pending := e.scene.GetUncommittedEvents()
	if len(pending) > 0 {
		if err := e.bus.PublishBatch(ctx, pending); err != nil {
			e.logger.Warn("failed to publish scene events", zap.Error(err))
		}
		e.scene.MarkEventsAsCommitted()
	}

	if err := e.repo.Save(ctx, e.scene); err != nil {
		e.logger.Error("failed to persist scene snapshot", zap.Error(err))
	}
}

// EditorManager hands out one editor per scene
type EditorManager struct {
	mu       sync.RWMutex
	editors  map[aggregates.SceneID]*Editor
	repo     ports.SceneRepository
	renderer ports.Renderer
	tree     ports.TreeNotifier
	animator ports.Animator
	bus      ports.EventPublisher
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewEditorManager creates an editor manager
func NewEditorManager(
	repo ports.SceneRepository,
	renderer ports.Renderer,
	tree ports.TreeNotifier,
	animator ports.Animator,
	bus ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *EditorManager {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &EditorManager{
		editors:  make(map[aggregates.SceneID]*Editor),
		repo:     repo,
		renderer: renderer,
		tree:     tree,
		animator: animator,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateScene creates a new scene and returns its editor
func (m *EditorManager) CreateScene(ctx context.Context, userID, name string) (*Editor, error) {
	scene, err := aggregates.NewSceneWithConfig(userID, name, m.cfg)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Save(ctx, scene); err != nil {
		return nil, err
	}

	editor := m.build(scene)

	m.mu.Lock()
	m.editors[scene.ID()] = editor
	m.mu.Unlock()

	editor.flush(ctx)

	return editor, nil
}

// Get returns the editor for a scene, loading the scene if needed
func (m *EditorManager) Get(ctx context.Context, sceneID aggregates.SceneID) (*Editor, error) {
	m.mu.RLock()
	editor, ok := m.editors[sceneID]
	m.mu.RUnlock()
	if ok {
		return editor, nil
	}

	scene, err := m.repo.GetByID(ctx, sceneID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.editors[sceneID]; ok {
		return existing, nil
	}
	editor = m.build(scene)
	m.editors[sceneID] = editor
	return editor, nil
}

// Drop discards the in-memory editor for a scene
func (m *EditorManager) Drop(sceneID aggregates.SceneID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.editors, sceneID)
}

// DeleteScene removes a scene and its editor
func (m *EditorManager) DeleteScene(ctx context.Context, sceneID aggregates.SceneID) error {
	if err := m.repo.Delete(ctx, sceneID); err != nil {
		return err
	}
	m.Drop(sceneID)
	return nil
}

func (m *EditorManager) build(scene *aggregates.Scene) *Editor {
	return NewEditor(scene, m.repo, m.renderer, m.tree, m.animator, m.bus, m.cfg, m.logger)
}
