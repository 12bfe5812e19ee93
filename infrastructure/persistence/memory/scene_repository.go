package memory

import (
	"context"
	"sync"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/pkg/errors"
)

// SceneRepository keeps scenes in process memory. Used by local development
// mode and by tests; the DynamoDB repository is the production store.
type SceneRepository struct {
	mu     sync.RWMutex
	scenes map[aggregates.SceneID]*aggregates.Scene
	byUser map[string][]aggregates.SceneID
}

// NewSceneRepository creates an empty in-memory scene repository
func NewSceneRepository() ports.SceneRepository {
	return &SceneRepository{
		scenes: make(map[aggregates.SceneID]*aggregates.Scene),
		byUser: make(map[string][]aggregates.SceneID),
	}
}

// Save stores or replaces a scene snapshot
func (r *SceneRepository) Save(ctx context.Context, scene *aggregates.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenes[scene.ID()]; !exists {
		r.byUser[scene.UserID()] = append(r.byUser[scene.UserID()], scene.ID())
	}
	r.scenes[scene.ID()] = scene

	return nil
}

// GetByID retrieves a scene by its ID
func (r *SceneRepository) GetByID(ctx context.Context, id aggregates.SceneID) (*aggregates.Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scene, exists := r.scenes[id]
	if !exists {
		return nil, errors.ErrSceneNotFound.WithDetail("sceneID", string(id))
	}
	return scene, nil
}

// GetByUserID retrieves all scenes for a user
func (r *SceneRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	scenes := make([]*aggregates.Scene, 0, len(ids))
	for _, id := range ids {
		if scene, exists := r.scenes[id]; exists {
			scenes = append(scenes, scene)
		}
	}
	return scenes, nil
}

// Delete removes a scene
func (r *SceneRepository) Delete(ctx context.Context, id aggregates.SceneID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scene, exists := r.scenes[id]
	if !exists {
		return errors.ErrSceneNotFound.WithDetail("sceneID", string(id))
	}

	delete(r.scenes, id)

	ids := r.byUser[scene.UserID()]
	for i, sid := range ids {
		if sid == id {
			r.byUser[scene.UserID()] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	return nil
}
