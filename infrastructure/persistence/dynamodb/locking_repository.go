package dynamodb

import (
	"context"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
)

// LockedSceneRepository serializes scene writes across processes. Reads pass
// through untouched; Save and Delete hold the scene lock so two Lambda
// instances editing the same scene cannot interleave snapshots.
type LockedSceneRepository struct {
	inner  ports.SceneRepository
	lock   ports.SceneLock
	owner  string
	logger *zap.Logger
}

// NewLockedSceneRepository wraps a repository with cross-process locking.
// The owner string identifies this process in lock records.
func NewLockedSceneRepository(inner ports.SceneRepository, lock ports.SceneLock, owner string, logger *zap.Logger) *LockedSceneRepository {
	return &LockedSceneRepository{
		inner:  inner,
		lock:   lock,
		owner:  owner,
		logger: logger,
	}
}

// Save persists a scene while holding its lock
func (r *LockedSceneRepository) Save(ctx context.Context, scene *aggregates.Scene) error {
	release, err := r.lock.Acquire(ctx, string(scene.ID()), r.owner)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(ctx); err != nil {
			r.logger.Warn("failed to release scene lock",
				zap.String("sceneID", string(scene.ID())),
				zap.Error(err),
			)
		}
	}()

	return r.inner.Save(ctx, scene)
}

// GetByID retrieves a scene by its ID
func (r *LockedSceneRepository) GetByID(ctx context.Context, id aggregates.SceneID) (*aggregates.Scene, error) {
	return r.inner.GetByID(ctx, id)
}

// GetByUserID retrieves all scenes for a user
func (r *LockedSceneRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Scene, error) {
	return r.inner.GetByUserID(ctx, userID)
}

// Delete removes a scene while holding its lock
func (r *LockedSceneRepository) Delete(ctx context.Context, id aggregates.SceneID) error {
	release, err := r.lock.Acquire(ctx, string(id), r.owner)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(ctx); err != nil {
			r.logger.Warn("failed to release scene lock",
				zap.String("sceneID", string(id)),
				zap.Error(err),
			)
		}
	}()

	return r.inner.Delete(ctx, id)
}
