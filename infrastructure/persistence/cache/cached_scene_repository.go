package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
)

// CachedSceneRepository decorates a scene repository with read-through
// caching. Writes invalidate before delegating so a failed save never
// leaves a stale snapshot behind.
type CachedSceneRepository struct {
	inner  ports.SceneRepository
	cache  ports.Cache
	ttl    int
	logger *zap.Logger
}

var _ ports.SceneRepository = (*CachedSceneRepository)(nil)

// NewCachedSceneRepository wraps a repository with a cache. TTL is in seconds.
func NewCachedSceneRepository(inner ports.SceneRepository, cache ports.Cache, ttl int, logger *zap.Logger) *CachedSceneRepository {
	if ttl <= 0 {
		ttl = 300
	}
	return &CachedSceneRepository{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Save persists a scene and refreshes the cached snapshot
func (r *CachedSceneRepository) Save(ctx context.Context, scene *aggregates.Scene) error {
	key := sceneKey(scene.ID())

	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("failed to invalidate scene cache", zap.String("key", key), zap.Error(err))
	}

	if err := r.inner.Save(ctx, scene); err != nil {
		return err
	}

	if err := r.cache.Set(ctx, key, scene, r.ttl); err != nil {
		r.logger.Warn("failed to cache scene", zap.String("key", key), zap.Error(err))
	}

	return nil
}

// GetByID retrieves a scene, serving from cache when the snapshot is fresh
func (r *CachedSceneRepository) GetByID(ctx context.Context, id aggregates.SceneID) (*aggregates.Scene, error) {
	key := sceneKey(id)

	if cached, ok := r.cache.Get(ctx, key); ok {
		if scene, ok := cached.(*aggregates.Scene); ok {
			return scene, nil
		}
	}

	scene, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, scene, r.ttl); err != nil {
		r.logger.Warn("failed to cache scene", zap.String("key", key), zap.Error(err))
	}

	return scene, nil
}

// GetByUserID lists a user's scenes. Listings are not cached; they change
// with every scene create or delete and are only hit on dashboard loads.
func (r *CachedSceneRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Scene, error) {
	return r.inner.GetByUserID(ctx, userID)
}

// Delete removes a scene and drops its cached snapshot
func (r *CachedSceneRepository) Delete(ctx context.Context, id aggregates.SceneID) error {
	key := sceneKey(id)

	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("failed to invalidate scene cache", zap.String("key", key), zap.Error(err))
	}

	return r.inner.Delete(ctx, id)
}

func sceneKey(id aggregates.SceneID) string {
	return fmt.Sprintf("scene:%s", string(id))
}
