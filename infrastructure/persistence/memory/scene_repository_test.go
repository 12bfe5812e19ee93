package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archboard-backend/domain/core/aggregates"
	pkgerrors "archboard-backend/pkg/errors"
)

func TestSceneRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSceneRepository()

	scene, err := aggregates.NewScene("user-1", "Diagram")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, scene))

	got, err := repo.GetByID(ctx, scene.ID())
	require.NoError(t, err)
	assert.Equal(t, scene.ID(), got.ID())
}

func TestSceneRepository_GetMissing(t *testing.T) {
	repo := NewSceneRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, pkgerrors.ErrSceneNotFound)
}

func TestSceneRepository_GetByUserID(t *testing.T) {
	ctx := context.Background()
	repo := NewSceneRepository()

	first, err := aggregates.NewScene("user-1", "First")
	require.NoError(t, err)
	second, err := aggregates.NewScene("user-1", "Second")
	require.NoError(t, err)
	other, err := aggregates.NewScene("user-2", "Other")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, other))

	// Saving again must not duplicate the user index entry
	require.NoError(t, repo.Save(ctx, first))

	scenes, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, scenes, 2)
}

func TestSceneRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewSceneRepository()

	scene, err := aggregates.NewScene("user-1", "Diagram")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, scene))

	require.NoError(t, repo.Delete(ctx, scene.ID()))

	_, err = repo.GetByID(ctx, scene.ID())
	assert.Error(t, err)

	scenes, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, scenes)

	assert.Error(t, repo.Delete(ctx, scene.ID()))
}
