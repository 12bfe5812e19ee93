package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/versioning"
	"archboard-backend/infrastructure/persistence/memory"
)

func newCheckpointFixture(t *testing.T) (*CheckpointService, *aggregates.Scene, ports.SceneRepository) {
	t.Helper()
	repo := memory.NewSceneRepository()
	scene := newTestScene(t)
	require.NoError(t, repo.Save(context.Background(), scene))

	service := NewCheckpointService(repo, versioning.NewVersioningService(10, true), zap.NewNop())
	return service, scene, repo
}

func TestCheckpointService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	service, scene, _ := newCheckpointFixture(t)
	addTestNode(t, scene, "Orders")

	version, err := service.Create(ctx, scene.ID(), "user-1", "initial layout")
	require.NoError(t, err)

	assert.Equal(t, scene.ID().String(), version.SceneID)
	assert.Equal(t, 1, version.NodeCount)
	assert.NotEmpty(t, version.Checksum)
	assert.Equal(t, "initial layout", version.Description)

	listed := service.List(scene.ID())
	require.Len(t, listed, 1)
	assert.Equal(t, version.Checksum, listed[0].Checksum)
}

func TestCheckpointService_CreateUnknownScene(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newCheckpointFixture(t)

	_, err := service.Create(ctx, "missing", "user-1", "")
	assert.Error(t, err)
}

func TestCheckpointService_ChecksumTracksContent(t *testing.T) {
	ctx := context.Background()
	service, scene, _ := newCheckpointFixture(t)
	addTestNode(t, scene, "Orders")

	first, err := service.Create(ctx, scene.ID(), "user-1", "")
	require.NoError(t, err)

	// Nothing changed between the two checkpoints
	second, err := service.Create(ctx, scene.ID(), "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, first.Checksum, second.Checksum)

	addTestNode(t, scene, "Billing")
	third, err := service.Create(ctx, scene.ID(), "user-1", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Checksum, third.Checksum)
}

func TestCheckpointService_Diff(t *testing.T) {
	ctx := context.Background()
	service, scene, _ := newCheckpointFixture(t)

	first, err := service.Create(ctx, scene.ID(), "user-1", "")
	require.NoError(t, err)

	addTestNode(t, scene, "Orders")
	addTestNode(t, scene, "Billing")
	second, err := service.Create(ctx, scene.ID(), "user-1", "")
	require.NoError(t, err)

	diff, err := service.Diff(scene.ID(), first.Version, second.Version)
	require.NoError(t, err)
	assert.Equal(t, 2, diff.NodesDelta)
	assert.Equal(t, 0, diff.EdgesDelta)
	assert.False(t, diff.ContentEqual)
}

func TestCheckpointService_DiffMissingVersion(t *testing.T) {
	service, scene, _ := newCheckpointFixture(t)

	_, err := service.Diff(scene.ID(), 1, 99)
	assert.Error(t, err)
}
