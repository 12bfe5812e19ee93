package versioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
)

func buildScene(t *testing.T, nodeNames ...string) *aggregates.Scene {
	t.Helper()
	scene, err := aggregates.NewScene("user-1", "Diagram")
	require.NoError(t, err)
	for _, name := range nodeNames {
		label, err := valueobjects.NewLabel(name)
		require.NoError(t, err)
		bounds := valueobjects.NewBounds(valueobjects.NewPosition(0, 0), 120, 60)
		node, err := entities.NewNode(scene.ID().String(), entities.KindSystem, label, bounds)
		require.NoError(t, err)
		require.NoError(t, scene.AddNode(node))
	}
	return scene
}

func TestVersioningService_CreateVersion(t *testing.T) {
	service := NewVersioningService(10, true)
	scene := buildScene(t, "Orders", "Billing")

	version, err := service.CreateVersion(scene, "user-1", "before refactor")
	require.NoError(t, err)

	assert.Equal(t, scene.ID().String(), version.SceneID)
	assert.Equal(t, 2, version.NodeCount)
	assert.Equal(t, "before refactor", version.Description)
	assert.Len(t, version.Checksum, 64)

	_, err = service.CreateVersion(nil, "user-1", "")
	assert.Error(t, err)
}

func TestVersioningService_ChecksumIgnoresTiming(t *testing.T) {
	service := NewVersioningService(10, true)
	scene := buildScene(t, "Orders")

	first, err := service.CreateVersion(scene, "user-1", "a")
	require.NoError(t, err)
	second, err := service.CreateVersion(scene, "user-2", "b")
	require.NoError(t, err)

	// Same content, different author and description: same checksum
	assert.Equal(t, first.Checksum, second.Checksum)
}

func TestVersioningService_CompareVersions(t *testing.T) {
	service := NewVersioningService(10, true)

	now := time.Now()
	from := &SceneVersion{SceneID: "s1", Version: 1, NodeCount: 2, EdgeCount: 1, Checksum: "a", CreatedAt: now}
	to := &SceneVersion{SceneID: "s1", Version: 2, NodeCount: 5, EdgeCount: 1, Checksum: "b", CreatedAt: now.Add(time.Hour)}

	diff, err := service.CompareVersions(from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, diff.NodesDelta)
	assert.Equal(t, 0, diff.EdgesDelta)
	assert.False(t, diff.ContentEqual)
	assert.Equal(t, time.Hour, diff.TimeDiff)

	_, err = service.CompareVersions(from, &SceneVersion{SceneID: "other"})
	assert.Error(t, err)

	_, err = service.CompareVersions(nil, to)
	assert.Error(t, err)
}

func TestVersioningPolicy_ShouldCreateVersion(t *testing.T) {
	policy := DefaultVersioningPolicy()
	now := time.Now()

	// No prior checkpoint always triggers one
	assert.True(t, policy.ShouldCreateVersion(nil, 0, now))

	recent := &SceneVersion{NodeCount: 10, CreatedAt: now.Add(-time.Minute)}
	assert.False(t, policy.ShouldCreateVersion(recent, 12, now))

	// Large growth since the last checkpoint
	assert.True(t, policy.ShouldCreateVersion(recent, 10+policy.VersionOnNodeCount, now))

	// Long gap since the last checkpoint
	stale := &SceneVersion{NodeCount: 10, CreatedAt: now.Add(-2 * policy.VersionOnTimeElapsed)}
	assert.True(t, policy.ShouldCreateVersion(stale, 10, now))

	disabled := policy
	disabled.AutoVersion = false
	assert.False(t, disabled.ShouldCreateVersion(nil, 100, now))
}
