package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/versioning"
)

// CheckpointService records named checkpoints of scenes so users can see
// how a diagram evolved. Checkpoints are descriptors with a content
// checksum, not full snapshots; use the export endpoint for those.
type CheckpointService struct {
	mu         sync.RWMutex
	repo       ports.SceneRepository
	versioning *versioning.VersioningService
	policy     versioning.VersioningPolicy
	byScene    map[aggregates.SceneID][]*versioning.SceneVersion
	maxPerScene int
	logger     *zap.Logger
}

// NewCheckpointService creates a checkpoint service
func NewCheckpointService(repo ports.SceneRepository, service *versioning.VersioningService, logger *zap.Logger) *CheckpointService {
	return &CheckpointService{
		repo:        repo,
		versioning:  service,
		policy:      versioning.DefaultVersioningPolicy(),
		byScene:     make(map[aggregates.SceneID][]*versioning.SceneVersion),
		maxPerScene: 50,
		logger:      logger,
	}
}

// Create records a checkpoint of the scene's current content
func (s *CheckpointService) Create(ctx context.Context, sceneID aggregates.SceneID, userID, description string) (*versioning.SceneVersion, error) {
	scene, err := s.repo.GetByID(ctx, sceneID)
	if err != nil {
		return nil, err
	}

	version, err := s.versioning.CreateVersion(scene, userID, description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	history := append(s.byScene[sceneID], version)
	if len(history) > s.maxPerScene {
		history = history[len(history)-s.maxPerScene:]
	}
	s.byScene[sceneID] = history
	s.mu.Unlock()

	s.logger.Info("checkpoint created",
		zap.String("sceneID", string(sceneID)),
		zap.Int("version", version.Version),
		zap.String("checksum", version.Checksum),
	)

	return version, nil
}

// List returns the recorded checkpoints of a scene, oldest first
func (s *CheckpointService) List(sceneID aggregates.SceneID) []*versioning.SceneVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byScene[sceneID]
	out := make([]*versioning.SceneVersion, len(history))
	copy(out, history)
	return out
}

// Diff compares two recorded checkpoints of a scene
func (s *CheckpointService) Diff(sceneID aggregates.SceneID, fromVersion, toVersion int) (*versioning.VersionDiff, error) {
	s.mu.RLock()
	var from, to *versioning.SceneVersion
	for _, v := range s.byScene[sceneID] {
		if v.Version == fromVersion {
			from = v
		}
		if v.Version == toVersion {
			to = v
		}
	}
	s.mu.RUnlock()

	if from == nil {
		return nil, fmt.Errorf("checkpoint %d not found", fromVersion)
	}
	if to == nil {
		return nil, fmt.Errorf("checkpoint %d not found", toVersion)
	}

	return s.versioning.CompareVersions(from, to)
}

// MaybeCreate records a checkpoint when the versioning policy calls for one,
// such as after large edits or long gaps between checkpoints
func (s *CheckpointService) MaybeCreate(ctx context.Context, sceneID aggregates.SceneID, userID string, nodeCount int) (*versioning.SceneVersion, error) {
	s.mu.RLock()
	history := s.byScene[sceneID]
	var last *versioning.SceneVersion
	if len(history) > 0 {
		last = history[len(history)-1]
	}
	s.mu.RUnlock()

	if !s.policy.ShouldCreateVersion(last, nodeCount, time.Now()) {
		return nil, nil
	}
	return s.Create(ctx, sceneID, userID, "auto checkpoint")
}
