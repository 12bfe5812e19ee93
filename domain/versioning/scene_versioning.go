package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"archboard-backend/domain/core/aggregates"
)

// SceneVersion is a named checkpoint of a scene. The checksum covers the
// diagram content, so two checkpoints with equal checksums describe the
// same drawing regardless of when they were taken.
type SceneVersion struct {
	SceneID     string    `json:"scene_id"`
	Version     int       `json:"version"`
	Checksum    string    `json:"checksum"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	Description string    `json:"description"`
}

// VersioningService creates and compares scene checkpoints
type VersioningService struct {
	maxVersions int
	autoVersion bool
}

// NewVersioningService creates a versioning service
func NewVersioningService(maxVersions int, autoVersion bool) *VersioningService {
	return &VersioningService{
		maxVersions: maxVersions,
		autoVersion: autoVersion,
	}
}

// CreateVersion creates a checkpoint of a scene
func (s *VersioningService) CreateVersion(
	scene *aggregates.Scene,
	userID string,
	description string,
) (*SceneVersion, error) {
	if scene == nil {
		return nil, fmt.Errorf("scene cannot be nil")
	}

	checksum, err := s.calculateChecksum(scene)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return &SceneVersion{
		SceneID:     string(scene.ID()),
		Version:     scene.Version() + 1,
		Checksum:    checksum,
		NodeCount:   scene.NodeCount(),
		EdgeCount:   scene.EdgeCount(),
		CreatedAt:   time.Now(),
		CreatedBy:   userID,
		Description: description,
	}, nil
}

// CompareVersions summarizes what changed between two checkpoints
func (s *VersioningService) CompareVersions(from, to *SceneVersion) (*VersionDiff, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("versions cannot be nil")
	}
	if from.SceneID != to.SceneID {
		return nil, fmt.Errorf("versions belong to different scenes")
	}

	return &VersionDiff{
		FromVersion:  from.Version,
		ToVersion:    to.Version,
		NodesDelta:   to.NodeCount - from.NodeCount,
		EdgesDelta:   to.EdgeCount - from.EdgeCount,
		ContentEqual: from.Checksum == to.Checksum,
		TimeDiff:     to.CreatedAt.Sub(from.CreatedAt),
	}, nil
}

// calculateChecksum hashes a deterministic representation of the diagram.
// Nodes and edges are sorted by ID because the aggregate stores them in maps.
func (s *VersioningService) calculateChecksum(scene *aggregates.Scene) (string, error) {
	type nodeDigest struct {
		ID     string  `json:"id"`
		Kind   string  `json:"kind"`
		Name   string  `json:"name"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"w"`
		Height float64 `json:"h"`
	}
	type edgeDigest struct {
		ID     string `json:"id"`
		Source string `json:"source"`
		Target string `json:"target"`
		Label  string `json:"label"`
	}

	nodes := scene.GetNodes()
	nodeDigests := make([]nodeDigest, 0, len(nodes))
	for _, node := range nodes {
		bounds := node.Bounds()
		nodeDigests = append(nodeDigests, nodeDigest{
			ID:     node.ID().String(),
			Kind:   string(node.Kind()),
			Name:   node.Name().String(),
			X:      bounds.Origin.X,
			Y:      bounds.Origin.Y,
			Width:  bounds.Width,
			Height: bounds.Height,
		})
	}
	sort.Slice(nodeDigests, func(i, j int) bool { return nodeDigests[i].ID < nodeDigests[j].ID })

	edges := scene.GetEdges()
	edgeDigests := make([]edgeDigest, 0, len(edges))
	for _, edge := range edges {
		edgeDigests = append(edgeDigests, edgeDigest{
			ID:     edge.ID().String(),
			Source: edge.SourceID().String(),
			Target: edge.TargetID().String(),
			Label:  edge.Label(),
		})
	}
	sort.Slice(edgeDigests, func(i, j int) bool { return edgeDigests[i].ID < edgeDigests[j].ID })

	payload, err := json.Marshal(struct {
		ID    string       `json:"id"`
		Nodes []nodeDigest `json:"nodes"`
		Edges []edgeDigest `json:"edges"`
	}{
		ID:    string(scene.ID()),
		Nodes: nodeDigests,
		Edges: edgeDigests,
	})
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:]), nil
}

// VersionDiff summarizes the difference between two checkpoints
type VersionDiff struct {
	FromVersion  int           `json:"from_version"`
	ToVersion    int           `json:"to_version"`
	NodesDelta   int           `json:"nodes_delta"`
	EdgesDelta   int           `json:"edges_delta"`
	ContentEqual bool          `json:"content_equal"`
	TimeDiff     time.Duration `json:"time_diff"`
}

// VersioningPolicy decides when a checkpoint should be taken automatically
type VersioningPolicy struct {
	AutoVersion          bool          `json:"auto_version"`
	MaxVersions          int           `json:"max_versions"`
	RetentionPeriod      time.Duration `json:"retention_period"`
	VersionOnNodeCount   int           `json:"version_on_node_count"`
	VersionOnTimeElapsed time.Duration `json:"version_on_time_elapsed"`
}

// DefaultVersioningPolicy returns the default checkpoint policy
func DefaultVersioningPolicy() VersioningPolicy {
	return VersioningPolicy{
		AutoVersion:          true,
		MaxVersions:          10,
		RetentionPeriod:      30 * 24 * time.Hour,
		VersionOnNodeCount:   25,
		VersionOnTimeElapsed: 24 * time.Hour,
	}
}

// ShouldCreateVersion reports whether a new checkpoint is due
func (p *VersioningPolicy) ShouldCreateVersion(
	lastVersion *SceneVersion,
	currentNodeCount int,
	currentTime time.Time,
) bool {
	if !p.AutoVersion {
		return false
	}

	if lastVersion == nil {
		return true
	}

	if currentNodeCount-lastVersion.NodeCount >= p.VersionOnNodeCount {
		return true
	}

	return currentTime.Sub(lastVersion.CreatedAt) >= p.VersionOnTimeElapsed
}
