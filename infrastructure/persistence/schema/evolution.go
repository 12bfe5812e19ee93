package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// CurrentSnapshotVersion is the schema version written by scene exports
const CurrentSnapshotVersion = 2

// MigrationFunc upgrades a snapshot payload by one schema version
type MigrationFunc func(payload map[string]interface{}) (map[string]interface{}, error)

// Evolution upgrades exported scene snapshots written by older builds to
// the current schema before they are imported. Each migration moves the
// payload up exactly one version.
type Evolution struct {
	migrations map[int]MigrationFunc
}

// NewEvolution creates an evolution chain with the built-in migrations
func NewEvolution() *Evolution {
	e := &Evolution{migrations: make(map[int]MigrationFunc)}

	// v1 snapshots used "title" for the scene name and stored node geometry
	// as a flat position without extents
	e.Register(1, migrateV1ToV2)

	return e
}

// Register installs the migration that upgrades fromVersion to fromVersion+1
func (e *Evolution) Register(fromVersion int, fn MigrationFunc) {
	e.migrations[fromVersion] = fn
}

// Versions lists the schema versions migrations exist for, in order
func (e *Evolution) Versions() []int {
	versions := make([]int, 0, len(e.migrations))
	for v := range e.migrations {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}

// envelope wraps a snapshot payload with its schema version
type envelope struct {
	SchemaVersion int                    `json:"schema_version"`
	Scene         map[string]interface{} `json:"scene"`
}

// Marshal wraps a snapshot payload with the current schema version
func Marshal(scene map[string]interface{}) ([]byte, error) {
	return json.Marshal(envelope{
		SchemaVersion: CurrentSnapshotVersion,
		Scene:         scene,
	})
}

// Unmarshal decodes a snapshot and upgrades it to the current schema
func (e *Evolution) Unmarshal(data []byte) (map[string]interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if env.SchemaVersion == 0 {
		env.SchemaVersion = 1
	}
	if env.SchemaVersion > CurrentSnapshotVersion {
		return nil, fmt.Errorf("snapshot schema v%d is newer than supported v%d",
			env.SchemaVersion, CurrentSnapshotVersion)
	}

	payload := env.Scene
	for version := env.SchemaVersion; version < CurrentSnapshotVersion; version++ {
		migrate, exists := e.migrations[version]
		if !exists {
			return nil, fmt.Errorf("no migration from snapshot schema v%d", version)
		}
		upgraded, err := migrate(payload)
		if err != nil {
			return nil, fmt.Errorf("migration from v%d failed: %w", version, err)
		}
		payload = upgraded
	}

	return payload, nil
}

func migrateV1ToV2(payload map[string]interface{}) (map[string]interface{}, error) {
	if title, ok := payload["title"]; ok {
		payload["name"] = title
		delete(payload, "title")
	}

	nodes, ok := payload["nodes"].([]interface{})
	if !ok {
		return payload, nil
	}

	for _, raw := range nodes {
		node, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		position, ok := node["position"].(map[string]interface{})
		if !ok {
			continue
		}
		node["bounds"] = map[string]interface{}{
			"x":      position["x"],
			"y":      position["y"],
			"width":  float64(120),
			"height": float64(60),
		}
		delete(node, "position")
	}

	return payload, nil
}
