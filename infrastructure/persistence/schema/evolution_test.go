package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvolution_CurrentSchemaPassesThrough(t *testing.T) {
	payload := map[string]interface{}{
		"name":  "Payment Platform",
		"nodes": []interface{}{},
	}
	data, err := Marshal(payload)
	require.NoError(t, err)

	got, err := NewEvolution().Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "Payment Platform", got["name"])
}

func TestEvolution_UpgradesV1Snapshot(t *testing.T) {
	v1 := []byte(`{
		"schema_version": 1,
		"scene": {
			"title": "Legacy Diagram",
			"nodes": [
				{"id": "n1", "position": {"x": 10.0, "y": 20.0}}
			]
		}
	}`)

	got, err := NewEvolution().Unmarshal(v1)
	require.NoError(t, err)

	assert.Equal(t, "Legacy Diagram", got["name"])
	assert.NotContains(t, got, "title")

	nodes := got["nodes"].([]interface{})
	require.Len(t, nodes, 1)
	node := nodes[0].(map[string]interface{})
	assert.NotContains(t, node, "position")

	bounds := node["bounds"].(map[string]interface{})
	assert.Equal(t, 10.0, bounds["x"])
	assert.Equal(t, 20.0, bounds["y"])
	assert.Equal(t, 120.0, bounds["width"])
	assert.Equal(t, 60.0, bounds["height"])
}

func TestEvolution_MissingVersionDefaultsToV1(t *testing.T) {
	legacy := []byte(`{"scene": {"title": "Oldest"}}`)

	got, err := NewEvolution().Unmarshal(legacy)
	require.NoError(t, err)
	assert.Equal(t, "Oldest", got["name"])
}

func TestEvolution_RejectsNewerSchema(t *testing.T) {
	future := []byte(`{"schema_version": 99, "scene": {}}`)

	_, err := NewEvolution().Unmarshal(future)
	assert.Error(t, err)
}

func TestEvolution_Versions(t *testing.T) {
	assert.Equal(t, []int{1}, NewEvolution().Versions())
}
