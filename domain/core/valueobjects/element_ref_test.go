package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementRef_Equals(t *testing.T) {
	id := NewElementID()
	other := NewElementID()

	assert.True(t, NodeRef(id).Equals(NodeRef(id)))
	assert.False(t, NodeRef(id).Equals(NodeRef(other)))

	// Same ID under a different type is a different reference
	assert.False(t, NodeRef(id).Equals(EdgeRef(id)))
}

func TestParseElementType(t *testing.T) {
	parsed, err := ParseElementType("node")
	require.NoError(t, err)
	assert.Equal(t, ElementTypeNode, parsed)

	parsed, err = ParseElementType("edge")
	require.NoError(t, err)
	assert.Equal(t, ElementTypeEdge, parsed)

	_, err = ParseElementType("scene")
	assert.Error(t, err)
}
