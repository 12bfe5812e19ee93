package valueobjects

import "fmt"

// ElementType distinguishes the two kinds of scene elements
type ElementType string

const (
	ElementTypeNode ElementType = "node"
	ElementTypeEdge ElementType = "edge"
)

// ParseElementType converts a string into an ElementType
func ParseElementType(s string) (ElementType, error) {
	switch ElementType(s) {
	case ElementTypeNode, ElementTypeEdge:
		return ElementType(s), nil
	default:
		return "", fmt.Errorf("unknown element type %q", s)
	}
}

// ElementRef identifies a scene element together with its kind. The selection
// set and the deletion history hold references only, never the entities
// themselves.
type ElementRef struct {
	ID   ElementID   `json:"id"`
	Type ElementType `json:"type"`
}

// NewElementRef creates a reference to an element
func NewElementRef(id ElementID, elementType ElementType) ElementRef {
	return ElementRef{ID: id, Type: elementType}
}

// NodeRef creates a reference to a node element
func NodeRef(id ElementID) ElementRef {
	return ElementRef{ID: id, Type: ElementTypeNode}
}

// EdgeRef creates a reference to an edge element
func EdgeRef(id ElementID) ElementRef {
	return ElementRef{ID: id, Type: ElementTypeEdge}
}

// IsNode reports whether the reference points at a node
func (r ElementRef) IsNode() bool {
	return r.Type == ElementTypeNode
}

// Equals checks if two references point at the same element
func (r ElementRef) Equals(other ElementRef) bool {
	return r.ID.Equals(other.ID) && r.Type == other.Type
}

// String returns a human-readable representation, used in logs
func (r ElementRef) String() string {
	return string(r.Type) + ":" + r.ID.String()
}
