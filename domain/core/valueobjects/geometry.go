package valueobjects

// Position is a point on the canvas in diagram coordinates
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Equals checks positional equality
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// Bounds is the axis-aligned display rectangle of a node
type Bounds struct {
	Origin Position `json:"origin"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

// NewBounds creates bounds from origin and size
func NewBounds(origin Position, width, height float64) Bounds {
	return Bounds{Origin: origin, Width: width, Height: height}
}

// Center returns the geometric center of the bounds
func (b Bounds) Center() Position {
	return Position{X: b.Origin.X + b.Width/2, Y: b.Origin.Y + b.Height/2}
}

// Equals checks bounds equality
func (b Bounds) Equals(other Bounds) bool {
	return b.Origin.Equals(other.Origin) && b.Width == other.Width && b.Height == other.Height
}

// IsZero reports whether the bounds carry no size
func (b Bounds) IsZero() bool {
	return b.Width == 0 && b.Height == 0
}
