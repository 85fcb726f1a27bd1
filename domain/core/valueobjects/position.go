package valueobjects

import "math"

// Position is a point in map coordinates
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Midpoint returns the point halfway between two positions.
// Used when pinning a citation node onto an existing link.
func Midpoint(a, b Position) Position {
	return Position{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
	}
}

// Centroid returns the average of a set of positions.
// A synthesized region concept is placed at the centroid of its sources.
// Returns the zero position for an empty set.
func Centroid(points []Position) Position {
	if len(points) == 0 {
		return Position{}
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	return Position{
		X: sumX / float64(len(points)),
		Y: sumY / float64(len(points)),
	}
}

// RadialAround distributes count positions evenly on a circle around a
// center point. Genealogy precursors and successors fan out this way.
func RadialAround(center Position, radius float64, count int) []Position {
	if count <= 0 {
		return nil
	}

	positions := make([]Position, count)
	step := 2 * math.Pi / float64(count)
	for i := 0; i < count; i++ {
		angle := step * float64(i)
		positions[i] = Position{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		}
	}
	return positions
}

// Offset returns the position shifted by dx, dy.
// Dialectic voices and counter-example nodes are offset from their anchor.
func (p Position) Offset(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}
