package entities

import (
	"conceptmap-backend/domain/core/valueobjects"
)

// NodeShape is the rendered outline of a node
type NodeShape string

const (
	ShapeRect   NodeShape = "rect"
	ShapeCircle NodeShape = "circle"
)

// Citation is a bibliographic reference attached to a justification or
// pinned as its own node
type Citation struct {
	Title   string `json:"title"`
	Source  string `json:"source,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// SynthesisInfo explains how a synthesized concept was derived from a
// selected region of the map
type SynthesisInfo struct {
	Explanation      string                 `json:"explanation"`
	SourceConceptIDs []valueobjects.NodeID  `json:"sourceConceptIds,omitempty"`
}

// MapNode is one concept placed on a project's map. The id either references
// the external concept catalog or is a locally minted synthetic id; it is
// unique within a graph.
type MapNode struct {
	ID         valueobjects.NodeID    `json:"id"`
	Name       string                 `json:"name"`
	X          float64                `json:"x"`
	Y          float64                `json:"y"`
	Shape      NodeShape              `json:"shape"`
	Width      float64                `json:"width"`
	Height     float64                `json:"height"`
	TextColor  string                 `json:"textColor,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Provenance valueobjects.Provenance `json:"provenance"`

	SynthesisInfo *SynthesisInfo `json:"synthesisInfo,omitempty"`
	CitationData  *Citation      `json:"citationData,omitempty"`

	// Generation is bumped whenever the node's identity is structurally
	// replaced. Enrichment completions carry the generation they were issued
	// against and are discarded on mismatch.
	Generation uint64 `json:"generation"`
}

// DefaultNodeWidth and DefaultNodeHeight size freshly minted nodes
const (
	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 60.0
)

// NewMapNode creates a user-placed node at a position
func NewMapNode(id valueobjects.NodeID, name string, pos valueobjects.Position) MapNode {
	return MapNode{
		ID:         id,
		Name:       name,
		X:          pos.X,
		Y:          pos.Y,
		Shape:      ShapeRect,
		Width:      DefaultNodeWidth,
		Height:     DefaultNodeHeight,
		Provenance: valueobjects.ProvenanceUserDefined,
	}
}

// NewDerivedNode creates a node minted by an enrichment workflow
func NewDerivedNode(name string, pos valueobjects.Position, provenance valueobjects.Provenance) MapNode {
	node := NewMapNode(valueobjects.NewSyntheticNodeID(), name, pos)
	node.Provenance = provenance
	return node
}

// Position returns the node's map position
func (n *MapNode) Position() valueobjects.Position {
	return valueobjects.Position{X: n.X, Y: n.Y}
}

// ReplaceIdentity repoints the node at a different catalog concept.
// Provenance resets to user-defined and the generation stamp advances so any
// in-flight enrichment issued against the old identity is discarded.
func (n *MapNode) ReplaceIdentity(newID valueobjects.NodeID, newName string) {
	n.ID = newID
	n.Name = newName
	n.Provenance = valueobjects.ProvenanceUserDefined
	n.SynthesisInfo = nil
	n.CitationData = nil
	n.Generation++
}
