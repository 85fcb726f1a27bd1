package entities

import (
	"conceptmap-backend/domain/core/valueobjects"
)

// PathStyle is the rendered geometry of a link
type PathStyle string

const (
	PathStraight PathStyle = "straight"
	PathCurved   PathStyle = "curved"
)

// LinkKey is the identity of a link: the ordered (source, target) pair.
// At most one link exists per ordered pair, and the mutation engine further
// guarantees at most one link per unordered pair.
type LinkKey struct {
	Source valueobjects.NodeID
	Target valueobjects.NodeID
}

// Reversed returns the key with endpoints swapped
func (k LinkKey) Reversed() LinkKey {
	return LinkKey{Source: k.Target, Target: k.Source}
}

// Justification is the structured rationale for a link
type Justification struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// Implications holds AI-derived consequences of accepting a link
type Implications struct {
	Text      string   `json:"text"`
	Questions []string `json:"questions,omitempty"`
}

// FormalRepresentation is a link's rendering in a formal system
type FormalRepresentation struct {
	Notation  string `json:"notation"`
	System    string `json:"system,omitempty"`
	Rationale string `json:"rationale,omitempty"`
}

// MapLink is a typed relationship between two nodes. RelationshipTypes is
// never empty: edits that would empty it substitute Unclassified.
type MapLink struct {
	Source valueobjects.NodeID `json:"source"`
	Target valueobjects.NodeID `json:"target"`

	PathStyle         PathStyle                       `json:"pathStyle"`
	RelationshipTypes []valueobjects.RelationshipType `json:"relationshipTypes"`
	Provenance        valueobjects.Provenance         `json:"provenance"`

	Justification      *Justification               `json:"justification,omitempty"`
	JustificationState valueobjects.EnrichmentState `json:"justificationState"`

	Implications      *Implications                `json:"implications,omitempty"`
	ImplicationsState valueobjects.EnrichmentState `json:"implicationsState"`

	FormalRepresentation *FormalRepresentation        `json:"formalRepresentation,omitempty"`
	FormalizationState   valueobjects.EnrichmentState `json:"formalizationState"`

	// Generation is bumped when either endpoint's identity is rewritten, so
	// stale enrichment completions never land on a recycled key.
	Generation uint64 `json:"generation"`
}

// NewMapLink creates a link with all enrichment fields idle
func NewMapLink(source, target valueobjects.NodeID, types []valueobjects.RelationshipType) MapLink {
	return MapLink{
		Source:             source,
		Target:             target,
		PathStyle:          PathStraight,
		RelationshipTypes:  valueobjects.NormalizeRelationshipTypes(types),
		Provenance:         valueobjects.ProvenanceUserDefined,
		JustificationState: valueobjects.EnrichmentIdle,
		ImplicationsState:  valueobjects.EnrichmentIdle,
		FormalizationState: valueobjects.EnrichmentIdle,
	}
}

// Key returns the link's identity key
func (l *MapLink) Key() LinkKey {
	return LinkKey{Source: l.Source, Target: l.Target}
}

// Connects reports whether the link touches both ids, in either direction
func (l *MapLink) Connects(a, b valueobjects.NodeID) bool {
	return (l.Source == a && l.Target == b) || (l.Source == b && l.Target == a)
}

// Touches reports whether the link has the id as either endpoint
func (l *MapLink) Touches(id valueobjects.NodeID) bool {
	return l.Source == id || l.Target == id
}

// StateOf returns the enrichment state for one of the link's enrichable
// fields; unknown fields read as idle
func (l *MapLink) StateOf(field valueobjects.EnrichmentField) valueobjects.EnrichmentState {
	switch field {
	case valueobjects.FieldJustification:
		return l.JustificationState.OrIdle()
	case valueobjects.FieldImplications:
		return l.ImplicationsState.OrIdle()
	case valueobjects.FieldFormalization:
		return l.FormalizationState.OrIdle()
	default:
		return valueobjects.EnrichmentIdle
	}
}

// SetStateOf updates the enrichment state for one of the link's enrichable
// fields; unknown fields are ignored
func (l *MapLink) SetStateOf(field valueobjects.EnrichmentField, state valueobjects.EnrichmentState) {
	switch field {
	case valueobjects.FieldJustification:
		l.JustificationState = state
	case valueobjects.FieldImplications:
		l.ImplicationsState = state
	case valueobjects.FieldFormalization:
		l.FormalizationState = state
	}
}
