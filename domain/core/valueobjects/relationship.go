package valueobjects

// RelationshipType labels the semantic relation a link carries.
// A link holds a non-empty set of these; an edit that would empty the set
// substitutes TypeUnclassified instead.
type RelationshipType string

const (
	TypeUnclassified   RelationshipType = "Unclassified"
	TypeSupportive     RelationshipType = "Supportive"
	TypeContradictory  RelationshipType = "Contradictory"
	TypeCausal         RelationshipType = "Causal"
	TypeDefinitional   RelationshipType = "Definitional"
	TypeHierarchical   RelationshipType = "Hierarchical"
	TypeAnalogical     RelationshipType = "Analogical"
	TypeCited          RelationshipType = "Cited"
	TypeHistorical     RelationshipType = "Historical"
	TypeDialectic      RelationshipType = "Dialectic"
	TypeCounterExample RelationshipType = "CounterExample"
)

// DefaultRelationshipTypes returns the built-in type set in display order
func DefaultRelationshipTypes() []RelationshipType {
	return []RelationshipType{
		TypeSupportive,
		TypeContradictory,
		TypeCausal,
		TypeDefinitional,
		TypeHierarchical,
		TypeAnalogical,
		TypeCited,
		TypeUnclassified,
	}
}

// NormalizeRelationshipTypes deduplicates a type set, preserving order, and
// coerces an empty result to [Unclassified]. This is the engine-level
// guarantee that relationshipTypes is never empty.
func NormalizeRelationshipTypes(types []RelationshipType) []RelationshipType {
	seen := make(map[RelationshipType]bool, len(types))
	out := make([]RelationshipType, 0, len(types))
	for _, t := range types {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}

	if len(out) == 0 {
		return []RelationshipType{TypeUnclassified}
	}
	return out
}

// RelationshipTypeDef is a user-defined relationship type registered at the
// session level
type RelationshipTypeDef struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}
