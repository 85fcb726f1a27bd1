package valueobjects

// Provenance records how a graph entity came to exist. Exactly one variant
// applies per entity; earlier schema versions stored these as independent
// boolean flags and are converted on migration.
type Provenance string

const (
	ProvenanceUserDefined    Provenance = "user_defined"
	ProvenanceAIGenerated    Provenance = "ai_generated"
	ProvenanceHistorical     Provenance = "historical"
	ProvenanceDialectic      Provenance = "dialectic"
	ProvenanceCitation       Provenance = "citation"
	ProvenanceCounterExample Provenance = "counter_example"
)

// IsValid reports whether the value is a known variant
func (p Provenance) IsValid() bool {
	switch p {
	case ProvenanceUserDefined, ProvenanceAIGenerated, ProvenanceHistorical,
		ProvenanceDialectic, ProvenanceCitation, ProvenanceCounterExample:
		return true
	default:
		return false
	}
}

// IsAIDerived reports whether the entity was created by an enrichment
// workflow rather than a direct user action
func (p Provenance) IsAIDerived() bool {
	switch p {
	case ProvenanceAIGenerated, ProvenanceHistorical, ProvenanceDialectic, ProvenanceCounterExample:
		return true
	default:
		return false
	}
}

// ProvenanceFromFlags converts the legacy boolean-flag representation to a
// variant. Flags are checked from most to least specific so an entity that
// carried several flags collapses deterministically.
func ProvenanceFromFlags(isAIGenerated, isHistorical, isDialectic, isCitation, isCounterExample bool) Provenance {
	switch {
	case isCounterExample:
		return ProvenanceCounterExample
	case isCitation:
		return ProvenanceCitation
	case isDialectic:
		return ProvenanceDialectic
	case isHistorical:
		return ProvenanceHistorical
	case isAIGenerated:
		return ProvenanceAIGenerated
	default:
		return ProvenanceUserDefined
	}
}
