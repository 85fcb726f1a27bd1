package valueobjects

// EnrichmentState tracks one asynchronous AI-driven augmentation field on a
// graph entity: idle → loading → success | error.
type EnrichmentState string

const (
	EnrichmentIdle    EnrichmentState = "idle"
	EnrichmentLoading EnrichmentState = "loading"
	EnrichmentSuccess EnrichmentState = "success"
	EnrichmentError   EnrichmentState = "error"
)

// CanStart reports whether a new request may be dispatched for this field.
// At most one enrichment is in flight per field per entity; a request while
// loading is rejected, not queued.
func (s EnrichmentState) CanStart() bool {
	return s != EnrichmentLoading
}

// IsTerminal reports whether the field has settled
func (s EnrichmentState) IsTerminal() bool {
	return s == EnrichmentSuccess || s == EnrichmentError
}

// OrIdle backfills a zero state to idle after deserialization
func (s EnrichmentState) OrIdle() EnrichmentState {
	if s == "" {
		return EnrichmentIdle
	}
	return s
}

// EnrichmentField names one enrichable field or workflow
type EnrichmentField string

const (
	FieldJustification      EnrichmentField = "justification"
	FieldImplications       EnrichmentField = "implications"
	FieldFormalization      EnrichmentField = "formalization"
	FieldArgumentAnalysis   EnrichmentField = "argument_analysis"
	FieldDefinitionAnalysis EnrichmentField = "definition_analysis"
	FieldGenealogy          EnrichmentField = "genealogy"
	FieldSynthesis          EnrichmentField = "synthesis"
	FieldCounterExamples    EnrichmentField = "counter_examples"
)
