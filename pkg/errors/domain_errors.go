package errors

// Domain error codes for the concept-mapping core.
// Codes are stable identifiers the UI can switch on; messages may change.
const (
	CodeDuplicateLink       = "DUPLICATE_LINK"
	CodeNodeNotFound        = "NODE_NOT_FOUND"
	CodeLinkNotFound        = "LINK_NOT_FOUND"
	CodeProjectNotFound     = "PROJECT_NOT_FOUND"
	CodeConstructInvalid    = "CONSTRUCT_INVALID"
	CodeEnrichmentInFlight  = "ENRICHMENT_IN_FLIGHT"
	CodeSelfReferenceLink   = "SELF_REFERENCE_LINK"
	CodeGeneratorFailed     = "GENERATOR_FAILED"
	CodeMalformedGeneration = "MALFORMED_GENERATION"
)

// NewDuplicateLinkError reports an attempt to link an already linked node pair.
// The pair is checked in both directions: a pair of concepts carries at most
// one link regardless of which end initiated it.
func NewDuplicateLinkError(sourceID, targetID string) *AppError {
	return NewConflictError("these concepts are already linked").
		WithCode(CodeDuplicateLink).
		WithDetails(map[string]interface{}{
			"sourceId": sourceID,
			"targetId": targetID,
		})
}

// NewNodeNotFoundError reports a graph operation addressing a missing node
func NewNodeNotFoundError(nodeID string) *AppError {
	return NewNotFoundError("node").
		WithCode(CodeNodeNotFound).
		WithDetails(map[string]interface{}{"nodeId": nodeID})
}

// NewLinkNotFoundError reports a graph operation addressing a missing link
func NewLinkNotFoundError(sourceID, targetID string) *AppError {
	return NewNotFoundError("link").
		WithCode(CodeLinkNotFound).
		WithDetails(map[string]interface{}{
			"sourceId": sourceID,
			"targetId": targetID,
		})
}

// NewProjectNotFoundError reports an operation addressing a missing project
func NewProjectNotFoundError(projectID string) *AppError {
	return NewNotFoundError("project").
		WithCode(CodeProjectNotFound).
		WithDetails(map[string]interface{}{"projectId": projectID})
}

// NewConstructInvalidError reports a logical construct that violates the
// premises/conclusion shape rules
func NewConstructInvalidError(message string) *AppError {
	return NewValidationError(message).WithCode(CodeConstructInvalid)
}

// NewEnrichmentInFlightError reports a second enrichment request for a field
// that is already loading
func NewEnrichmentInFlightError(field string) *AppError {
	return NewConflictError("an enrichment for this field is already in flight").
		WithCode(CodeEnrichmentInFlight).
		WithDetails(map[string]interface{}{"field": field})
}
