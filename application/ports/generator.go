package ports

import "context"

// GenerationRequest is one round trip to the external AI collaborator.
// Prompt content is opaque to the core; the fields exist so results can be
// audited through activity provenance.
type GenerationRequest struct {
	Model             string
	SystemInstruction string
	Prompt            string

	// WantJSON asks the collaborator for a JSON object response so the
	// caller can decode it into a structured result.
	WantJSON bool
}

// GenerationResult carries the collaborator's answer plus the raw response
// text for provenance logging
type GenerationResult struct {
	Text string
	Raw  string
}

// ContentGenerator is the request/response boundary with the external AI
// collaborator. Implementations must be safe for concurrent use: independent
// enrichments run and resolve in any order.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}
