package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptmap-backend/application/services"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	"conceptmap-backend/pkg/common"
)

// EnrichmentHandler dispatches asynchronous AI enrichments. Every endpoint
// returns 202 once the workflow is accepted; results land in the graph and
// the project diary.
type EnrichmentHandler struct {
	enrichment *services.EnrichmentService
	logger     *zap.Logger
}

// NewEnrichmentHandler creates a new enrichment handler
func NewEnrichmentHandler(enrichment *services.EnrichmentService, logger *zap.Logger) *EnrichmentHandler {
	return &EnrichmentHandler{enrichment: enrichment, logger: logger}
}

// accepted reports a dispatched workflow
func accepted(w http.ResponseWriter) {
	common.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// dispatchLink runs one link-scoped workflow
func (h *EnrichmentHandler) dispatchLink(w http.ResponseWriter, r *http.Request, run func(r *http.Request, key entities.LinkKey) error) {
	key := linkKeyFromRequest(r)
	if err := run(r, key); err != nil {
		common.RespondAppError(w, err)
		return
	}
	accepted(w)
}

// GenerateJustification handles POST /graph/links/{sourceID}/{targetID}/justification
func (h *EnrichmentHandler) GenerateJustification(w http.ResponseWriter, r *http.Request) {
	h.dispatchLink(w, r, func(r *http.Request, key entities.LinkKey) error {
		return h.enrichment.GenerateJustification(r.Context(), key)
	})
}

// GenerateImplications handles POST /graph/links/{sourceID}/{targetID}/implications
func (h *EnrichmentHandler) GenerateImplications(w http.ResponseWriter, r *http.Request) {
	h.dispatchLink(w, r, func(r *http.Request, key entities.LinkKey) error {
		return h.enrichment.GenerateImplications(r.Context(), key)
	})
}

// FormalizeLink handles POST /graph/links/{sourceID}/{targetID}/formalization
func (h *EnrichmentHandler) FormalizeLink(w http.ResponseWriter, r *http.Request) {
	h.dispatchLink(w, r, func(r *http.Request, key entities.LinkKey) error {
		return h.enrichment.FormalizeLink(r.Context(), key)
	})
}

// AnalyzeArgument handles POST /graph/links/{sourceID}/{targetID}/argument-analysis
func (h *EnrichmentHandler) AnalyzeArgument(w http.ResponseWriter, r *http.Request) {
	h.dispatchLink(w, r, func(r *http.Request, key entities.LinkKey) error {
		return h.enrichment.AnalyzeArgument(r.Context(), key)
	})
}

// AnalyzeDefinition handles POST /graph/links/{sourceID}/{targetID}/definition-analysis
func (h *EnrichmentHandler) AnalyzeDefinition(w http.ResponseWriter, r *http.Request) {
	h.dispatchLink(w, r, func(r *http.Request, key entities.LinkKey) error {
		return h.enrichment.AnalyzeDefinition(r.Context(), key)
	})
}

// FindCounterExamples handles POST /graph/links/{sourceID}/{targetID}/counter-examples
func (h *EnrichmentHandler) FindCounterExamples(w http.ResponseWriter, r *http.Request) {
	h.dispatchLink(w, r, func(r *http.Request, key entities.LinkKey) error {
		return h.enrichment.FindCounterExamples(r.Context(), key)
	})
}

// GenerateGenealogy handles POST /graph/nodes/{nodeID}/genealogy
func (h *EnrichmentHandler) GenerateGenealogy(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.NodeID(chi.URLParam(r, "nodeID"))
	if err := h.enrichment.GenerateGenealogy(r.Context(), id); err != nil {
		common.RespondAppError(w, err)
		return
	}
	accepted(w)
}

// SynthesizeRequest is the request body for a region synthesis
type SynthesizeRequest struct {
	NodeIDs []string `json:"nodeIds" validate:"required,min=2"`
}

// SynthesizeRegion handles POST /graph/synthesize
func (h *EnrichmentHandler) SynthesizeRegion(w http.ResponseWriter, r *http.Request) {
	var req SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	ids := make([]valueobjects.NodeID, len(req.NodeIDs))
	for i, id := range req.NodeIDs {
		ids[i] = valueobjects.NodeID(id)
	}

	if err := h.enrichment.SynthesizeRegion(r.Context(), ids); err != nil {
		common.RespondAppError(w, err)
		return
	}
	accepted(w)
}
