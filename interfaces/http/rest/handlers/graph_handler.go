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

// GraphHandler handles graph mutation HTTP requests for the active project
type GraphHandler struct {
	graph  *services.GraphService
	logger *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graph *services.GraphService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{graph: graph, logger: logger}
}

// linkKeyFromRequest resolves the ordered link key from the URL
func linkKeyFromRequest(r *http.Request) entities.LinkKey {
	return entities.LinkKey{
		Source: valueobjects.NodeID(chi.URLParam(r, "sourceID")),
		Target: valueobjects.NodeID(chi.URLParam(r, "targetID")),
	}
}

// GetGraph handles GET /graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.graph.Snapshot())
}

// PlaceNodeRequest is the request body for placing a concept on the map
type PlaceNodeRequest struct {
	ID   string  `json:"id" validate:"required"`
	Name string  `json:"name" validate:"required,min=1,max=300"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PlaceNode handles POST /graph/nodes
func (h *GraphHandler) PlaceNode(w http.ResponseWriter, r *http.Request) {
	var req PlaceNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	pos := valueobjects.Position{X: req.X, Y: req.Y}
	if err := h.graph.PlaceNode(r.Context(), valueobjects.NodeID(req.ID), req.Name, pos); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// DeleteNode handles DELETE /graph/nodes/{nodeID}
func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.NodeID(chi.URLParam(r, "nodeID"))
	if err := h.graph.DeleteNode(r.Context(), id); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNodeRequest is the request body for moving a node
type MoveNodeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MoveNode handles PUT /graph/nodes/{nodeID}/position
func (h *GraphHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.NodeID(chi.URLParam(r, "nodeID"))

	var req MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	if err := h.graph.MoveNode(r.Context(), id, valueobjects.Position{X: req.X, Y: req.Y}); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateNodeShapeRequest is the request body for changing a node's outline
type UpdateNodeShapeRequest struct {
	Shape string `json:"shape" validate:"required,oneof=rect circle"`
}

// UpdateNodeShape handles PUT /graph/nodes/{nodeID}/shape
func (h *GraphHandler) UpdateNodeShape(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.NodeID(chi.URLParam(r, "nodeID"))

	var req UpdateNodeShapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.graph.UpdateNodeShape(r.Context(), id, entities.NodeShape(req.Shape)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetNodeTextColorRequest is the request body for changing a node's label color
type SetNodeTextColorRequest struct {
	Color string `json:"color" validate:"required"`
}

// SetNodeTextColor handles PUT /graph/nodes/{nodeID}/color
func (h *GraphHandler) SetNodeTextColor(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.NodeID(chi.URLParam(r, "nodeID"))

	var req SetNodeTextColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.graph.SetNodeTextColor(r.Context(), id, req.Color); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameNodeRequest is the request body for renaming a node
type RenameNodeRequest struct {
	Name string `json:"name" validate:"required,min=1,max=300"`
}

// RenameNode handles PUT /graph/nodes/{nodeID}/name
func (h *GraphHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.NodeID(chi.URLParam(r, "nodeID"))

	var req RenameNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.graph.RenameNode(r.Context(), id, req.Name); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveNoteRequest is the request body for saving a node note
type SaveNoteRequest struct {
	Note string `json:"note"`
}

// SaveNote handles PUT /graph/nodes/{nodeID}/note
func (h *GraphHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.NodeID(chi.URLParam(r, "nodeID"))

	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	if err := h.graph.SaveNote(r.Context(), id, req.Note); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceIdentityRequest is the request body for repointing a node at a
// different catalog concept
type ReplaceIdentityRequest struct {
	NewID   string `json:"newId" validate:"required"`
	NewName string `json:"newName" validate:"required,min=1,max=300"`
}

// ReplaceNodeIdentity handles PUT /graph/nodes/{nodeID}/identity
func (h *GraphHandler) ReplaceNodeIdentity(w http.ResponseWriter, r *http.Request) {
	oldID := valueobjects.NodeID(chi.URLParam(r, "nodeID"))

	var req ReplaceIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.graph.ReplaceNodeIdentity(r.Context(), oldID, valueobjects.NodeID(req.NewID), req.NewName); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": req.NewID, "name": req.NewName})
}

// CreateLinkRequest is the request body for connecting two concepts
type CreateLinkRequest struct {
	SourceID          string   `json:"sourceId" validate:"required"`
	TargetID          string   `json:"targetId" validate:"required"`
	RelationshipTypes []string `json:"relationshipTypes"`
}

// CreateLink handles POST /graph/links
func (h *GraphHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	types := make([]valueobjects.RelationshipType, len(req.RelationshipTypes))
	for i, t := range req.RelationshipTypes {
		types[i] = valueobjects.RelationshipType(t)
	}

	err := h.graph.CreateLink(r.Context(), valueobjects.NodeID(req.SourceID), valueobjects.NodeID(req.TargetID), types)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]string{
		"sourceId": req.SourceID,
		"targetId": req.TargetID,
	})
}

// DeleteLink handles DELETE /graph/links/{sourceID}/{targetID}
func (h *GraphHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := h.graph.DeleteLink(r.Context(), linkKeyFromRequest(r)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateLinkTypesRequest is the request body for replacing a link's type set
type UpdateLinkTypesRequest struct {
	RelationshipTypes []string `json:"relationshipTypes"`
}

// UpdateLinkRelationshipTypes handles PUT /graph/links/{sourceID}/{targetID}/relationships
func (h *GraphHandler) UpdateLinkRelationshipTypes(w http.ResponseWriter, r *http.Request) {
	var req UpdateLinkTypesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	types := make([]valueobjects.RelationshipType, len(req.RelationshipTypes))
	for i, t := range req.RelationshipTypes {
		types[i] = valueobjects.RelationshipType(t)
	}

	if err := h.graph.UpdateLinkRelationshipTypes(r.Context(), linkKeyFromRequest(r), types); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePathStyleRequest is the request body for a link's path geometry
type UpdatePathStyleRequest struct {
	PathStyle string `json:"pathStyle" validate:"required,oneof=straight curved"`
}

// UpdateLinkPathStyle handles PUT /graph/links/{sourceID}/{targetID}/path-style
func (h *GraphHandler) UpdateLinkPathStyle(w http.ResponseWriter, r *http.Request) {
	var req UpdatePathStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.graph.UpdateLinkPathStyle(r.Context(), linkKeyFromRequest(r), entities.PathStyle(req.PathStyle)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PinCitationRequest is the request body for pinning a citation as a node
type PinCitationRequest struct {
	Title   string `json:"title" validate:"required"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// PinCitation handles POST /graph/links/{sourceID}/{targetID}/citations
func (h *GraphHandler) PinCitation(w http.ResponseWriter, r *http.Request) {
	var req PinCitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	citation := entities.Citation{Title: req.Title, Source: req.Source, URL: req.URL, Snippet: req.Snippet}
	if err := h.graph.PinCitation(r.Context(), linkKeyFromRequest(r), citation); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]string{"title": req.Title})
}

// PropositionRequest is one symbolized statement in a construct request
type PropositionRequest struct {
	Symbol    string `json:"symbol" validate:"required"`
	Statement string `json:"statement" validate:"required"`
}

// FormalizationCandidateRequest is one proposed formal rendering in a
// construct request
type FormalizationCandidateRequest struct {
	System         string `json:"system" validate:"required"`
	Representation string `json:"representation" validate:"required"`
	Rationale      string `json:"rationale"`
}

// CreateConstructRequest is the request body for a combined argument. The
// formalization fields carry the rendering the user picked plus the full
// candidate set it was picked from.
type CreateConstructRequest struct {
	PremiseNodeIDs       []string                        `json:"premiseNodeIds" validate:"required,min=1"`
	ConclusionNodeID     string                          `json:"conclusionNodeId" validate:"required"`
	FormalRepresentation string                          `json:"formalRepresentation"`
	SuggestedSystem      string                          `json:"suggestedSystem"`
	Rationale            string                          `json:"rationale"`
	Critique             string                          `json:"critique"`
	Propositions         []PropositionRequest            `json:"propositions" validate:"dive"`
	Candidates           []FormalizationCandidateRequest `json:"candidates" validate:"dive"`
}

// CreateLogicalConstruct handles POST /graph/constructs
func (h *GraphHandler) CreateLogicalConstruct(w http.ResponseWriter, r *http.Request) {
	var req CreateConstructRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	premises := make([]valueobjects.NodeID, len(req.PremiseNodeIDs))
	for i, p := range req.PremiseNodeIDs {
		premises[i] = valueobjects.NodeID(p)
	}

	choice := entities.FormalizationChoice{
		Representation: req.FormalRepresentation,
		System:         req.SuggestedSystem,
		Rationale:      req.Rationale,
		Critique:       req.Critique,
	}
	for _, p := range req.Propositions {
		choice.Propositions = append(choice.Propositions, entities.Proposition{
			Symbol:    p.Symbol,
			Statement: p.Statement,
		})
	}
	for _, c := range req.Candidates {
		choice.Candidates = append(choice.Candidates, entities.FormalizationCandidate{
			System:         c.System,
			Representation: c.Representation,
			Rationale:      c.Rationale,
		})
	}

	err := h.graph.CreateLogicalConstruct(r.Context(), premises, valueobjects.NodeID(req.ConclusionNodeID), choice)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
