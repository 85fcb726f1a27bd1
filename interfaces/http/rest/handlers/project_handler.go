package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptmap-backend/application/services"
	"conceptmap-backend/domain/core/valueobjects"
	"conceptmap-backend/pkg/common"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projects *services.ProjectService
	logger   *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// CreateProjectRequest is the request body for creating a project
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// RenameProjectRequest is the request body for renaming a project
type RenameProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.projects.ListProjects())
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	summary, err := h.projects.CreateProject(r.Context(), req.Name)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, summary)
}

// SwitchProject handles POST /projects/{projectID}/activate
func (h *ProjectHandler) SwitchProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if err := h.projects.SwitchProject(r.Context(), id); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"activeProjectId": id})
}

// RenameProject handles PUT /projects/{projectID}
func (h *ProjectHandler) RenameProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")

	var req RenameProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.projects.RenameProject(r.Context(), id, req.Name); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id, "name": req.Name})
}

// DeleteProject handles DELETE /projects/{projectID}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if err := h.projects.DeleteProject(r.Context(), id); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TrayRequest is the request body for tray membership changes
type TrayRequest struct {
	ConceptID string `json:"conceptId" validate:"required"`
}

// AddTrayConcept handles POST /session/tray
func (h *ProjectHandler) AddTrayConcept(w http.ResponseWriter, r *http.Request) {
	var req TrayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.projects.AddTrayConcept(r.Context(), valueobjects.NodeID(req.ConceptID)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTrayConcept handles DELETE /session/tray/{conceptID}
func (h *ProjectHandler) RemoveTrayConcept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conceptID")
	if err := h.projects.RemoveTrayConcept(r.Context(), valueobjects.NodeID(id)); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TrackFeedRequest is the request body for subscribing to a feed
type TrackFeedRequest struct {
	URL   string `json:"url" validate:"required,url"`
	Title string `json:"title"`
}

// TrackFeed handles POST /session/feeds
func (h *ProjectHandler) TrackFeed(w http.ResponseWriter, r *http.Request) {
	var req TrackFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.projects.TrackFeed(r.Context(), req.URL, req.Title); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UntrackFeed handles DELETE /session/feeds?url=...
func (h *ProjectHandler) UntrackFeed(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "url query parameter is required")
		return
	}

	if err := h.projects.UntrackFeed(r.Context(), url); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkSeenRequest is the request body for marking publications seen
type MarkSeenRequest struct {
	PublicationIDs []string `json:"publicationIds" validate:"required,min=1"`
}

// MarkPublicationsSeen handles POST /session/publications/seen
func (h *ProjectHandler) MarkPublicationsSeen(w http.ResponseWriter, r *http.Request) {
	var req MarkSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if err := h.projects.MarkPublicationsSeen(r.Context(), req.PublicationIDs); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRelationshipTypes handles GET /relationship-types
func (h *ProjectHandler) ListRelationshipTypes(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.projects.RelationshipTypes())
}

// AddRelationshipTypeRequest is the request body for a custom type
type AddRelationshipTypeRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=60"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// AddRelationshipType handles POST /relationship-types
func (h *ProjectHandler) AddRelationshipType(w http.ResponseWriter, r *http.Request) {
	var req AddRelationshipTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	def := valueobjects.RelationshipTypeDef{Name: req.Name, Color: req.Color, Description: req.Description}
	if err := h.projects.AddCustomRelationshipType(r.Context(), def); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, def)
}

// SetTypeDisabledRequest is the request body for toggling a type
type SetTypeDisabledRequest struct {
	Custom   bool `json:"custom"`
	Disabled bool `json:"disabled"`
}

// SetTypeDisabled handles PUT /relationship-types/{name}/disabled
func (h *ProjectHandler) SetTypeDisabled(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SetTypeDisabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	if err := h.projects.SetTypeDisabled(r.Context(), name, req.Custom, req.Disabled); err != nil {
		common.RespondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
