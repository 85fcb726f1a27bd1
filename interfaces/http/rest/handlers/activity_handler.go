package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"conceptmap-backend/application/services"
	"conceptmap-backend/pkg/common"
)

// ActivityHandler serves the active project's diary
type ActivityHandler struct {
	projects *services.ProjectService
	logger   *zap.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(projects *services.ProjectService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{projects: projects, logger: logger}
}

// ListActivity handles GET /activity. Entries come back newest first.
func (h *ActivityHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r)
	diary := h.projects.Diary()

	start := params.Offset()
	if start > len(diary) {
		start = len(diary)
	}
	end := start + params.PageSize
	if end > len(diary) {
		end = len(diary)
	}

	meta := &common.MetaInfo{
		Pagination: common.BuildPaginationMeta(params, len(diary)),
	}
	common.RespondWithMeta(w, http.StatusOK, diary[start:end], meta)
}
