package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"conceptmap-backend/application/services"
)

// ExportHandler serves the map export projection
type ExportHandler struct {
	export *services.ExportService
	logger *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(export *services.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{export: export, logger: logger}
}

// ExportGraph handles GET /export. The document is served bare, not inside
// the API envelope, so it can be saved to a file as-is.
func (h *ExportHandler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	doc := h.export.ExportActiveProject()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="concept-map-export.json"`)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		h.logger.Error("encoding export failed", zap.Error(err))
	}
}
