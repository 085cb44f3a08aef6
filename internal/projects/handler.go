package projects

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehen20/dpr-auto/internal/enrich"
	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/merge"
	"github.com/lehen20/dpr-auto/pkg/handlers"
	"github.com/lehen20/dpr-auto/pkg/pagination"
	"github.com/lehen20/dpr-auto/pkg/routes"
)

// Handler provides HTTP endpoints for project record operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// MergeRequest carries per-document extractor outputs to attach and merge.
type MergeRequest struct {
	Documents []merge.DocumentFields `json:"documents"`
}

// UpdateFieldRequest is a human edit to one field of the record.
type UpdateFieldRequest struct {
	FieldPath string       `json:"field_path"`
	NewValue  fields.Value `json:"new_value"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pageCfg pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "projects"),
		pagination: pageCfg,
	}
}

// Routes returns the route group definition for project endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/projects",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/merge", Handler: h.Merge},
			{Method: "POST", Pattern: "/{id}/fields", Handler: h.UpdateField},
			{Method: "POST", Pattern: "/{id}/restore", Handler: h.Restore},
			{Method: "POST", Pattern: "/{id}/generate", Handler: h.Generate},
		},
	}
}

// List returns a paginated list of project records.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single project record.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	record, err := h.sys.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, record)
}

// Merge attaches document extraction outputs and re-consolidates the record.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	record, err := h.sys.MergeDocuments(r.Context(), r.PathValue("id"), req.Documents)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, record)
}

// UpdateField applies a human edit to one field by dot path.
func (h *Handler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req UpdateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	record, err := h.sys.UpdateField(r.Context(), r.PathValue("id"), req.FieldPath, req.NewValue)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, record)
}

// DraftResponse carries generated report sections for a project.
type DraftResponse struct {
	ProjectID string                `json:"project_id"`
	Sections  []enrich.DraftSection `json:"sections"`
}

// Generate drafts report sections from the consolidated record.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sections, err := h.sys.Generate(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, DraftResponse{ProjectID: id, Sections: sections})
}

// Restore replaces the record with its prior persisted version.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	record, err := h.sys.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, record)
}
