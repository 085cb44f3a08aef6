package pipeline

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lehen20/dpr-auto/internal/documents"
	"github.com/lehen20/dpr-auto/pkg/handlers"
	"github.com/lehen20/dpr-auto/pkg/pagination"
	"github.com/lehen20/dpr-auto/pkg/routes"
)

// Handler provides HTTP endpoints for extraction runs.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// RunRequest starts an extraction run for one document against a project.
type RunRequest struct {
	DocumentID uuid.UUID `json:"document_id"`
	ProjectID  string    `json:"project_id"`
}

// ExtractRequest asks for a synchronous extraction of one document.
type ExtractRequest struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pageCfg pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "runs"),
		pagination: pageCfg,
	}
}

// Routes returns the route group definition for run endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/runs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Start},
			{Method: "POST", Pattern: "/extract", Handler: h.Extract},
			{Method: "POST", Pattern: "/{id}/resume", Handler: h.Resume},
		},
	}
}

// List returns a paginated list of run records, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single run record.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	rec, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Start executes the extraction graph for a document and returns the
// finished run record.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rec, err := h.sys.Run(r.Context(), req.DocumentID, req.ProjectID)
	if err != nil {
		handlers.RespondError(w, h.logger, runStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rec)
}

// Extract runs the deterministic extractors for one document and
// returns the raw fields without starting a workflow run.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Extract(r.Context(), req.DocumentID)
	if err != nil {
		handlers.RespondError(w, h.logger, runStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Resume restarts a run from its last checkpoint.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	rec, err := h.sys.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// runStatus maps start errors, which can also come from the documents
// domain, to HTTP status codes.
func runStatus(err error) int {
	if status := documents.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return MapHTTPStatus(err)
}
