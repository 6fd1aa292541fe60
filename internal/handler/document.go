package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"piuma/internal/domain/services"
	"piuma/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	workspace services.WorkspaceService
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(workspace services.WorkspaceService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		workspace: workspace,
		logger:    logger,
	}
}

// ListDocuments lists the documents the caller can open
// GET /api/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.workspace.ListDocuments(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}

// CreateDocument creates an empty document
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req services.CreateDocumentRequest
	if r.ContentLength != 0 {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	req.UserID = httputil.GetUserID(r)

	state, err := h.workspace.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, state)
}

// ImportDocument stores an encoded document sent as the request body
// POST /api/documents/import
func (h *DocumentHandler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	data, err := httputil.ReadBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := h.workspace.ImportDocument(r.Context(), data)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, state)
}

// GetDocument returns the whole tree and undo state of a document
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	state, err := h.workspace.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, state)
}

// ExportDocument downloads the canonical encoded document
// GET /api/documents/{id}/export
func (h *DocumentHandler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := h.workspace.ExportDocument(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.piuma"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write export", "id", id, "error", err)
	}
}

// SaveDocument writes unsaved changes to the store
// POST /api/documents/{id}/save
func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	meta, err := h.workspace.SaveDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, meta)
}

// DeleteDocument deletes a document
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.workspace.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Undo reverts the last undo step
// POST /api/documents/{id}/undo
func (h *DocumentHandler) Undo(w http.ResponseWriter, r *http.Request) {
	history, err := h.workspace.Undo(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, history)
}

// Redo reapplies the last undone step
// POST /api/documents/{id}/redo
func (h *DocumentHandler) Redo(w http.ResponseWriter, r *http.Request) {
	history, err := h.workspace.Redo(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, history)
}

// GetChanges returns the change journal after a sequence number
// GET /api/documents/{id}/changes?since=N
func (h *DocumentHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if s := r.URL.Query().Get("since"); s != "" {
		var err error
		if since, err = strconv.ParseUint(s, 10, 64); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
	}

	changes, err := h.workspace.Changes(r.Context(), r.PathValue("id"), since)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, changes)
}
