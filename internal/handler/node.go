package handler

import (
	"log/slog"
	"net/http"

	"piuma/internal/domain/services"
	"piuma/internal/httputil"
)

// NodeHandler handles HTTP requests for the nodes of a document
type NodeHandler struct {
	workspace services.WorkspaceService
	logger    *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(workspace services.WorkspaceService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		workspace: workspace,
		logger:    logger,
	}
}

// updateNodeBody is the PATCH body. url uses OptionalString so that null
// clears the URL while an absent field leaves it alone.
type updateNodeBody struct {
	Name     *string                 `json:"name"`
	URL      httputil.OptionalString `json:"url"`
	ParentID *string                 `json:"parent_id"`
	Index    *int                    `json:"index"`
}

// CreateNode adds a folder or request
// POST /api/documents/{id}/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req services.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.workspace.CreateNode(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, node)
}

// GetNode returns a single node
// GET /api/documents/{id}/nodes/{nodeId}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.workspace.GetNode(r.Context(), r.PathValue("id"), r.PathValue("nodeId"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// UpdateNode renames, moves or edits the URL of a node
// PATCH /api/documents/{id}/nodes/{nodeId}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var body updateNodeBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.workspace.UpdateNode(r.Context(), r.PathValue("id"), r.PathValue("nodeId"), &services.UpdateNodeRequest{
		Name:     body.Name,
		URL:      services.OptionalURL{Present: body.URL.Present, Value: body.URL.Value},
		ParentID: body.ParentID,
		Index:    body.Index,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode removes a node and its subtree
// DELETE /api/documents/{id}/nodes/{nodeId}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.workspace.DeleteNode(r.Context(), r.PathValue("id"), r.PathValue("nodeId")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
