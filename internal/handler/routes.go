package handler

import "net/http"

// RegisterRoutes adds every API route to mux (Go 1.22+ enhanced patterns).
func RegisterRoutes(mux *http.ServeMux, meta *MetaHandler, docs *DocumentHandler, nodes *NodeHandler) {
	// Health check
	mux.HandleFunc("GET /health", meta.HealthCheck)
	mux.HandleFunc("GET /api/locales", meta.GetLocales)

	// Document routes
	mux.HandleFunc("GET /api/documents", docs.ListDocuments)
	mux.HandleFunc("POST /api/documents", docs.CreateDocument)
	mux.HandleFunc("POST /api/documents/import", docs.ImportDocument)
	mux.HandleFunc("GET /api/documents/{id}", docs.GetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docs.DeleteDocument)
	mux.HandleFunc("GET /api/documents/{id}/export", docs.ExportDocument)
	mux.HandleFunc("POST /api/documents/{id}/save", docs.SaveDocument)
	mux.HandleFunc("GET /api/documents/{id}/changes", docs.GetChanges)

	// History routes
	mux.HandleFunc("POST /api/documents/{id}/undo", docs.Undo)
	mux.HandleFunc("POST /api/documents/{id}/redo", docs.Redo)

	// Node routes
	mux.HandleFunc("POST /api/documents/{id}/nodes", nodes.CreateNode)
	mux.HandleFunc("GET /api/documents/{id}/nodes/{nodeId}", nodes.GetNode)
	mux.HandleFunc("PATCH /api/documents/{id}/nodes/{nodeId}", nodes.UpdateNode)
	mux.HandleFunc("DELETE /api/documents/{id}/nodes/{nodeId}", nodes.DeleteNode)
}
