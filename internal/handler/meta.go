package handler

import (
	"net/http"
	"time"

	"piuma/internal/httputil"
	"piuma/internal/names"
)

// MetaHandler serves health and locale information
type MetaHandler struct {
	catalog *names.Catalog
	namer   names.Namer
}

// NewMetaHandler creates a new meta handler. namer is the locale new
// documents are created with.
func NewMetaHandler(catalog *names.Catalog, namer names.Namer) *MetaHandler {
	return &MetaHandler{catalog: catalog, namer: namer}
}

// LocalesResponse lists the available name locales
type LocalesResponse struct {
	Locales []string `json:"locales"`
	Current string   `json:"current"`
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *MetaHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}

// GetLocales lists the locales default names are available in
// GET /api/locales
func (h *MetaHandler) GetLocales(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, LocalesResponse{
		Locales: h.catalog.Locales(),
		Current: h.namer.Locale(),
	})
}
