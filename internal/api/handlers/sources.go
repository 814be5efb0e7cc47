package handlers

import (
	"net/http"

	"github.com/wonny/marketpipe/internal/sources"
)

// SourceLister lists the registered data sources
type SourceLister interface {
	List() []sources.Info
}

// SourcesHandler exposes the source registry
type SourcesHandler struct {
	registry SourceLister
}

// NewSourcesHandler creates a new sources handler
func NewSourcesHandler(registry SourceLister) *SourcesHandler {
	return &SourcesHandler{registry: registry}
}

// List returns every source id and alias
// GET /api/sources
func (h *SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sources": h.registry.List(),
	})
}
