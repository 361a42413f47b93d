package handlers

import (
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/services"
)

// MetadataHandler exposes the enrichment lookup
type MetadataHandler struct {
	metadata services.MetadataClient
	logger   hclog.Logger
}

// NewMetadataHandler creates a new metadata handler
func NewMetadataHandler(metadata services.MetadataClient, logger hclog.Logger) *MetadataHandler {
	return &MetadataHandler{
		metadata: metadata,
		logger:   logger.Named("tmdb"),
	}
}

// Search handles GET /api/metadata/search?title=
func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, r, h.logger, "metadata.search", services.NewValidationError("title", "This field is required."))
		return
	}

	data, err := h.metadata.FetchMovieData(r.Context(), title)
	if err != nil {
		writeError(w, r, h.logger, "metadata.search", &services.UpstreamError{Err: err})
		return
	}
	if data == nil {
		writeError(w, r, h.logger, "metadata.search", services.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, data)
}
