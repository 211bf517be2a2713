package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// SourceHandler serves the registered odds sources.
type SourceHandler struct {
	store  domain.SourceStore
	logger *slog.Logger
}

// NewSourceHandler creates a SourceHandler over the given store.
func NewSourceHandler(store domain.SourceStore, logger *slog.Logger) *SourceHandler {
	return &SourceHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "source")),
	}
}

type sourceResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// List returns all registered sources.
// GET /api/sources
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing sources", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}

	out := make([]sourceResponse, 0, len(sources))
	for _, s := range sources {
		out = append(out, sourceResponse{ID: s.ID, Name: s.Name, URL: s.URL})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sources": out,
		"count":   len(out),
	})
}
