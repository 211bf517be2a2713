package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// AliasHandler serves the team alias curation endpoints.
type AliasHandler struct {
	store  domain.AliasStore
	reload func(ctx context.Context) error // optional, refreshes in-memory indexes
	logger *slog.Logger
}

// NewAliasHandler creates an AliasHandler over the given store. The reload
// hook, when non-nil, runs after every successful mutation so resolvers see
// the new alias without a restart.
func NewAliasHandler(store domain.AliasStore, reload func(ctx context.Context) error, logger *slog.Logger) *AliasHandler {
	return &AliasHandler{
		store:  store,
		reload: reload,
		logger: logger.With(slog.String("handler", "alias")),
	}
}

type aliasRequest struct {
	Canonical string `json:"canonical"`
	Alias     string `json:"alias"`
}

type aliasResponse struct {
	Canonical string `json:"canonical"`
	Alias     string `json:"alias"`
}

// List returns the full alias table.
// GET /api/aliases
func (h *AliasHandler) List(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing aliases", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list aliases")
		return
	}

	out := make([]aliasResponse, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, aliasResponse{Canonical: a.Canonical, Alias: a.Alias})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"aliases": out,
		"count":   len(out),
	})
}

// Upsert inserts or updates an alias mapping.
// PUT /api/aliases
func (h *AliasHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Canonical = strings.ToLower(strings.TrimSpace(req.Canonical))
	req.Alias = strings.ToLower(strings.TrimSpace(req.Alias))
	if req.Canonical == "" || req.Alias == "" {
		writeError(w, http.StatusBadRequest, "canonical and alias are required")
		return
	}

	if err := h.store.Upsert(r.Context(), req.Canonical, req.Alias); err != nil {
		h.logger.ErrorContext(r.Context(), "upserting alias", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to save alias")
		return
	}

	if h.reload != nil {
		if err := h.reload(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "reloading alias index", slog.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, aliasResponse{Canonical: req.Canonical, Alias: req.Alias})
}
