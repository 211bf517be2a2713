package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// OddsHandler serves the windowed latest-odds read.
type OddsHandler struct {
	store  domain.OddsStore
	logger *slog.Logger
}

// NewOddsHandler creates an OddsHandler over the given store.
func NewOddsHandler(store domain.OddsStore, logger *slog.Logger) *OddsHandler {
	return &OddsHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "odds")),
	}
}

// Window returns denormalized latest odds for upcoming events of a sport.
// GET /api/odds/window?sport=soccer&hours=48&markets=1X2,BTTS
func (h *OddsHandler) Window(w http.ResponseWriter, r *http.Request) {
	sport := strings.TrimSpace(r.URL.Query().Get("sport"))
	if sport == "" {
		writeError(w, http.StatusBadRequest, "sport query parameter is required")
		return
	}

	hours := queryInt(r, "hours", 48, 24*14)

	var markets []string
	if raw := r.URL.Query().Get("markets"); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				markets = append(markets, m)
			}
		}
	}

	now := time.Now().UTC()
	rows, err := h.store.ReadWindow(r.Context(), sport, now, now.Add(time.Duration(hours)*time.Hour), markets)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "reading odds window", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read odds window")
		return
	}
	if rows == nil {
		rows = []domain.WindowRow{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sport": sport,
		"from":  now.Format(time.RFC3339),
		"to":    now.Add(time.Duration(hours) * time.Hour).Format(time.RFC3339),
		"rows":  rows,
		"count": len(rows),
	})
}
