// Package handlers provides HTTP handlers for portfolio snapshots.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/modules/snapshots"
)

const dateLayout = "2006-01-02"

// Handler handles snapshot HTTP requests
type Handler struct {
	repo *snapshots.Repository
	log  zerolog.Logger
}

// NewHandler creates a new snapshots handler
func NewHandler(repo *snapshots.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "snapshots").Logger(),
	}
}

// RegisterRoutes registers all snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{id}/snapshots", h.HandleListSnapshots)
}

type snapshotResponse struct {
	Date          string            `json:"date"`
	TotalValue    float64           `json:"total_value"`
	TotalInvested float64           `json:"total_invested"`
	XIRR          *float64          `json:"xirr,omitempty"`
	Metrics       snapshots.Metrics `json:"metrics"`
}

// HandleListSnapshots handles GET /api/portfolios/{id}/snapshots
func (h *Handler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	list, err := h.repo.List(portfolioID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
		return
	}

	items := make([]snapshotResponse, len(list))
	for i, s := range list {
		items[i] = snapshotResponse{
			Date:          s.Date.Format(dateLayout),
			TotalValue:    s.TotalValue,
			TotalInvested: s.TotalInvested,
			XIRR:          s.XIRR,
			Metrics:       s.Metrics,
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"portfolio_id": portfolioID,
			"snapshots":    items,
			"count":        len(items),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
