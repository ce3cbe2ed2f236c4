// Package handlers provides HTTP handlers for holdings.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/holdings"
	"github.com/wealthmax/insight/pkg/formulas"
)

// Handler handles holdings HTTP requests
type Handler struct {
	service *holdings.Service
	log     zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(service *holdings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "holdings").Logger(),
	}
}

// RegisterRoutes registers all holdings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{id}/holdings", h.HandleGetHoldings)
}

// HandleGetHoldings handles GET /api/portfolios/{id}/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	summary, err := h.service.Snapshot(portfolioID)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyLedger) {
			http.Error(w, "Portfolio has no transactions", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Failed to build holdings snapshot")
		http.Error(w, "Failed to build holdings snapshot", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"portfolio_id":   summary.PortfolioID,
			"holdings":       summary.Holdings,
			"total_value":    summary.TotalValue,
			"total_invested": summary.TotalInvested,
			"return_pct":     formulas.SimpleReturnPct(summary.TotalValue, summary.TotalInvested),
			"as_of":          summary.AsOf.Format(time.RFC3339),
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
