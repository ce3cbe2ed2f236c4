// Package handlers provides HTTP handlers for risk classification.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/risk"
)

// Handler handles risk HTTP requests
type Handler struct {
	service *risk.Service
	log     zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(service *risk.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// RegisterRoutes registers all risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{id}/risk/metrics", h.HandleGetMetrics)
}

// HandleGetMetrics handles GET /api/portfolios/{id}/risk/metrics
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	metrics, err := h.service.Metrics(portfolioID)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyLedger) {
			http.Error(w, "Portfolio has no transactions", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Failed to compute risk metrics")
		http.Error(w, "Failed to compute risk metrics", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": metrics,
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
