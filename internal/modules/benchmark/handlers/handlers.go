// Package handlers provides HTTP handlers for benchmark comparison.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/benchmark"
	"github.com/wealthmax/insight/pkg/formulas"
)

// Handler handles benchmark HTTP requests
type Handler struct {
	service *benchmark.Service
	repo    *benchmark.Repository
	log     zerolog.Logger
}

// NewHandler creates a new benchmark handler
func NewHandler(service *benchmark.Service, repo *benchmark.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "benchmark").Logger(),
	}
}

// RegisterRoutes registers all benchmark routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{id}/benchmark/comparison", h.HandleGetComparison)
	r.Get("/benchmark/indices", h.HandleListIndices)
}

// HandleGetComparison handles GET /api/portfolios/{id}/benchmark/comparison.
// An unresolvable benchmark is reported as unavailable, not as an error;
// portfolio analytics stay usable without index data.
func (h *Handler) HandleGetComparison(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	comparison, err := h.service.Compare(portfolioID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyLedger):
			http.Error(w, "Portfolio has no transactions", http.StatusNotFound)
		case errors.Is(err, domain.ErrBenchmarkUnavailable),
			errors.Is(err, formulas.ErrInsufficientCashFlow),
			errors.Is(err, formulas.ErrXIRRNonConvergence):
			h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
				"portfolio_id": portfolioID,
				"available":    false,
				"reason":       err.Error(),
			}))
		default:
			h.log.Error().Err(err).Msg("Failed to compare against benchmark")
			http.Error(w, "Failed to compare against benchmark", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id":       portfolioID,
		"available":          true,
		"index_name":         comparison.IndexName,
		"portfolio_xirr":     comparison.PortfolioXIRR,
		"benchmark_xirr":     comparison.BenchmarkXIRR,
		"outperformance":     comparison.Outperformance,
		"outperformance_pct": comparison.Outperformance * 100,
	}))
}

// HandleListIndices handles GET /api/benchmark/indices
func (h *Handler) HandleListIndices(w http.ResponseWriter, r *http.Request) {
	indices, err := h.repo.ListIndices()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list indices")
		http.Error(w, "Failed to list indices", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"indices": indices,
		"count":   len(indices),
	}))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
