// Package handlers provides HTTP handlers for performance analytics.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/performance"
	"github.com/wealthmax/insight/pkg/formulas"
)

const dateLayout = "2006-01-02"

// Handler handles performance HTTP requests
type Handler struct {
	service *performance.Service
	log     zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(service *performance.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "performance").Logger(),
	}
}

// RegisterRoutes registers all performance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{id}/performance/growth", h.HandleGetGrowth)
	r.Get("/portfolios/{id}/performance/drawdown", h.HandleGetDrawdown)
	r.Get("/portfolios/{id}/performance/rolling", h.HandleGetRollingReturns)
	r.Get("/portfolios/{id}/performance/xirr", h.HandleGetXIRR)
	r.Post("/performance/xirr", h.HandleComputeXIRR)
}

type growthPointResponse struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type drawdownPointResponse struct {
	Date        string  `json:"date"`
	DrawdownPct float64 `json:"drawdown_pct"`
}

type rollingPointResponse struct {
	Date      string  `json:"date"`
	ReturnPct float64 `json:"return_pct"`
}

// HandleGetGrowth handles GET /api/portfolios/{id}/performance/growth
func (h *Handler) HandleGetGrowth(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	start, end := parseRange(r.URL.Query().Get("range"))
	smooth := strings.EqualFold(r.URL.Query().Get("smooth"), "ema")

	curve, err := h.service.GrowthCurve(portfolioID, start, end, smooth)
	if err != nil {
		h.respondError(w, err, "Failed to build growth curve")
		return
	}

	points := make([]growthPointResponse, len(curve))
	for i, p := range curve {
		points[i] = growthPointResponse{Date: p.Date.Format(dateLayout), Value: p.Value}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id": portfolioID,
		"points":       points,
		"smoothed":     smooth,
	}))
}

// HandleGetDrawdown handles GET /api/portfolios/{id}/performance/drawdown
func (h *Handler) HandleGetDrawdown(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	start, end := parseRange(r.URL.Query().Get("range"))

	series, err := h.service.DrawdownSeries(portfolioID, start, end)
	if err != nil {
		h.respondError(w, err, "Failed to build drawdown series")
		return
	}

	points := make([]drawdownPointResponse, len(series))
	maxDrawdown := 0.0
	for i, p := range series {
		points[i] = drawdownPointResponse{Date: p.Date.Format(dateLayout), DrawdownPct: p.DrawdownPct}
		if -p.DrawdownPct > maxDrawdown {
			maxDrawdown = -p.DrawdownPct
		}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id":     portfolioID,
		"points":           points,
		"max_drawdown_pct": maxDrawdown,
	}))
}

// HandleGetRollingReturns handles GET /api/portfolios/{id}/performance/rolling
func (h *Handler) HandleGetRollingReturns(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	window := 12
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid window parameter", http.StatusBadRequest)
			return
		}
		window = parsed
	}

	series, err := h.service.RollingReturns(portfolioID, window)
	if err != nil {
		h.respondError(w, err, "Failed to compute rolling returns")
		return
	}

	points := make([]rollingPointResponse, len(series))
	for i, p := range series {
		points[i] = rollingPointResponse{Date: p.Date.Format(dateLayout), ReturnPct: p.ReturnPct}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id":  portfolioID,
		"window_months": window,
		"points":        points,
	}))
}

// HandleGetXIRR handles GET /api/portfolios/{id}/performance/xirr
func (h *Handler) HandleGetXIRR(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	xirr, err := h.service.PortfolioXIRR(portfolioID)
	if err != nil {
		if errors.Is(err, formulas.ErrInsufficientCashFlow) ||
			errors.Is(err, formulas.ErrXIRRNonConvergence) {
			h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
				"portfolio_id": portfolioID,
				"available":    false,
				"reason":       err.Error(),
			}))
			return
		}
		h.respondError(w, err, "Failed to compute XIRR")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id": portfolioID,
		"available":    true,
		"xirr":         xirr,
		"xirr_pct":     xirr * 100,
	}))
}

type cashFlowRequest struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// HandleComputeXIRR handles POST /api/performance/xirr with a raw cash-flow
// list in the body. Dates are YYYY-MM-DD.
func (h *Handler) HandleComputeXIRR(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CashFlows []cashFlowRequest `json:"cash_flows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flows := make([]formulas.CashFlow, len(body.CashFlows))
	for i, cf := range body.CashFlows {
		date, err := time.Parse(dateLayout, cf.Date)
		if err != nil {
			http.Error(w, "Invalid cash flow date: "+cf.Date, http.StatusBadRequest)
			return
		}
		flows[i] = formulas.CashFlow{Date: date, Amount: cf.Amount}
	}

	xirr, err := h.service.XIRR(flows)
	if err != nil {
		if errors.Is(err, formulas.ErrInsufficientCashFlow) ||
			errors.Is(err, formulas.ErrXIRRNonConvergence) {
			h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
				"available": false,
				"reason":    err.Error(),
			}))
			return
		}
		h.respondError(w, err, "Failed to compute XIRR")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"available": true,
		"xirr":      xirr,
		"xirr_pct":  xirr * 100,
	}))
}

// parseRange turns a range token (1Y, 3Y, 5Y, all) into a start/end pair.
// Zero times mean "from first transaction" and "now" respectively.
func parseRange(token string) (time.Time, time.Time) {
	now := time.Now()
	switch strings.ToUpper(token) {
	case "1Y":
		return now.AddDate(-1, 0, 0), now
	case "3Y":
		return now.AddDate(-3, 0, 0), now
	case "5Y":
		return now.AddDate(-5, 0, 0), now
	default:
		return time.Time{}, time.Time{}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, domain.ErrEmptyLedger) {
		http.Error(w, "Portfolio has no transactions", http.StatusNotFound)
		return
	}
	h.log.Error().Err(err).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
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
