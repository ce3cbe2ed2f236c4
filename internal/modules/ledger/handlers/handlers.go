// Package handlers provides HTTP handlers for the transaction ledger.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
)

const dateLayout = "2006-01-02"

// Handler handles ledger HTTP requests
type Handler struct {
	repo   *ledger.Repository
	reader *ledger.Reader
	log    zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(repo *ledger.Repository, reader *ledger.Reader, log zerolog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		reader: reader,
		log:    log.With().Str("handler", "ledger").Logger(),
	}
}

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolios", h.HandleCreatePortfolio)
	r.Post("/portfolios/{id}/transactions", h.HandleIngestTransactions)
	r.Get("/portfolios/{id}/transactions", h.HandleListTransactions)
	r.Get("/portfolios/{id}/holdings/{isin}/timeline", h.HandleGetTimeline)
}

// HandleCreatePortfolio handles POST /api/portfolios
func (h *Handler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Alias  string `json:"alias"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Alias == "" {
		http.Error(w, "Alias is required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreatePortfolio(body.Alias, body.Source)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create portfolio")
		http.Error(w, "Failed to create portfolio", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"portfolio_id": id,
		"alias":        body.Alias,
	}))
}

type transactionRequest struct {
	ISIN   string  `json:"isin"`
	Date   string  `json:"date"`
	Type   string  `json:"type"`
	Units  float64 `json:"units"`
	Amount float64 `json:"amount"`
	NAV    float64 `json:"nav"`
	Source string  `json:"source"`
}

// HandleIngestTransactions handles POST /api/portfolios/{id}/transactions.
// Rows already in the ledger (same holding, date and amount) are skipped,
// so replaying a statement import is harmless.
func (h *Handler) HandleIngestTransactions(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	exists, err := h.repo.PortfolioExists(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to check portfolio")
		http.Error(w, "Failed to check portfolio", http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "Portfolio not found", http.StatusNotFound)
		return
	}

	var body struct {
		Transactions []transactionRequest `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inserted, skipped := 0, 0
	for _, req := range body.Transactions {
		tx, err := h.toTransaction(portfolioID, req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		wrote, err := h.repo.Insert(tx)
		if err != nil {
			h.log.Error().Err(err).Str("isin", tx.ISIN).Msg("Failed to insert transaction")
			http.Error(w, "Failed to insert transaction", http.StatusInternalServerError)
			return
		}
		if wrote {
			inserted++
		} else {
			skipped++
		}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id": portfolioID,
		"inserted":     inserted,
		"skipped":      skipped,
	}))
}

// HandleListTransactions handles GET /api/portfolios/{id}/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	isin := r.URL.Query().Get("isin")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	transactions, err := h.repo.GetByPortfolio(portfolioID, isin)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if limit > 0 && len(transactions) > limit {
		transactions = transactions[:limit]
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id": portfolioID,
		"transactions": transactions,
		"count":        len(transactions),
	}))
}

// HandleGetTimeline handles GET /api/portfolios/{id}/holdings/{isin}/timeline
func (h *Handler) HandleGetTimeline(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	isin := chi.URLParam(r, "isin")

	timeline, err := h.reader.HoldingTimeline(portfolioID, isin)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyLedger) {
			http.Error(w, "No transactions for holding", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Failed to build timeline")
		http.Error(w, "Failed to build timeline", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolio_id":   portfolioID,
		"isin":           timeline.ISIN,
		"transactions":   timeline.Transactions,
		"total_units":    timeline.TotalUnits,
		"total_invested": timeline.TotalInvested,
		"first_date":     timeline.FirstDate().Format(dateLayout),
	}))
}

func (h *Handler) toTransaction(portfolioID string, req transactionRequest) (domain.Transaction, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return domain.Transaction{}, errors.New("invalid transaction date: " + req.Date)
	}

	txType := domain.TransactionType(req.Type)
	switch txType {
	case domain.TransactionBuy, domain.TransactionSIP, domain.TransactionSell:
	default:
		return domain.Transaction{}, errors.New("invalid transaction type: " + req.Type)
	}

	if req.ISIN == "" || req.Units <= 0 || req.Amount <= 0 {
		return domain.Transaction{}, errors.New("isin, positive units and positive amount are required")
	}

	return domain.Transaction{
		PortfolioID: portfolioID,
		ISIN:        req.ISIN,
		Date:        date,
		Type:        txType,
		Units:       req.Units,
		Amount:      req.Amount,
		NAV:         req.NAV,
		Source:      req.Source,
	}, nil
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
