package ledger

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/pkg/formulas"
)

// Reader normalizes raw transaction rows into per-holding timelines and
// combined signed cash-flow lists. All methods are pure over their inputs;
// the reader never mutates a transaction slice it is handed.
type Reader struct {
	repo *Repository
	log  zerolog.Logger
}

// NewReader creates a new ledger reader.
func NewReader(repo *Repository, log zerolog.Logger) *Reader {
	return &Reader{
		repo: repo,
		log:  log.With().Str("service", "ledger_reader").Logger(),
	}
}

// PortfolioTimelines loads a portfolio's ledger and builds its per-holding
// timelines. Returns domain.ErrEmptyLedger when the whole portfolio has no
// transactions: with an empty ledger there is nothing any downstream
// computation could report.
func (r *Reader) PortfolioTimelines(portfolioID string) (map[string]*HoldingTimeline, error) {
	transactions, err := r.repo.GetByPortfolio(portfolioID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for portfolio %s: %w", portfolioID, err)
	}
	return BuildTimelines(transactions)
}

// HoldingTimeline loads and normalizes a single holding's timeline.
// Returns domain.ErrEmptyLedger when the holding has no transactions;
// callers treat this as "no position", not a hard failure.
func (r *Reader) HoldingTimeline(portfolioID, isin string) (*HoldingTimeline, error) {
	transactions, err := r.repo.GetByPortfolio(portfolioID, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for holding %s: %w", isin, err)
	}
	timelines, err := BuildTimelines(transactions)
	if err != nil {
		return nil, err
	}
	return timelines[isin], nil
}

// BuildTimelines groups an unordered transaction set by holding, sorts each
// group ascending by date, deduplicates identical rows, and accumulates
// units and invested totals. Pure function: safe for concurrent use.
func BuildTimelines(transactions []domain.Transaction) (map[string]*HoldingTimeline, error) {
	if len(transactions) == 0 {
		return nil, domain.ErrEmptyLedger
	}

	deduped := dedupe(transactions)

	timelines := make(map[string]*HoldingTimeline)
	for _, tx := range deduped {
		timeline, ok := timelines[tx.ISIN]
		if !ok {
			timeline = &HoldingTimeline{ISIN: tx.ISIN}
			timelines[tx.ISIN] = timeline
		}
		timeline.Transactions = append(timeline.Transactions, tx)
		timeline.TotalUnits += signedUnits(tx)
		if tx.Type != domain.TransactionSell {
			timeline.TotalInvested += tx.Amount
		}
	}

	for _, timeline := range timelines {
		txs := timeline.Transactions
		sort.SliceStable(txs, func(i, j int) bool {
			return txs[i].Date.Before(txs[j].Date)
		})
	}

	return timelines, nil
}

// CombinedCashFlows merges every holding's signed cash flows into one
// date-ascending list, the portfolio-level XIRR input.
func CombinedCashFlows(timelines map[string]*HoldingTimeline) []formulas.CashFlow {
	var flows []formulas.CashFlow
	for _, timeline := range timelines {
		flows = append(flows, timeline.CashFlows()...)
	}
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})
	return flows
}

// dedupe drops transactions that duplicate an earlier row on
// (holding, date, amount). The source system's insert-time duplicate check
// is replicated here so that raw exports can be replayed safely.
func dedupe(transactions []domain.Transaction) []domain.Transaction {
	seen := make(map[string]bool, len(transactions))
	result := make([]domain.Transaction, 0, len(transactions))

	for _, tx := range transactions {
		key := fmt.Sprintf("%s|%s|%.4f", tx.ISIN, tx.Date.Format(dateLayout), tx.Amount)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, tx)
	}
	return result
}
