package ledger

import (
	"time"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/pkg/formulas"
)

// HoldingTimeline is the normalized view of one holding's ledger: its
// transactions sorted ascending by date, plus the running aggregates the
// analytics layers consume. Built once per request, read-only afterwards.
type HoldingTimeline struct {
	ISIN          string
	Transactions  []domain.Transaction // sorted ascending by date
	TotalUnits    float64              // signed cumulative units (sells subtract)
	TotalInvested float64              // sum of BUY/SIP amounts
}

// FirstDate returns the date of the earliest transaction.
func (t *HoldingTimeline) FirstDate() time.Time {
	return t.Transactions[0].Date
}

// UnitsAsOf returns the cumulative signed units held at the end of the given
// date. Transactions dated exactly on the target date are included.
func (t *HoldingTimeline) UnitsAsOf(date time.Time) float64 {
	units := 0.0
	for _, tx := range t.Transactions {
		if tx.Date.After(date) {
			break
		}
		units += signedUnits(tx)
	}
	return units
}

// CashFlows returns the holding's transactions as signed cash flows:
// purchases are investor outflows (negative), sells are inflows (positive).
func (t *HoldingTimeline) CashFlows() []formulas.CashFlow {
	flows := make([]formulas.CashFlow, 0, len(t.Transactions))
	for _, tx := range t.Transactions {
		flows = append(flows, formulas.CashFlow{
			Date:   tx.Date,
			Amount: signedAmount(tx),
		})
	}
	return flows
}

func signedUnits(tx domain.Transaction) float64 {
	if tx.Type == domain.TransactionSell {
		return -tx.Units
	}
	return tx.Units
}

func signedAmount(tx domain.Transaction) float64 {
	if tx.Type == domain.TransactionSell {
		return tx.Amount
	}
	return -tx.Amount
}
