package valuation

import (
	"time"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
)

// ValueAt returns the per-unit price of a holding as of the given date:
// the most recent point at or before it. Returns domain.ErrNoPriceAvailable
// when the series has no point on or before the date; the engine never
// fabricates a price for a holding before its first priced date.
//
// The series must be date-ascending, which is how the history repository
// returns it.
func ValueAt(series []domain.PricePoint, date time.Time) (float64, error) {
	price := 0.0
	found := false
	for _, point := range series {
		if point.Date.After(date) {
			break
		}
		price = point.Price
		found = true
	}
	if !found {
		return 0, domain.ErrNoPriceAvailable
	}
	return price, nil
}

// HoldingValueAt returns the market value of one holding as of the date:
// units held at end of day times the as-of price. A missing price surfaces
// as domain.ErrNoPriceAvailable for the caller to decide on.
func HoldingValueAt(timeline *ledger.HoldingTimeline, series []domain.PricePoint, date time.Time) (float64, error) {
	units := timeline.UnitsAsOf(date)
	if units == 0 {
		return 0, nil
	}
	price, err := ValueAt(series, date)
	if err != nil {
		return 0, err
	}
	return units * price, nil
}

// PortfolioValueAt sums the as-of values of all holdings that had any
// transaction on or before the date. Holdings without a usable price
// contribute zero; a sparse NAV feed must not sink the whole valuation.
func PortfolioValueAt(timelines map[string]*ledger.HoldingTimeline, series map[string][]domain.PricePoint, date time.Time) float64 {
	total := 0.0
	for isin, timeline := range timelines {
		if timeline.FirstDate().After(date) {
			continue
		}
		value, err := HoldingValueAt(timeline, series[isin], date)
		if err != nil {
			continue
		}
		total += value
	}
	return total
}
