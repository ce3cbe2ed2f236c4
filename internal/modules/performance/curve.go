// Package performance converts a portfolio's ledger and NAV history into
// time-weighted performance series: growth curves, drawdowns, rolling
// returns and money-weighted (XIRR) returns.
package performance

import (
	"time"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
	"github.com/wealthmax/insight/internal/modules/valuation"
	"github.com/wealthmax/insight/pkg/formulas"
)

// Resolution selects the resampling period of a growth curve.
type Resolution string

const (
	ResolutionMonthly Resolution = "monthly"
	ResolutionWeekly  Resolution = "weekly"
)

// BuildGrowthCurve produces the resampled portfolio value series between
// start and end. The curve always contains a point exactly at the start
// (the first transaction date unless the caller narrowed the range) and
// exactly at end, with one point per resolution boundary in between. Flat
// periods and not-yet-priced holdings never cause gaps: every boundary gets
// a point, holdings without a price contribute zero.
func BuildGrowthCurve(
	timelines map[string]*ledger.HoldingTimeline,
	series map[string][]domain.PricePoint,
	start, end time.Time,
	resolution Resolution,
) []domain.GrowthPoint {
	if end.Before(start) {
		return []domain.GrowthPoint{}
	}

	var curve []domain.GrowthPoint
	for _, date := range resample(start, end, resolution) {
		curve = append(curve, domain.GrowthPoint{
			Date:  date,
			Value: valuation.PortfolioValueAt(timelines, series, date),
		})
	}
	return curve
}

// BuildDrawdownSeries derives the drawdown percentage series from a growth
// curve. One output point per input point; every value <= 0, 0 at each new
// running maximum.
func BuildDrawdownSeries(curve []domain.GrowthPoint) []domain.DrawdownPoint {
	values := make([]float64, len(curve))
	for i, point := range curve {
		values[i] = point.Value
	}

	drawdowns := formulas.DrawdownSeries(values)
	result := make([]domain.DrawdownPoint, len(curve))
	for i := range curve {
		result[i] = domain.DrawdownPoint{
			Date:        curve[i].Date,
			DrawdownPct: drawdowns[i],
		}
	}
	return result
}

// RollingReturns computes trailing returns over a sliding window of
// windowMonths. For each curve point with an anchor available at
// date - windowMonths (as-of: the latest point at or before the look-back
// target), it emits the percentage return over the window. Leading points
// without a full look-back are omitted, never zero-filled.
func RollingReturns(curve []domain.GrowthPoint, windowMonths int) []domain.RollingReturnPoint {
	var result []domain.RollingReturnPoint

	for i, point := range curve {
		target := point.Date.AddDate(0, -windowMonths, 0)

		anchor, ok := anchorAt(curve[:i], target)
		if !ok || anchor.Value == 0 {
			continue
		}

		result = append(result, domain.RollingReturnPoint{
			Date:      point.Date,
			ReturnPct: (point.Value/anchor.Value - 1) * 100,
		})
	}
	return result
}

// anchorAt finds the latest point dated at or before target. The curve
// slice is date-ascending.
func anchorAt(curve []domain.GrowthPoint, target time.Time) (domain.GrowthPoint, bool) {
	var anchor domain.GrowthPoint
	found := false
	for _, point := range curve {
		if point.Date.After(target) {
			break
		}
		anchor = point
		found = true
	}
	return anchor, found
}

// resample returns the ordered sampling dates: start itself, every
// resolution boundary strictly between start and end, and end itself.
// Monthly boundaries are the first day of each month; weekly boundaries are
// Mondays.
func resample(start, end time.Time, resolution Resolution) []time.Time {
	dates := []time.Time{start}

	boundary := nextBoundary(start, resolution)
	for boundary.Before(end) {
		dates = append(dates, boundary)
		boundary = nextBoundary(boundary, resolution)
	}

	if end.After(start) {
		dates = append(dates, end)
	}
	return dates
}

func nextBoundary(after time.Time, resolution Resolution) time.Time {
	switch resolution {
	case ResolutionWeekly:
		// Next Monday strictly after the given date.
		days := (8 - int(after.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		return after.AddDate(0, 0, days)
	default:
		// First day of the next month.
		return time.Date(after.Year(), after.Month(), 1, 0, 0, 0, 0, after.Location()).AddDate(0, 1, 0)
	}
}
