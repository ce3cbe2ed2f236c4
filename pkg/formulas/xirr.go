package formulas

import (
	"errors"
	"math"
	"sort"
	"time"
)

// Solver failure modes. Callers are expected to treat these as data problems,
// not as internal faults: a degenerate cash-flow set is a property of the
// portfolio, not of the engine.
var (
	// ErrInsufficientCashFlow is returned when the cash-flow set has fewer
	// than two entries, or all entries share the same sign.
	ErrInsufficientCashFlow = errors.New("xirr requires at least one inflow and one outflow")

	// ErrXIRRNonConvergence is returned when Newton-Raphson diverges and the
	// bisection fallback cannot bracket a root within the rate bounds.
	ErrXIRRNonConvergence = errors.New("xirr failed to converge")
)

// CashFlow is a signed, dated cash flow. Investor outflows (purchases) are
// negative; the terminal valuation enters as a final positive inflow.
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

const (
	xirrMaxIterations = 100
	xirrRateLower     = -0.99
	xirrRateUpper     = 10.0
	xirrNPVTolerance  = 1e-6
	xirrRateTolerance = 1e-7
	daysPerYear       = 365.25
)

// XIRR computes the annualized money-weighted rate of return for an
// irregular series of dated cash flows: the rate r such that
//
//	Σ amount_i × (1+r)^(-t_i) = 0
//
// where t_i is the time in years (365.25-day years) between flow i and the
// earliest flow.
//
// Newton-Raphson with an analytic derivative is the primary strategy,
// seeded at r=0.1. Real transaction sets include clustered near-simultaneous
// flows that leave Newton's derivative ill-conditioned, so when Newton
// diverges, stalls, or leaves the (-0.99, 10) rate bounds, the solver falls
// back to bisection over the same bounds. Bisection requires the NPV to
// bracket zero; if it cannot, ErrXIRRNonConvergence is returned.
func XIRR(flows []CashFlow) (float64, error) {
	if err := validateFlows(flows); err != nil {
		return 0, err
	}

	// Work on a date-sorted copy; the input is never mutated.
	sorted := make([]CashFlow, len(flows))
	copy(sorted, flows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	epoch := sorted[0].Date
	years := make([]float64, len(sorted))
	amounts := make([]float64, len(sorted))
	for i, f := range sorted {
		years[i] = f.Date.Sub(epoch).Hours() / 24.0 / daysPerYear
		amounts[i] = f.Amount
	}

	if rate, ok := solveNewton(amounts, years); ok {
		return rate, nil
	}
	return solveBisection(amounts, years)
}

// validateFlows rejects degenerate inputs: fewer than two flows, or flows
// that are all the same sign (no root can exist).
func validateFlows(flows []CashFlow) error {
	if len(flows) < 2 {
		return ErrInsufficientCashFlow
	}
	hasPositive, hasNegative := false, false
	for _, f := range flows {
		if f.Amount > 0 {
			hasPositive = true
		}
		if f.Amount < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return ErrInsufficientCashFlow
	}
	return nil
}

// npv computes the net present value of the flows at the given rate.
func npv(rate float64, amounts, years []float64) float64 {
	total := 0.0
	for i := range amounts {
		total += amounts[i] * math.Pow(1+rate, -years[i])
	}
	return total
}

// npvDerivative computes d(NPV)/d(rate) analytically.
func npvDerivative(rate float64, amounts, years []float64) float64 {
	total := 0.0
	for i := range amounts {
		total += -years[i] * amounts[i] * math.Pow(1+rate, -years[i]-1)
	}
	return total
}

// solveNewton runs Newton-Raphson from a 0.1 seed. Returns false when the
// derivative degenerates, the rate leaves the bounds, or the iteration
// budget is exhausted without meeting tolerance.
func solveNewton(amounts, years []float64) (float64, bool) {
	rate := 0.1

	for i := 0; i < xirrMaxIterations; i++ {
		value := npv(rate, amounts, years)
		if math.Abs(value) < xirrNPVTolerance {
			return rate, true
		}

		derivative := npvDerivative(rate, amounts, years)
		if math.Abs(derivative) < 1e-12 {
			return 0, false
		}

		next := rate - value/derivative
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if next <= xirrRateLower || next >= xirrRateUpper {
			return 0, false
		}

		if math.Abs(next-rate) < xirrRateTolerance {
			return next, true
		}
		rate = next
	}

	return 0, false
}

// solveBisection bisects over the full rate bounds. The NPV must change sign
// across the interval; a same-sign interval means no annualized rate in
// (-0.99, 10) can explain the flows.
func solveBisection(amounts, years []float64) (float64, error) {
	lower, upper := xirrRateLower, xirrRateUpper
	npvLower := npv(lower, amounts, years)
	npvUpper := npv(upper, amounts, years)

	if npvLower*npvUpper > 0 {
		return 0, ErrXIRRNonConvergence
	}

	for i := 0; i < xirrMaxIterations; i++ {
		mid := (lower + upper) / 2
		npvMid := npv(mid, amounts, years)

		if math.Abs(npvMid) < xirrNPVTolerance || (upper-lower)/2 < xirrRateTolerance {
			return mid, nil
		}

		if npvLower*npvMid < 0 {
			upper = mid
		} else {
			lower = mid
			npvLower = npvMid
		}
	}

	// The interval kept shrinking without meeting NPV tolerance; the
	// midpoint is still the best available estimate within rate tolerance.
	return (lower + upper) / 2, nil
}
