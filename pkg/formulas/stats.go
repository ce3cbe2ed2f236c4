package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Median calculates the median of a slice of float64 values. Even-length
// input yields the midpoint of the two middle elements. The input is not
// mutated.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// AnnualizedVolatilityMonthly calculates annualized volatility from monthly
// returns. NAV feeds for mutual funds are monthly at best, so the scaling
// factor is sqrt(12) rather than the sqrt(252) used for daily series.
func AnnualizedVolatilityMonthly(monthlyReturns []float64) float64 {
	if len(monthlyReturns) == 0 {
		return 0
	}
	return StdDev(monthlyReturns) * math.Sqrt(12)
}

// SimpleReturnPct calculates the simple percentage return of currentValue
// over invested capital. Returns 0 when nothing was invested.
func SimpleReturnPct(currentValue, invested float64) float64 {
	if invested == 0 {
		return 0
	}
	return (currentValue - invested) / invested * 100
}
