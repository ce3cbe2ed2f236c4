package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// EMASeries calculates the Exponential Moving Average over a value series.
//
// EMA Formula:
//
//	EMA_today = (Value_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
//
// When the series is shorter than the period, the simple mean is used for
// every point so that smoothed charts never shrink relative to their input.
// talib leaves the warm-up prefix as NaN; those positions are backfilled
// with the raw values.
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return []float64{}
	}

	if len(values) < period {
		mean := Mean(values)
		out := make([]float64, len(values))
		for i := range out {
			out[i] = mean
		}
		return out
	}

	ema := talib.Ema(values, period)
	out := make([]float64, len(values))
	for i := range ema {
		if math.IsNaN(ema[i]) {
			out[i] = values[i]
		} else {
			out[i] = ema[i]
		}
	}
	return out
}
