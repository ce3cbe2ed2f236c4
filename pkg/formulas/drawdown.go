package formulas

// DrawdownSeries computes the percentage drawdown at each point of a value
// series, measured against the running maximum seen so far (including the
// point itself). Every element is <= 0, with 0 at each new peak.
//
// Drawdown Formula:
//
//	Drawdown_i = (Value_i - RunningMax_0..i) / RunningMax_0..i × 100
//
// Points observed before any positive running maximum report 0 rather than
// dividing by zero.
func DrawdownSeries(values []float64) []float64 {
	drawdowns := make([]float64, len(values))
	peak := 0.0

	for i, value := range values {
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdowns[i] = (value - peak) / peak * 100
		}
	}

	return drawdowns
}

// MaxDrawdown returns the deepest drawdown of a value series as a positive
// percentage (25 = 25% loss from peak). Returns 0 for series shorter than 2.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	for _, dd := range DrawdownSeries(values) {
		if -dd > maxDrawdown {
			maxDrawdown = -dd
		}
	}
	return maxDrawdown
}
