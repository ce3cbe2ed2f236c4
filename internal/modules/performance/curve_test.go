package performance

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func singleBuyInputs(t *testing.T) (map[string]*ledger.HoldingTimeline, map[string][]domain.PricePoint) {
	t.Helper()
	timelines, err := ledger.BuildTimelines([]domain.Transaction{{
		ISIN: "INF1", Date: day(2023, 1, 1),
		Type: domain.TransactionBuy, Units: 100, Amount: 10000,
	}})
	require.NoError(t, err)

	series := map[string][]domain.PricePoint{
		"INF1": {
			{Date: day(2023, 1, 1), Price: 100},
			{Date: day(2024, 1, 1), Price: 150},
		},
	}
	return timelines, series
}

func TestBuildGrowthCurve_SingleBuy(t *testing.T) {
	timelines, series := singleBuyInputs(t)

	curve := BuildGrowthCurve(timelines, series, day(2023, 1, 1), day(2024, 1, 1), ResolutionMonthly)

	// Start, eleven month boundaries strictly in between, end.
	require.Len(t, curve, 13)
	assert.Equal(t, day(2023, 1, 1), curve[0].Date)
	assert.Equal(t, 10000.0, curve[0].Value)
	assert.Equal(t, day(2023, 2, 1), curve[1].Date)
	assert.Equal(t, day(2024, 1, 1), curve[len(curve)-1].Date)
	assert.Equal(t, 15000.0, curve[len(curve)-1].Value)

	// Flat at the as-of price until the second price point lands.
	for _, p := range curve[:len(curve)-1] {
		assert.Equal(t, 10000.0, p.Value)
	}
}

func TestBuildGrowthCurve_ValuesNeverNegative(t *testing.T) {
	timelines, series := singleBuyInputs(t)
	curve := BuildGrowthCurve(timelines, series, day(2022, 6, 1), day(2024, 6, 1), ResolutionMonthly)
	for _, p := range curve {
		assert.GreaterOrEqual(t, p.Value, 0.0)
	}
}

func TestBuildGrowthCurve_WideningRangeNeverShrinks(t *testing.T) {
	timelines, series := singleBuyInputs(t)

	narrow := BuildGrowthCurve(timelines, series, day(2023, 6, 1), day(2023, 12, 1), ResolutionMonthly)
	wide := BuildGrowthCurve(timelines, series, day(2023, 1, 1), day(2024, 1, 1), ResolutionMonthly)
	assert.GreaterOrEqual(t, len(wide), len(narrow))
}

func TestBuildGrowthCurve_WeeklyBoundariesAreMondays(t *testing.T) {
	timelines, series := singleBuyInputs(t)

	curve := BuildGrowthCurve(timelines, series, day(2023, 1, 1), day(2023, 2, 1), ResolutionWeekly)
	require.Greater(t, len(curve), 2)
	for _, p := range curve[1 : len(curve)-1] {
		assert.Equal(t, time.Monday, p.Date.Weekday())
	}
}

func TestBuildDrawdownSeries_MonotoneGrowthIsAllZero(t *testing.T) {
	timelines, series := singleBuyInputs(t)
	curve := BuildGrowthCurve(timelines, series, day(2023, 1, 1), day(2024, 1, 1), ResolutionMonthly)

	drawdowns := BuildDrawdownSeries(curve)
	require.Len(t, drawdowns, len(curve))
	for _, p := range drawdowns {
		assert.Equal(t, 0.0, p.DrawdownPct)
	}
}

func TestBuildDrawdownSeries_DipAndRecovery(t *testing.T) {
	curve := []domain.GrowthPoint{
		{Date: day(2024, 1, 1), Value: 100},
		{Date: day(2024, 2, 1), Value: 200},
		{Date: day(2024, 3, 1), Value: 150},
		{Date: day(2024, 4, 1), Value: 220},
	}

	drawdowns := BuildDrawdownSeries(curve)
	assert.Equal(t, 0.0, drawdowns[0].DrawdownPct)
	assert.Equal(t, 0.0, drawdowns[1].DrawdownPct)
	assert.InDelta(t, -25.0, drawdowns[2].DrawdownPct, 1e-9)
	assert.Equal(t, 0.0, drawdowns[3].DrawdownPct)
}

func monthlyCurve(months int, value func(i int) float64) []domain.GrowthPoint {
	curve := make([]domain.GrowthPoint, months)
	for i := range curve {
		curve[i] = domain.GrowthPoint{
			Date:  day(2022, 1, 1).AddDate(0, i, 0),
			Value: value(i),
		}
	}
	return curve
}

func TestRollingReturns_ConstantGrowthRateIsConstant(t *testing.T) {
	// 1% per month; every 12-month window compounds to the same return.
	curve := monthlyCurve(37, func(i int) float64 {
		return 1000 * math.Pow(1.01, float64(i))
	})

	rolling := RollingReturns(curve, 12)
	require.Len(t, rolling, 37-12)

	expected := (math.Pow(1.01, 12) - 1) * 100
	for _, p := range rolling {
		assert.InDelta(t, expected, p.ReturnPct, 1e-9)
	}
}

func TestRollingReturns_LeadingPointsOmitted(t *testing.T) {
	curve := monthlyCurve(24, func(i int) float64 { return 1000 + float64(i)*1000 })

	rolling := RollingReturns(curve, 12)
	require.Len(t, rolling, 24-12)
	assert.Equal(t, curve[12].Date, rolling[0].Date)
	assert.Equal(t, curve[23].Date, rolling[len(rolling)-1].Date)
}

func TestRollingReturns_ShortCurveIsEmpty(t *testing.T) {
	curve := monthlyCurve(6, func(i int) float64 { return 1000 })
	assert.Empty(t, RollingReturns(curve, 12))
}

func TestRollingReturns_ZeroAnchorSkipped(t *testing.T) {
	curve := monthlyCurve(14, func(i int) float64 {
		if i == 0 {
			return 0
		}
		return 1000
	})

	rolling := RollingReturns(curve, 12)
	// The point anchored on the zero-valued start is skipped, not divided.
	for _, p := range rolling {
		assert.False(t, math.IsInf(p.ReturnPct, 0))
		assert.False(t, math.IsNaN(p.ReturnPct))
	}
}

func TestRollingReturns_Idempotent(t *testing.T) {
	curve := monthlyCurve(24, func(i int) float64 {
		return 1000 * math.Pow(1.02, float64(i))
	})

	first := RollingReturns(curve, 12)
	second := RollingReturns(curve, 12)
	assert.Equal(t, first, second)
}
