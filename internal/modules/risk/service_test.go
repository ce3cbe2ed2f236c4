package risk

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthmax/insight/internal/config"
	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/holdings"
)

type fakeSnapshots struct {
	summary holdings.Summary
}

func (f *fakeSnapshots) Snapshot(portfolioID string) (holdings.Summary, error) {
	return f.summary, nil
}

type fakeMetadata struct {
	metadata map[string]domain.HoldingMetadata
}

func (f *fakeMetadata) GetByISINs(isins []string) (map[string]domain.HoldingMetadata, error) {
	result := make(map[string]domain.HoldingMetadata)
	for _, isin := range isins {
		if meta, ok := f.metadata[isin]; ok {
			result[isin] = meta
		}
	}
	return result, nil
}

type fakeHistory struct {
	series map[string][]domain.PricePoint
}

func (f *fakeHistory) GetSeries(isin string) ([]domain.PricePoint, error) {
	return f.series[isin], nil
}

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		ConcentrationThresholdPct: 30,
		OverDiversificationCount:  15,
		SmallHoldingWeightPct:     5,
	}
}

func newTestService(summary holdings.Summary, metadata map[string]domain.HoldingMetadata, series map[string][]domain.PricePoint) *Service {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(
		&fakeSnapshots{summary: summary},
		&fakeMetadata{metadata: metadata},
		&fakeHistory{series: series},
		testConfig(),
		log,
	)
}

func ptr(f float64) *float64 { return &f }

func holdingAt(isin string, invested, value float64) domain.HoldingSnapshot {
	return domain.HoldingSnapshot{
		ISIN:          isin,
		Name:          isin,
		TotalInvested: invested,
		CurrentValue:  value,
	}
}

func TestMetrics_ConcentrationModerate(t *testing.T) {
	summary := holdings.Summary{
		PortfolioID: "p1",
		Holdings: []domain.HoldingSnapshot{
			holdingAt("A", 30000, 40000),
			holdingAt("B", 15000, 20000),
			holdingAt("C", 15000, 20000),
			holdingAt("D", 15000, 20000),
		},
		TotalValue:    100000,
		TotalInvested: 75000,
	}
	service := newTestService(summary, nil, nil)

	metrics, err := service.Metrics("p1")
	require.NoError(t, err)

	assert.True(t, metrics.HasConcentrationRisk)
	require.Len(t, metrics.ConcentrationRisks, 1)
	alert := metrics.ConcentrationRisks[0]
	assert.Equal(t, "A", alert.ISIN)
	assert.InDelta(t, 40.0, alert.WeightPct, 1e-9)
	// 40% is above the 30% threshold but within 1.5x of it.
	assert.Equal(t, SeverityModerate, alert.Severity)
	assert.Contains(t, alert.Message, "40.0%")
	assert.InDelta(t, 40.0, metrics.MaxWeightPct, 1e-9)
	assert.False(t, metrics.OverDiversified)
}

func TestMetrics_ConcentrationHigh(t *testing.T) {
	summary := holdings.Summary{
		PortfolioID: "p1",
		Holdings: []domain.HoldingSnapshot{
			holdingAt("A", 40000, 50000),
			holdingAt("B", 20000, 25000),
			holdingAt("C", 20000, 25000),
		},
		TotalValue: 100000,
	}
	service := newTestService(summary, nil, nil)

	metrics, err := service.Metrics("p1")
	require.NoError(t, err)

	require.Len(t, metrics.ConcentrationRisks, 1)
	assert.Equal(t, SeverityHigh, metrics.ConcentrationRisks[0].Severity)
}

func TestMetrics_NoConcentrationAtThreshold(t *testing.T) {
	// Exactly 30% does not breach a 30% threshold.
	summary := holdings.Summary{
		PortfolioID: "p1",
		Holdings: []domain.HoldingSnapshot{
			holdingAt("A", 25000, 30000),
			holdingAt("B", 25000, 30000),
			holdingAt("C", 25000, 25000),
			holdingAt("D", 15000, 15000),
		},
		TotalValue: 100000,
	}
	service := newTestService(summary, nil, nil)

	metrics, err := service.Metrics("p1")
	require.NoError(t, err)
	assert.False(t, metrics.HasConcentrationRisk)
	assert.Empty(t, metrics.ConcentrationRisks)
}

func TestMetrics_OverDiversified(t *testing.T) {
	// 21 equal holdings: count above 15 and every weight under 5%.
	var positions []domain.HoldingSnapshot
	for i := 0; i < 21; i++ {
		positions = append(positions, holdingAt(string(rune('A'+i)), 1000, 1000))
	}
	summary := holdings.Summary{
		PortfolioID: "p1",
		Holdings:    positions,
		TotalValue:  21000,
	}
	service := newTestService(summary, nil, nil)

	metrics, err := service.Metrics("p1")
	require.NoError(t, err)
	assert.True(t, metrics.OverDiversified)
	assert.Equal(t, 21, metrics.HoldingCount)
	assert.False(t, metrics.HasConcentrationRisk)
}

func TestMetrics_FewLargeHoldingsNotOverDiversified(t *testing.T) {
	// Many holdings but one above the small-holding cutoff.
	positions := []domain.HoldingSnapshot{holdingAt("BIG", 10000, 10000)}
	for i := 0; i < 16; i++ {
		positions = append(positions, holdingAt(string(rune('a'+i)), 500, 500))
	}
	summary := holdings.Summary{
		PortfolioID: "p1",
		Holdings:    positions,
		TotalValue:  18000,
	}
	service := newTestService(summary, nil, nil)

	metrics, err := service.Metrics("p1")
	require.NoError(t, err)
	assert.False(t, metrics.OverDiversified)
}

func TestMetrics_QuadrantsUseMedianSplit(t *testing.T) {
	// Returns: A +50%, B +20%, C -10%, D 0%. Risk scores configured
	// 8, 3, 9, 2. Medians: return 10%, risk 5.5.
	summary := holdings.Summary{
		PortfolioID: "p1",
		Holdings: []domain.HoldingSnapshot{
			holdingAt("A", 10000, 15000),
			holdingAt("B", 10000, 12000),
			holdingAt("C", 10000, 9000),
			holdingAt("D", 10000, 10000),
		},
		TotalValue: 46000,
	}
	metadata := map[string]domain.HoldingMetadata{
		"A": {ISIN: "A", RiskScore: ptr(8)},
		"B": {ISIN: "B", RiskScore: ptr(3)},
		"C": {ISIN: "C", RiskScore: ptr(9)},
		"D": {ISIN: "D", RiskScore: ptr(2)},
	}
	service := newTestService(summary, metadata, nil)

	metrics, err := service.Metrics("p1")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, metrics.MedianReturnPct, 1e-9)
	assert.InDelta(t, 5.5, metrics.MedianRiskScore, 1e-9)

	byISIN := make(map[string]MatrixEntry)
	for _, entry := range metrics.Matrix {
		byISIN[entry.ISIN] = entry
	}
	assert.Equal(t, QuadrantHighReturnHighRisk, byISIN["A"].Quadrant)
	assert.Equal(t, QuadrantHighReturnLowRisk, byISIN["B"].Quadrant)
	assert.Equal(t, QuadrantLowReturnHighRisk, byISIN["C"].Quadrant)
	assert.Equal(t, QuadrantLowReturnLowRisk, byISIN["D"].Quadrant)
}

func TestClassify_MedianCountsAsHigh(t *testing.T) {
	tests := []struct {
		name                     string
		returnPct, riskScore     float64
		medianReturn, medianRisk float64
		want                     Quadrant
	}{
		{"both above", 20, 8, 10, 5, QuadrantHighReturnHighRisk},
		{"both below", 5, 3, 10, 5, QuadrantLowReturnLowRisk},
		{"return above risk below", 20, 3, 10, 5, QuadrantHighReturnLowRisk},
		{"return below risk above", 5, 8, 10, 5, QuadrantLowReturnHighRisk},
		{"exactly on both medians", 10, 5, 10, 5, QuadrantHighReturnHighRisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.returnPct, tt.riskScore, tt.medianReturn, tt.medianRisk)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRiskScore_ConfiguredScoreWins(t *testing.T) {
	service := newTestService(holdings.Summary{}, nil, nil)

	got := service.riskScore("X", domain.HoldingMetadata{RiskScore: ptr(6.5)})
	assert.InDelta(t, 6.5, got, 1e-9)

	// Configured scores are still clamped to the 1-10 scale.
	assert.InDelta(t, 10.0, service.riskScore("X", domain.HoldingMetadata{RiskScore: ptr(42)}), 1e-9)
	assert.InDelta(t, 1.0, service.riskScore("X", domain.HoldingMetadata{RiskScore: ptr(0)}), 1e-9)
}

func TestRiskScore_VolatilityProxy(t *testing.T) {
	// A perfectly steady monthly series has zero volatility; the proxy
	// clamps up to the floor score.
	series := make([]domain.PricePoint, 0, 13)
	price := 100.0
	for i := 0; i < 13; i++ {
		series = append(series, domain.PricePoint{
			Date:  time.Date(2023, time.Month(1+i%12), 1, 0, 0, 0, 0, time.UTC),
			Price: price,
		})
		price *= 1.02
	}
	service := newTestService(holdings.Summary{}, nil, map[string][]domain.PricePoint{"X": series})

	got := service.riskScore("X", domain.HoldingMetadata{Type: domain.AssetEquity})
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestRiskScore_TypeDefaults(t *testing.T) {
	// Too few price points to trust the volatility proxy.
	short := []domain.PricePoint{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 100},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Price: 110},
	}
	service := newTestService(holdings.Summary{}, nil, map[string][]domain.PricePoint{"X": short})

	assert.InDelta(t, 7.0, service.riskScore("X", domain.HoldingMetadata{Type: domain.AssetEquity}), 1e-9)
	assert.InDelta(t, 5.0, service.riskScore("X", domain.HoldingMetadata{Type: domain.AssetMutualFund}), 1e-9)
	assert.InDelta(t, 5.0, service.riskScore("Y", domain.HoldingMetadata{}), 1e-9)
}

func TestMetrics_EmptyPortfolio(t *testing.T) {
	service := newTestService(holdings.Summary{PortfolioID: "p1"}, nil, nil)

	metrics, err := service.Metrics("p1")
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.HoldingCount)
	assert.Empty(t, metrics.Matrix)
	assert.False(t, metrics.HasConcentrationRisk)
	assert.False(t, metrics.OverDiversified)
}
