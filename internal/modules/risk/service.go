package risk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/config"
	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/holdings"
	"github.com/wealthmax/insight/pkg/formulas"
)

// Minimum price observations required before the volatility proxy is
// trusted over the per-asset-type default.
const minVolatilityPoints = 12

// Per-asset-type risk scores used when no configured score and no usable
// price history exist. Scores live on a 1-10 scale.
const (
	defaultEquityRisk     = 7.0
	defaultMutualFundRisk = 5.0
	minRiskScore          = 1.0
	maxRiskScore          = 10.0
)

// MetadataProvider supplies holding metadata for risk scoring.
type MetadataProvider interface {
	GetByISINs(isins []string) (map[string]domain.HoldingMetadata, error)
}

// HistoryProvider supplies price series for the volatility proxy.
type HistoryProvider interface {
	GetSeries(isin string) ([]domain.PricePoint, error)
}

// SnapshotProvider supplies the current portfolio composition.
type SnapshotProvider interface {
	Snapshot(portfolioID string) (holdings.Summary, error)
}

// Service classifies portfolio risk: the risk-return matrix, concentration
// breaches, and the over-diversification flag.
type Service struct {
	snapshots SnapshotProvider
	metadata  MetadataProvider
	history   HistoryProvider
	cfg       config.AnalyticsConfig
	log       zerolog.Logger
}

// NewService creates a new risk classification service.
func NewService(
	snapshots SnapshotProvider,
	metadata MetadataProvider,
	history HistoryProvider,
	cfg config.AnalyticsConfig,
	log zerolog.Logger,
) *Service {
	return &Service{
		snapshots: snapshots,
		metadata:  metadata,
		history:   history,
		cfg:       cfg,
		log:       log.With().Str("service", "risk").Logger(),
	}
}

// Metrics computes the full risk picture for a portfolio from its current
// holding snapshot. Weights are current-value weights; returns are simple
// unrealized returns on invested capital.
func (s *Service) Metrics(portfolioID string) (Metrics, error) {
	summary, err := s.snapshots.Snapshot(portfolioID)
	if err != nil {
		return Metrics{}, err
	}

	isins := make([]string, 0, len(summary.Holdings))
	for _, h := range summary.Holdings {
		isins = append(isins, h.ISIN)
	}
	metadata, err := s.metadata.GetByISINs(isins)
	if err != nil {
		return Metrics{}, err
	}

	metrics := Metrics{
		PortfolioID:  portfolioID,
		Matrix:       make([]MatrixEntry, 0, len(summary.Holdings)),
		HoldingCount: len(summary.Holdings),
	}

	returns := make([]float64, 0, len(summary.Holdings))
	scores := make([]float64, 0, len(summary.Holdings))
	for _, h := range summary.Holdings {
		entry := MatrixEntry{
			ISIN:      h.ISIN,
			Name:      h.Name,
			ReturnPct: formulas.SimpleReturnPct(h.CurrentValue, h.TotalInvested),
			RiskScore: s.riskScore(h.ISIN, metadata[h.ISIN]),
		}
		if summary.TotalValue > 0 {
			entry.WeightPct = h.CurrentValue / summary.TotalValue * 100
		}
		if entry.WeightPct > metrics.MaxWeightPct {
			metrics.MaxWeightPct = entry.WeightPct
		}

		returns = append(returns, entry.ReturnPct)
		scores = append(scores, entry.RiskScore)
		metrics.Matrix = append(metrics.Matrix, entry)
	}

	if len(metrics.Matrix) > 0 {
		metrics.MedianReturnPct = formulas.Median(returns)
		metrics.MedianRiskScore = formulas.Median(scores)
		for i := range metrics.Matrix {
			metrics.Matrix[i].Quadrant = classify(
				metrics.Matrix[i].ReturnPct, metrics.Matrix[i].RiskScore,
				metrics.MedianReturnPct, metrics.MedianRiskScore)
		}
	}

	metrics.ConcentrationRisks = s.concentrationAlerts(metrics.Matrix)
	metrics.HasConcentrationRisk = len(metrics.ConcentrationRisks) > 0
	metrics.OverDiversified = metrics.HoldingCount > s.cfg.OverDiversificationCount &&
		metrics.MaxWeightPct < s.cfg.SmallHoldingWeightPct
	return metrics, nil
}

// classify places a holding relative to the portfolio medians. Values on
// the median count as high.
func classify(returnPct, riskScore, medianReturn, medianRisk float64) Quadrant {
	highReturn := returnPct >= medianReturn
	highRisk := riskScore >= medianRisk
	switch {
	case highReturn && highRisk:
		return QuadrantHighReturnHighRisk
	case highReturn:
		return QuadrantHighReturnLowRisk
	case highRisk:
		return QuadrantLowReturnHighRisk
	default:
		return QuadrantLowReturnLowRisk
	}
}

func (s *Service) concentrationAlerts(matrix []MatrixEntry) []ConcentrationAlert {
	threshold := s.cfg.ConcentrationThresholdPct
	alerts := make([]ConcentrationAlert, 0)
	for _, entry := range matrix {
		if entry.WeightPct <= threshold {
			continue
		}
		severity := SeverityModerate
		if entry.WeightPct > threshold*1.5 {
			severity = SeverityHigh
		}
		alerts = append(alerts, ConcentrationAlert{
			ISIN:      entry.ISIN,
			Name:      entry.Name,
			WeightPct: entry.WeightPct,
			Severity:  severity,
			Message: fmt.Sprintf("%s makes up %.1f%% of the portfolio, above the %.0f%% concentration threshold",
				entry.Name, entry.WeightPct, threshold),
		})
	}
	return alerts
}

// riskScore resolves a holding's risk score: configured metadata score,
// then an annualized-volatility proxy over stored price history, then the
// per-asset-type default.
func (s *Service) riskScore(isin string, meta domain.HoldingMetadata) float64 {
	if meta.RiskScore != nil {
		return clampScore(*meta.RiskScore)
	}

	series, err := s.history.GetSeries(isin)
	if err == nil && len(series) >= minVolatilityPoints {
		values := make([]float64, len(series))
		for i, p := range series {
			values[i] = p.Price
		}
		vol := formulas.AnnualizedVolatilityMonthly(formulas.CalculateReturns(values))
		// Roughly 5% annualized volatility per score point.
		return clampScore(vol * 100 / 5)
	}

	switch meta.Type {
	case domain.AssetEquity:
		return defaultEquityRisk
	default:
		return defaultMutualFundRisk
	}
}

func clampScore(score float64) float64 {
	if score < minRiskScore {
		return minRiskScore
	}
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}
