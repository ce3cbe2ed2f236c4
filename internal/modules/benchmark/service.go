package benchmark

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
	"github.com/wealthmax/insight/internal/modules/valuation"
	"github.com/wealthmax/insight/pkg/formulas"
)

// MetadataProvider supplies holding metadata (for category resolution).
type MetadataProvider interface {
	GetByISINs(isins []string) (map[string]domain.HoldingMetadata, error)
}

// PerformanceProvider supplies the portfolio's own money-weighted return.
type PerformanceProvider interface {
	PortfolioXIRR(portfolioID string) (float64, error)
}

// Service compares a portfolio's money-weighted return against the market
// index its holdings map to.
type Service struct {
	reader      *ledger.Reader
	repo        *Repository
	metadata    MetadataProvider
	performance PerformanceProvider
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates a new benchmark comparison service.
func NewService(
	reader *ledger.Reader,
	repo *Repository,
	metadata MetadataProvider,
	performance PerformanceProvider,
	log zerolog.Logger,
) *Service {
	return &Service{
		reader:      reader,
		repo:        repo,
		metadata:    metadata,
		performance: performance,
		now:         time.Now,
		log:         log.With().Str("service", "benchmark").Logger(),
	}
}

// Compare runs the synthetic-investment comparison: what the portfolio's
// exact cash flows would have returned had they bought the mapped index
// instead. Returns domain.ErrBenchmarkUnavailable (non-fatal) when no index
// can be resolved or the index lacks history in the investment window.
func (s *Service) Compare(portfolioID string) (Comparison, error) {
	timelines, err := s.reader.PortfolioTimelines(portfolioID)
	if err != nil {
		return Comparison{}, err
	}

	portfolioXIRR, err := s.performance.PortfolioXIRR(portfolioID)
	if err != nil {
		return Comparison{}, err
	}

	idx, err := s.resolveIndex(timelines)
	if err != nil {
		return Comparison{}, err
	}

	series, err := s.repo.GetHistory(idx.ID)
	if err != nil {
		return Comparison{}, err
	}

	benchmarkXIRR, err := SyntheticIndexXIRR(ledger.CombinedCashFlows(timelines), series, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNoPriceAvailable) {
			return Comparison{}, domain.ErrBenchmarkUnavailable
		}
		return Comparison{}, err
	}

	return Comparison{
		IndexName:      idx.Name,
		PortfolioXIRR:  portfolioXIRR,
		BenchmarkXIRR:  benchmarkXIRR,
		Outperformance: portfolioXIRR - benchmarkXIRR,
	}, nil
}

// resolveIndex picks the benchmark for a portfolio: the index mapped from
// the category that received the largest invested amount. Mixed portfolios
// get the benchmark of what they mostly are.
func (s *Service) resolveIndex(timelines map[string]*ledger.HoldingTimeline) (Index, error) {
	isins := make([]string, 0, len(timelines))
	for isin := range timelines {
		isins = append(isins, isin)
	}

	metadata, err := s.metadata.GetByISINs(isins)
	if err != nil {
		return Index{}, fmt.Errorf("failed to load holding metadata: %w", err)
	}

	investedByCategory := make(map[string]float64)
	for isin, timeline := range timelines {
		meta, ok := metadata[isin]
		if !ok || meta.Category == "" {
			continue
		}
		investedByCategory[meta.Category] += timeline.TotalInvested
	}

	dominant := ""
	best := 0.0
	for category, invested := range investedByCategory {
		if invested > best {
			dominant = category
			best = invested
		}
	}
	if dominant == "" {
		return Index{}, domain.ErrBenchmarkUnavailable
	}

	return s.repo.IndexForCategory(dominant)
}

// SyntheticIndexXIRR replays signed cash flows into an index value series:
// each investor outflow buys index units at the as-of value, each inflow
// sells them, and the accumulated units are marked to the as-of value at
// end as a terminal inflow. Pure function.
//
// Returns domain.ErrNoPriceAvailable when any flow predates the index
// history, and the solver's errors for degenerate flow sets.
func SyntheticIndexXIRR(flows []formulas.CashFlow, series []domain.PricePoint, end time.Time) (float64, error) {
	if len(series) == 0 {
		return 0, domain.ErrNoPriceAvailable
	}

	units := 0.0
	for _, flow := range flows {
		value, err := valuation.ValueAt(series, flow.Date)
		if err != nil {
			return 0, err
		}
		// Negative amount buys units, positive sells them.
		units += -flow.Amount / value
	}

	endValue, err := valuation.ValueAt(series, end)
	if err != nil {
		return 0, err
	}

	synthetic := make([]formulas.CashFlow, len(flows), len(flows)+1)
	copy(synthetic, flows)
	synthetic = append(synthetic, formulas.CashFlow{Date: end, Amount: units * endValue})
	return formulas.XIRR(synthetic)
}
