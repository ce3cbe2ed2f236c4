package holdings

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
)

// Summary is the derived current state of a portfolio: per-holding
// snapshots plus the aggregate totals they roll up to.
type Summary struct {
	PortfolioID   string                   `json:"portfolio_id"`
	Holdings      []domain.HoldingSnapshot `json:"holdings"`
	TotalValue    float64                  `json:"total_value"`
	TotalInvested float64                  `json:"total_invested"`
	AsOf          time.Time                `json:"as_of"`
}

// HistoryProvider supplies price series for current-value fallbacks.
type HistoryProvider interface {
	GetSeries(isin string) ([]domain.PricePoint, error)
}

// Service derives point-in-time holding snapshots from the ledger. Positions
// are never stored; they are recomputed from transactions on every request.
type Service struct {
	reader  *ledger.Reader
	repo    *Repository
	history HistoryProvider
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a new holdings service.
func NewService(reader *ledger.Reader, repo *Repository, history HistoryProvider, log zerolog.Logger) *Service {
	return &Service{
		reader:  reader,
		repo:    repo,
		history: history,
		now:     time.Now,
		log:     log.With().Str("service", "holdings").Logger(),
	}
}

// Snapshot derives the current position for every holding in the portfolio.
// Holdings whose units have gone to zero (fully sold) are excluded. Holdings
// with no resolvable price contribute their invested amount but a zero
// current value, with a warning.
func (s *Service) Snapshot(portfolioID string) (Summary, error) {
	timelines, err := s.reader.PortfolioTimelines(portfolioID)
	if err != nil {
		return Summary{}, err
	}

	isins := make([]string, 0, len(timelines))
	for isin := range timelines {
		isins = append(isins, isin)
	}
	metadata, err := s.repo.GetByISINs(isins)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		PortfolioID: portfolioID,
		Holdings:    make([]domain.HoldingSnapshot, 0, len(timelines)),
		AsOf:        s.now(),
	}

	for isin, timeline := range timelines {
		if timeline.TotalUnits <= 0 {
			continue
		}

		snapshot := domain.HoldingSnapshot{
			ISIN:          isin,
			TotalUnits:    timeline.TotalUnits,
			TotalInvested: timeline.TotalInvested,
		}
		if timeline.TotalUnits > 0 {
			snapshot.AverageCost = timeline.TotalInvested / timeline.TotalUnits
		}

		meta, hasMeta := metadata[isin]
		if hasMeta {
			snapshot.Name = meta.Name
			snapshot.AssetType = meta.Type
			snapshot.Category = meta.Category
		} else {
			snapshot.Name = isin
		}

		price := s.resolvePrice(isin, meta, hasMeta)
		if price > 0 {
			snapshot.CurrentPrice = price
			snapshot.CurrentValue = timeline.TotalUnits * price
		} else {
			s.log.Warn().Str("isin", isin).Msg("No current price for holding, valuing at zero")
		}

		summary.Holdings = append(summary.Holdings, snapshot)
		summary.TotalValue += snapshot.CurrentValue
		summary.TotalInvested += snapshot.TotalInvested
	}

	sort.Slice(summary.Holdings, func(i, j int) bool {
		return summary.Holdings[i].CurrentValue > summary.Holdings[j].CurrentValue
	})
	return summary, nil
}

// resolvePrice prefers the metadata feed's latest NAV and falls back to the
// most recent price history point.
func (s *Service) resolvePrice(isin string, meta domain.HoldingMetadata, hasMeta bool) float64 {
	if hasMeta && meta.CurrentNAV > 0 {
		return meta.CurrentNAV
	}
	series, err := s.history.GetSeries(isin)
	if err != nil || len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Price
}
