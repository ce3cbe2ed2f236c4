package performance

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
	"github.com/wealthmax/insight/internal/modules/valuation"
	"github.com/wealthmax/insight/pkg/formulas"
)

// HistoryProvider is the slice of the NAV history repository the
// performance service needs. Narrowed to an interface for testing.
type HistoryProvider interface {
	GetSeriesForHoldings(isins []string) (map[string][]domain.PricePoint, error)
}

// Service orchestrates performance analytics for stored portfolios. The
// heavy lifting is done by the pure functions in this package; the service
// only materializes inputs and applies range defaults.
type Service struct {
	reader  *ledger.Reader
	history HistoryProvider
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a new performance service.
func NewService(reader *ledger.Reader, history HistoryProvider, log zerolog.Logger) *Service {
	return &Service{
		reader:  reader,
		history: history,
		now:     time.Now,
		log:     log.With().Str("service", "performance").Logger(),
	}
}

// snapshotInputs materializes the immutable inputs one analytics request
// operates on. Everything downstream of this call is pure computation.
type snapshotInputs struct {
	timelines map[string]*ledger.HoldingTimeline
	series    map[string][]domain.PricePoint
	firstDate time.Time
}

func (s *Service) materialize(portfolioID string) (*snapshotInputs, error) {
	timelines, err := s.reader.PortfolioTimelines(portfolioID)
	if err != nil {
		return nil, err
	}

	isins := make([]string, 0, len(timelines))
	var firstDate time.Time
	for isin, timeline := range timelines {
		isins = append(isins, isin)
		if firstDate.IsZero() || timeline.FirstDate().Before(firstDate) {
			firstDate = timeline.FirstDate()
		}
	}

	series, err := s.history.GetSeriesForHoldings(isins)
	if err != nil {
		return nil, fmt.Errorf("failed to load nav history: %w", err)
	}

	return &snapshotInputs{
		timelines: timelines,
		series:    series,
		firstDate: firstDate,
	}, nil
}

// GrowthCurve computes the portfolio growth curve. A zero start falls back
// to the first transaction date, a zero end to today. When smooth is true
// the values are EMA-smoothed (6-period) for charting; the raw curve is
// used for all derived analytics.
func (s *Service) GrowthCurve(portfolioID string, start, end time.Time, smooth bool) ([]domain.GrowthPoint, error) {
	inputs, err := s.materialize(portfolioID)
	if err != nil {
		return nil, err
	}

	if start.IsZero() || start.Before(inputs.firstDate) {
		start = inputs.firstDate
	}
	if end.IsZero() {
		end = s.now()
	}

	curve := BuildGrowthCurve(inputs.timelines, inputs.series, start, end, ResolutionMonthly)
	if !smooth {
		return curve, nil
	}

	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Value
	}
	smoothed := formulas.EMASeries(values, 6)
	for i := range curve {
		curve[i].Value = smoothed[i]
	}
	return curve, nil
}

// DrawdownSeries computes the drawdown series over the raw growth curve.
func (s *Service) DrawdownSeries(portfolioID string, start, end time.Time) ([]domain.DrawdownPoint, error) {
	curve, err := s.GrowthCurve(portfolioID, start, end, false)
	if err != nil {
		return nil, err
	}
	return BuildDrawdownSeries(curve), nil
}

// RollingReturns computes trailing returns over the full growth curve.
func (s *Service) RollingReturns(portfolioID string, windowMonths int) ([]domain.RollingReturnPoint, error) {
	curve, err := s.GrowthCurve(portfolioID, time.Time{}, time.Time{}, false)
	if err != nil {
		return nil, err
	}
	return RollingReturns(curve, windowMonths), nil
}

// PortfolioXIRR computes the money-weighted annualized return of the whole
// portfolio: all signed ledger cash flows plus the current portfolio value
// as a terminal inflow dated today.
func (s *Service) PortfolioXIRR(portfolioID string) (float64, error) {
	inputs, err := s.materialize(portfolioID)
	if err != nil {
		return 0, err
	}
	return xirrWithTerminalValue(
		ledger.CombinedCashFlows(inputs.timelines),
		valuation.PortfolioValueAt(inputs.timelines, inputs.series, s.now()),
		s.now(),
	)
}

// HoldingXIRR computes the money-weighted return of a single holding.
func (s *Service) HoldingXIRR(portfolioID, isin string) (float64, error) {
	inputs, err := s.materialize(portfolioID)
	if err != nil {
		return 0, err
	}
	timeline, ok := inputs.timelines[isin]
	if !ok {
		return 0, domain.ErrEmptyLedger
	}

	value, err := valuation.HoldingValueAt(timeline, inputs.series[isin], s.now())
	if err != nil {
		return 0, err
	}
	return xirrWithTerminalValue(timeline.CashFlows(), value, s.now())
}

// XIRR computes the rate for a caller-supplied cash-flow list, the raw
// solver surface exposed over HTTP for ad-hoc what-if queries.
func (s *Service) XIRR(flows []formulas.CashFlow) (float64, error) {
	return formulas.XIRR(flows)
}

// xirrWithTerminalValue appends the current valuation as a terminal inflow
// and solves. A zero terminal value is still appended; the solver's own
// validation decides whether the flows are degenerate.
func xirrWithTerminalValue(flows []formulas.CashFlow, terminalValue float64, at time.Time) (float64, error) {
	withTerminal := make([]formulas.CashFlow, len(flows), len(flows)+1)
	copy(withTerminal, flows)
	withTerminal = append(withTerminal, formulas.CashFlow{Date: at, Amount: terminalValue})
	return formulas.XIRR(withTerminal)
}
