package snapshots

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/holdings"
	"github.com/wealthmax/insight/pkg/formulas"
)

// PortfolioLister supplies the portfolios to snapshot.
type PortfolioLister interface {
	ListPortfolios() ([]string, error)
}

// SummaryProvider supplies the current holdings summary.
type SummaryProvider interface {
	Snapshot(portfolioID string) (holdings.Summary, error)
}

// PerformanceProvider supplies the return figures recorded per snapshot.
type PerformanceProvider interface {
	PortfolioXIRR(portfolioID string) (float64, error)
	DrawdownSeries(portfolioID string, start, end time.Time) ([]domain.DrawdownPoint, error)
}

// RecordJob records one snapshot per portfolio per run. Scheduled daily;
// re-runs on the same day overwrite that day's row, so the job is safe to
// trigger manually.
type RecordJob struct {
	portfolios  PortfolioLister
	summaries   SummaryProvider
	performance PerformanceProvider
	repo        *Repository
	now         func() time.Time
	log         zerolog.Logger
}

// NewRecordJob creates the daily snapshot recording job.
func NewRecordJob(
	portfolios PortfolioLister,
	summaries SummaryProvider,
	performance PerformanceProvider,
	repo *Repository,
	log zerolog.Logger,
) *RecordJob {
	return &RecordJob{
		portfolios:  portfolios,
		summaries:   summaries,
		performance: performance,
		repo:        repo,
		now:         time.Now,
		log:         log.With().Str("job", "record_snapshots").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *RecordJob) Name() string { return "record_snapshots" }

// Run implements scheduler.Job. A failure for one portfolio is logged and
// does not block the others.
func (j *RecordJob) Run() error {
	ids, err := j.portfolios.ListPortfolios()
	if err != nil {
		return fmt.Errorf("failed to list portfolios: %w", err)
	}

	failures := 0
	for _, id := range ids {
		if err := j.record(id); err != nil {
			j.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to record snapshot")
			failures++
		}
	}

	j.log.Info().Int("portfolios", len(ids)).Int("failures", failures).Msg("Snapshot run complete")
	if failures > 0 {
		return fmt.Errorf("snapshot recording failed for %d of %d portfolios", failures, len(ids))
	}
	return nil
}

func (j *RecordJob) record(portfolioID string) error {
	summary, err := j.summaries.Snapshot(portfolioID)
	if err != nil {
		return err
	}

	snapshot := Snapshot{
		PortfolioID:   portfolioID,
		Date:          j.now(),
		TotalValue:    summary.TotalValue,
		TotalInvested: summary.TotalInvested,
		Metrics: Metrics{
			HoldingCount: len(summary.Holdings),
			ReturnPct:    formulas.SimpleReturnPct(summary.TotalValue, summary.TotalInvested),
		},
	}
	if summary.TotalValue > 0 && len(summary.Holdings) > 0 {
		// Holdings are sorted by current value descending.
		snapshot.Metrics.TopHoldingWeightPct = summary.Holdings[0].CurrentValue / summary.TotalValue * 100
	}

	// XIRR and drawdown depend on price history; their absence degrades
	// the snapshot rather than failing it.
	if xirr, err := j.performance.PortfolioXIRR(portfolioID); err == nil {
		snapshot.XIRR = &xirr
	} else {
		j.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("XIRR unavailable for snapshot")
	}

	if drawdown, err := j.performance.DrawdownSeries(portfolioID, time.Time{}, time.Time{}); err == nil {
		values := make([]float64, len(drawdown))
		for i, p := range drawdown {
			values[i] = -p.DrawdownPct
		}
		if len(values) > 0 {
			snapshot.Metrics.MaxDrawdownPct = maxOf(values)
		}
	} else {
		j.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("Drawdown unavailable for snapshot")
	}

	return j.repo.Save(snapshot)
}

func maxOf(values []float64) float64 {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
