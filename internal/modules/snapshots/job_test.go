package snapshots

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/holdings"
)

type fakeLister struct {
	ids []string
}

func (f *fakeLister) ListPortfolios() ([]string, error) { return f.ids, nil }

type fakeSummaries struct {
	summaries map[string]holdings.Summary
	failFor   map[string]bool
}

func (f *fakeSummaries) Snapshot(portfolioID string) (holdings.Summary, error) {
	if f.failFor[portfolioID] {
		return holdings.Summary{}, errors.New("boom")
	}
	return f.summaries[portfolioID], nil
}

type fakePerformance struct {
	xirr        float64
	xirrErr     error
	drawdown    []domain.DrawdownPoint
	drawdownErr error
}

func (f *fakePerformance) PortfolioXIRR(portfolioID string) (float64, error) {
	return f.xirr, f.xirrErr
}

func (f *fakePerformance) DrawdownSeries(portfolioID string, start, end time.Time) ([]domain.DrawdownPoint, error) {
	return f.drawdown, f.drawdownErr
}

func newTestJob(t *testing.T, lister *fakeLister, summaries *fakeSummaries, performance *fakePerformance) (*RecordJob, *Repository) {
	t.Helper()
	repo := setupRepository(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	job := NewRecordJob(lister, summaries, performance, repo, log)
	job.now = func() time.Time { return day(2024, 6, 15) }
	return job, repo
}

func twoHoldingSummary() holdings.Summary {
	return holdings.Summary{
		PortfolioID: "p1",
		Holdings: []domain.HoldingSnapshot{
			{ISIN: "A", CurrentValue: 9000, TotalInvested: 6000},
			{ISIN: "B", CurrentValue: 3000, TotalInvested: 2000},
		},
		TotalValue:    12000,
		TotalInvested: 8000,
	}
}

func TestRecordJob_RecordsFullSnapshot(t *testing.T) {
	job, repo := newTestJob(t,
		&fakeLister{ids: []string{"p1"}},
		&fakeSummaries{summaries: map[string]holdings.Summary{"p1": twoHoldingSummary()}},
		&fakePerformance{
			xirr: 0.18,
			drawdown: []domain.DrawdownPoint{
				{Date: day(2024, 1, 1), DrawdownPct: 0},
				{Date: day(2024, 2, 1), DrawdownPct: -8.5},
				{Date: day(2024, 3, 1), DrawdownPct: -3.2},
			},
		},
	)

	require.NoError(t, job.Run())

	got, err := repo.Latest("p1")
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(day(2024, 6, 15)))
	assert.InDelta(t, 12000.0, got.TotalValue, 1e-9)
	assert.InDelta(t, 8000.0, got.TotalInvested, 1e-9)
	require.NotNil(t, got.XIRR)
	assert.InDelta(t, 0.18, *got.XIRR, 1e-9)
	assert.Equal(t, 2, got.Metrics.HoldingCount)
	assert.InDelta(t, 50.0, got.Metrics.ReturnPct, 1e-9)
	assert.InDelta(t, 8.5, got.Metrics.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, 75.0, got.Metrics.TopHoldingWeightPct, 1e-9)
}

func TestRecordJob_DegradesWhenPerformanceUnavailable(t *testing.T) {
	job, repo := newTestJob(t,
		&fakeLister{ids: []string{"p1"}},
		&fakeSummaries{summaries: map[string]holdings.Summary{"p1": twoHoldingSummary()}},
		&fakePerformance{
			xirrErr:     errors.New("no price history"),
			drawdownErr: errors.New("no price history"),
		},
	)

	require.NoError(t, job.Run())

	got, err := repo.Latest("p1")
	require.NoError(t, err)
	assert.Nil(t, got.XIRR)
	assert.Zero(t, got.Metrics.MaxDrawdownPct)
	// The composition metrics still made it in.
	assert.Equal(t, 2, got.Metrics.HoldingCount)
	assert.InDelta(t, 12000.0, got.TotalValue, 1e-9)
}

func TestRecordJob_OneFailureDoesNotBlockOthers(t *testing.T) {
	job, repo := newTestJob(t,
		&fakeLister{ids: []string{"bad", "p1"}},
		&fakeSummaries{
			summaries: map[string]holdings.Summary{"p1": twoHoldingSummary()},
			failFor:   map[string]bool{"bad": true},
		},
		&fakePerformance{xirr: 0.1},
	)

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	// The healthy portfolio was still recorded.
	_, err = repo.Latest("p1")
	require.NoError(t, err)
}

func TestRecordJob_Name(t *testing.T) {
	job, _ := newTestJob(t, &fakeLister{}, &fakeSummaries{}, &fakePerformance{})
	assert.Equal(t, "record_snapshots", job.Name())
}
