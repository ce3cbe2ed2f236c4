package snapshots

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func ptr(f float64) *float64 { return &f }

func setupRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE portfolio_snapshots (
			portfolio_id TEXT NOT NULL,
			snapshot_date TEXT NOT NULL,
			total_value REAL NOT NULL,
			total_invested REAL NOT NULL,
			xirr REAL,
			metrics BLOB,
			PRIMARY KEY (portfolio_id, snapshot_date)
		);
	`)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewRepository(db, log)
}

func TestSaveAndList(t *testing.T) {
	repo := setupRepository(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(Snapshot{
			PortfolioID:   "p1",
			Date:          day(2024, 6, 1+i),
			TotalValue:    100000 + float64(i)*1000,
			TotalInvested: 80000,
			XIRR:          ptr(0.12),
			Metrics: Metrics{
				HoldingCount:        9,
				ReturnPct:           25 + float64(i),
				MaxDrawdownPct:      3.5,
				TopHoldingWeightPct: 22.1,
			},
		}))
	}

	list, err := repo.List("p1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Newest first.
	assert.True(t, list[0].Date.Equal(day(2024, 6, 3)))
	assert.True(t, list[2].Date.Equal(day(2024, 6, 1)))

	got := list[0]
	assert.InDelta(t, 102000.0, got.TotalValue, 1e-9)
	require.NotNil(t, got.XIRR)
	assert.InDelta(t, 0.12, *got.XIRR, 1e-9)
	assert.Equal(t, 9, got.Metrics.HoldingCount)
	assert.InDelta(t, 27.0, got.Metrics.ReturnPct, 1e-9)
	assert.InDelta(t, 3.5, got.Metrics.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, 22.1, got.Metrics.TopHoldingWeightPct, 1e-9)
}

func TestList_RespectsLimit(t *testing.T) {
	repo := setupRepository(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(Snapshot{
			PortfolioID: "p1", Date: day(2024, 6, 1+i), TotalValue: 1000,
		}))
	}

	list, err := repo.List("p1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Date.Equal(day(2024, 6, 5)))
	assert.True(t, list[1].Date.Equal(day(2024, 6, 4)))
}

func TestSave_SameDayOverwrites(t *testing.T) {
	repo := setupRepository(t)

	require.NoError(t, repo.Save(Snapshot{
		PortfolioID: "p1", Date: day(2024, 6, 1), TotalValue: 100000,
		Metrics: Metrics{HoldingCount: 5},
	}))
	require.NoError(t, repo.Save(Snapshot{
		PortfolioID: "p1", Date: day(2024, 6, 1), TotalValue: 101500,
		Metrics: Metrics{HoldingCount: 6},
	}))

	list, err := repo.List("p1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 101500.0, list[0].TotalValue, 1e-9)
	assert.Equal(t, 6, list[0].Metrics.HoldingCount)
}

func TestList_ScopedToPortfolio(t *testing.T) {
	repo := setupRepository(t)

	require.NoError(t, repo.Save(Snapshot{PortfolioID: "p1", Date: day(2024, 6, 1), TotalValue: 1}))
	require.NoError(t, repo.Save(Snapshot{PortfolioID: "p2", Date: day(2024, 6, 1), TotalValue: 2}))

	list, err := repo.List("p1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].PortfolioID)
}

func TestLatest(t *testing.T) {
	repo := setupRepository(t)

	_, err := repo.Latest("p1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.Save(Snapshot{PortfolioID: "p1", Date: day(2024, 6, 1), TotalValue: 1000}))
	require.NoError(t, repo.Save(Snapshot{PortfolioID: "p1", Date: day(2024, 6, 2), TotalValue: 2000}))

	latest, err := repo.Latest("p1")
	require.NoError(t, err)
	assert.True(t, latest.Date.Equal(day(2024, 6, 2)))
	assert.InDelta(t, 2000.0, latest.TotalValue, 1e-9)
}

func TestSnapshotWithoutXIRR(t *testing.T) {
	repo := setupRepository(t)

	require.NoError(t, repo.Save(Snapshot{PortfolioID: "p1", Date: day(2024, 6, 1), TotalValue: 1000}))

	latest, err := repo.Latest("p1")
	require.NoError(t, err)
	assert.Nil(t, latest.XIRR)
}
