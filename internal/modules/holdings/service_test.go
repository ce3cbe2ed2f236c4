package holdings

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/ledger"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func ptr(f float64) *float64 { return &f }

func setupPortfolioDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE holding_metadata (
			isin TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			ticker TEXT,
			category TEXT,
			current_nav REAL NOT NULL DEFAULT 0,
			nav_date TEXT,
			risk_score REAL,
			description TEXT
		);
	`)
	require.NoError(t, err)
	return db
}

func setupLedgerDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE portfolios (id TEXT PRIMARY KEY, alias TEXT NOT NULL, source TEXT);
		CREATE TABLE portfolio_transactions (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL,
			isin TEXT NOT NULL,
			transaction_date TEXT NOT NULL,
			transaction_type TEXT NOT NULL,
			units REAL NOT NULL,
			amount REAL NOT NULL,
			nav REAL,
			source TEXT,
			UNIQUE(portfolio_id, isin, transaction_date, amount)
		);
	`)
	require.NoError(t, err)
	return db
}

type fakeHistory struct {
	series map[string][]domain.PricePoint
}

func (f *fakeHistory) GetSeries(isin string) ([]domain.PricePoint, error) {
	return f.series[isin], nil
}

func TestRepository_UpsertRoundtrip(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupPortfolioDB(t), log)

	navDate := day(2024, 6, 1)
	meta := domain.HoldingMetadata{
		ISIN:       "INF1",
		Name:       "Bluechip Fund",
		Type:       domain.AssetMutualFund,
		Category:   "Large Cap",
		CurrentNAV: 58.42,
		NAVDate:    &navDate,
		RiskScore:  ptr(6),
	}
	require.NoError(t, repo.Upsert(meta))

	got, err := repo.GetByISIN("INF1")
	require.NoError(t, err)
	assert.Equal(t, "Bluechip Fund", got.Name)
	assert.Equal(t, domain.AssetMutualFund, got.Type)
	assert.Equal(t, "Large Cap", got.Category)
	assert.InDelta(t, 58.42, got.CurrentNAV, 1e-9)
	require.NotNil(t, got.NAVDate)
	assert.True(t, got.NAVDate.Equal(navDate))
	require.NotNil(t, got.RiskScore)
	assert.InDelta(t, 6.0, *got.RiskScore, 1e-9)

	// Re-upserting replaces the row instead of erroring.
	meta.Name = "Bluechip Fund Direct"
	meta.RiskScore = nil
	require.NoError(t, repo.Upsert(meta))

	got, err = repo.GetByISIN("INF1")
	require.NoError(t, err)
	assert.Equal(t, "Bluechip Fund Direct", got.Name)
	assert.Nil(t, got.RiskScore)
}

func TestRepository_GetByISINsSkipsUnknown(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupPortfolioDB(t), log)

	require.NoError(t, repo.Upsert(domain.HoldingMetadata{ISIN: "INF1", Name: "A", Type: domain.AssetMutualFund}))
	require.NoError(t, repo.Upsert(domain.HoldingMetadata{ISIN: "INE1", Name: "B", Type: domain.AssetEquity}))

	result, err := repo.GetByISINs([]string{"INF1", "MISSING", "INE1"})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Contains(t, result, "INF1")
	assert.Contains(t, result, "INE1")
	assert.NotContains(t, result, "MISSING")

	empty, err := repo.GetByISINs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_UpdateNAV(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupPortfolioDB(t), log)

	require.NoError(t, repo.Upsert(domain.HoldingMetadata{ISIN: "INF1", Name: "A", Type: domain.AssetMutualFund, CurrentNAV: 100}))
	require.NoError(t, repo.UpdateNAV("INF1", 105.5, day(2024, 7, 1)))

	got, err := repo.GetByISIN("INF1")
	require.NoError(t, err)
	assert.InDelta(t, 105.5, got.CurrentNAV, 1e-9)
	require.NotNil(t, got.NAVDate)
	assert.True(t, got.NAVDate.Equal(day(2024, 7, 1)))
}

func TestRepository_GetByISINUnknown(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupPortfolioDB(t), log)

	_, err := repo.GetByISIN("NOPE")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func setupService(t *testing.T, history HistoryProvider) (*Service, *Repository, *ledger.Repository, string) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	ledgerRepo := ledger.NewRepository(setupLedgerDB(t), log)
	portfolioID, err := ledgerRepo.CreatePortfolio("Test", "MANUAL")
	require.NoError(t, err)

	repo := NewRepository(setupPortfolioDB(t), log)
	service := NewService(ledger.NewReader(ledgerRepo, log), repo, history, log)
	service.now = func() time.Time { return day(2024, 7, 1) }
	return service, repo, ledgerRepo, portfolioID
}

func insertTx(t *testing.T, repo *ledger.Repository, portfolioID, isin string, date time.Time, txType domain.TransactionType, units, amount float64) {
	t.Helper()
	_, err := repo.Insert(domain.Transaction{
		PortfolioID: portfolioID, ISIN: isin, Date: date,
		Type: txType, Units: units, Amount: amount,
	})
	require.NoError(t, err)
}

func TestSnapshot_DerivesPositionsFromLedger(t *testing.T) {
	history := &fakeHistory{series: map[string][]domain.PricePoint{
		"INE1": {{Date: day(2024, 6, 1), Price: 150}},
	}}
	service, repo, ledgerRepo, portfolioID := setupService(t, history)

	// INF1 priced from its metadata NAV.
	require.NoError(t, repo.Upsert(domain.HoldingMetadata{
		ISIN: "INF1", Name: "Bluechip Fund", Type: domain.AssetMutualFund,
		Category: "Large Cap", CurrentNAV: 120,
	}))
	insertTx(t, ledgerRepo, portfolioID, "INF1", day(2023, 1, 1), domain.TransactionBuy, 100, 10000)

	// INE1 has no metadata NAV; falls back to the last history point.
	insertTx(t, ledgerRepo, portfolioID, "INE1", day(2023, 6, 1), domain.TransactionBuy, 10, 1200)

	summary, err := service.Snapshot(portfolioID)
	require.NoError(t, err)

	require.Len(t, summary.Holdings, 2)
	// Sorted by current value, largest first.
	first, second := summary.Holdings[0], summary.Holdings[1]
	assert.Equal(t, "INF1", first.ISIN)
	assert.Equal(t, "Bluechip Fund", first.Name)
	assert.InDelta(t, 100.0, first.AverageCost, 1e-9)
	assert.InDelta(t, 12000.0, first.CurrentValue, 1e-9)

	assert.Equal(t, "INE1", second.ISIN)
	assert.Equal(t, "INE1", second.Name, "falls back to ISIN without metadata")
	assert.InDelta(t, 150.0, second.CurrentPrice, 1e-9)
	assert.InDelta(t, 1500.0, second.CurrentValue, 1e-9)

	assert.InDelta(t, 13500.0, summary.TotalValue, 1e-9)
	assert.InDelta(t, 11200.0, summary.TotalInvested, 1e-9)
	assert.True(t, summary.AsOf.Equal(day(2024, 7, 1)))
}

func TestSnapshot_ExcludesFullySoldHoldings(t *testing.T) {
	service, repo, ledgerRepo, portfolioID := setupService(t, &fakeHistory{})

	require.NoError(t, repo.Upsert(domain.HoldingMetadata{
		ISIN: "INF1", Name: "A", Type: domain.AssetMutualFund, CurrentNAV: 100,
	}))
	insertTx(t, ledgerRepo, portfolioID, "INF1", day(2023, 1, 1), domain.TransactionBuy, 100, 10000)
	insertTx(t, ledgerRepo, portfolioID, "INF1", day(2023, 6, 1), domain.TransactionSell, 100, 12000)

	summary, err := service.Snapshot(portfolioID)
	require.NoError(t, err)
	assert.Empty(t, summary.Holdings)
	assert.Zero(t, summary.TotalValue)
}

func TestSnapshot_UnpricedHoldingValuedAtZero(t *testing.T) {
	service, _, ledgerRepo, portfolioID := setupService(t, &fakeHistory{})

	insertTx(t, ledgerRepo, portfolioID, "INF1", day(2023, 1, 1), domain.TransactionBuy, 100, 10000)

	summary, err := service.Snapshot(portfolioID)
	require.NoError(t, err)
	require.Len(t, summary.Holdings, 1)
	assert.Zero(t, summary.Holdings[0].CurrentValue)
	assert.Zero(t, summary.Holdings[0].CurrentPrice)
	// Invested capital still counts toward the aggregate.
	assert.InDelta(t, 10000.0, summary.TotalInvested, 1e-9)
}

func TestSnapshot_EmptyPortfolio(t *testing.T) {
	service, _, _, portfolioID := setupService(t, &fakeHistory{})

	_, err := service.Snapshot(portfolioID)
	assert.ErrorIs(t, err, domain.ErrEmptyLedger)
}
