// Command seed populates a demo portfolio: nine holdings with multi-year
// SIP and lump-sum histories, back-computed NAV series, and benchmark
// indices with five years of simulated monthly history. Safe to re-run;
// existing rows are kept.
package main

import (
	"database/sql"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/config"
	"github.com/wealthmax/insight/internal/database"
	"github.com/wealthmax/insight/internal/domain"
	"github.com/wealthmax/insight/internal/modules/benchmark"
	"github.com/wealthmax/insight/internal/modules/holdings"
	"github.com/wealthmax/insight/internal/modules/ledger"
	"github.com/wealthmax/insight/internal/modules/valuation"
	"github.com/wealthmax/insight/pkg/logger"
)

const portfolioAlias = "Demo Portfolio"

type demoAsset struct {
	meta       domain.HoldingMetadata
	returnsPct float64

	// Mutual fund accumulation plan
	sipAmount  float64
	sipMonths  int
	lumpSums   []float64
	start      time.Time

	// Direct equity purchases
	purchases []purchase
}

type purchase struct {
	date   time.Time
	amount float64
}

type demoIndex struct {
	name       string
	symbol     string
	indexType  string
	startValue float64
	cagr       float64
	volatility float64
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func demoAssets(navDate time.Time) []demoAsset {
	nd := navDate
	return []demoAsset{
		{
			meta: domain.HoldingMetadata{
				ISIN: "INF123456789", Name: "HDFC Top 100 Fund Direct Growth",
				Type: domain.AssetMutualFund, Category: "Large Cap",
				CurrentNAV: 58.42, NAVDate: &nd, RiskScore: ptr(6),
				Description: "Large Cap Equity Fund",
			},
			returnsPct: 12, sipAmount: 5000, sipMonths: 36,
			lumpSums: []float64{50000, 30000}, start: date(2023, 1, 5),
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INF234567890", Name: "SBI Midcap Fund Direct Growth",
				Type: domain.AssetMutualFund, Category: "Mid Cap",
				CurrentNAV: 45.87, NAVDate: &nd, RiskScore: ptr(7.5),
				Description: "Mid Cap Equity Fund",
			},
			returnsPct: 18, sipAmount: 3000, sipMonths: 24,
			lumpSums: []float64{40000}, start: date(2024, 1, 5),
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INF345678901", Name: "Axis Long Term Equity Fund Direct Growth",
				Type: domain.AssetMutualFund, Category: "ELSS",
				CurrentNAV: 32.15, NAVDate: &nd, RiskScore: ptr(7),
				Description: "ELSS Tax Saver Fund",
			},
			returnsPct: 10, sipAmount: 10000, sipMonths: 48,
			lumpSums: []float64{150000}, start: date(2022, 1, 5),
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INF456789012", Name: "ICICI Prudential Balanced Advantage Fund Direct Growth",
				Type: domain.AssetMutualFund, Category: "Hybrid",
				CurrentNAV: 28.93, NAVDate: &nd, RiskScore: ptr(4),
				Description: "Hybrid Fund (Balanced)",
			},
			returnsPct: 6, sipAmount: 4000, sipMonths: 36,
			lumpSums: []float64{25000}, start: date(2023, 1, 5),
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INF567890123", Name: "HDFC Corporate Bond Fund Direct Growth",
				Type: domain.AssetMutualFund, Category: "Debt",
				CurrentNAV: 22.78, NAVDate: &nd, RiskScore: ptr(2),
				Description: "Debt Fund (Corporate Bonds)",
			},
			returnsPct: -2, sipAmount: 7000, sipMonths: 30,
			lumpSums: []float64{60000, 40000}, start: date(2023, 7, 5),
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INE002A01018", Name: "Reliance Industries Ltd",
				Type: domain.AssetEquity, Ticker: "RELIANCE", Category: "Large Cap",
				CurrentNAV: 2845.50, NAVDate: &nd, RiskScore: ptr(6.5),
				Description: "Diversified Conglomerate",
			},
			returnsPct: 15,
			purchases: []purchase{
				{date(2024, 3, 15), 50000},
				{date(2024, 9, 20), 40000},
				{date(2025, 6, 10), 45000},
			},
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INE040A01034", Name: "HDFC Bank Ltd",
				Type: domain.AssetEquity, Ticker: "HDFCBANK", Category: "Large Cap",
				CurrentNAV: 1687.20, NAVDate: &nd, RiskScore: ptr(5.5),
				Description: "Private Sector Bank",
			},
			returnsPct: 8,
			purchases: []purchase{
				{date(2023, 8, 12), 35000},
				{date(2024, 2, 18), 30000},
				{date(2024, 10, 5), 25000},
				{date(2025, 7, 22), 40000},
			},
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INE009A01021", Name: "Infosys Ltd",
				Type: domain.AssetEquity, Ticker: "INFY", Category: "Large Cap",
				CurrentNAV: 1456.75, NAVDate: &nd, RiskScore: ptr(6),
				Description: "IT Services",
			},
			returnsPct: 12,
			purchases: []purchase{
				{date(2024, 4, 8), 30000},
				{date(2024, 11, 15), 35000},
				{date(2025, 8, 25), 28000},
			},
		},
		{
			meta: domain.HoldingMetadata{
				ISIN: "INE081A01012", Name: "Tata Steel Ltd",
				Type: domain.AssetEquity, Ticker: "TATASTEEL", Category: "Large Cap",
				CurrentNAV: 142.30, NAVDate: &nd, RiskScore: ptr(8),
				Description: "Steel Manufacturing",
			},
			returnsPct: -5,
			purchases: []purchase{
				{date(2024, 6, 20), 20000},
				{date(2025, 3, 10), 22000},
			},
		},
	}
}

var demoIndices = []demoIndex{
	{"NIFTY 50", "NIFTY50", "EQUITY", 15000, 0.12, 0.15},
	{"NIFTY Midcap 150", "NIFTYMID150", "EQUITY", 8000, 0.18, 0.20},
	{"NIFTY Smallcap 250", "NIFTYSML250", "EQUITY", 6000, 0.22, 0.25},
	{"CRISIL Composite Bond Fund Index", "CRISILBOND", "DEBT", 100, 0.07, 0.03},
	{"NIFTY Hybrid Index", "NIFTYHYBRID", "HYBRID", 1000, 0.10, 0.08},
	{"NIFTY 500", "NIFTY500", "EQUITY", 12000, 0.13, 0.16},
}

var categoryMap = map[string]string{
	"Large Cap": "NIFTY 50",
	"Mid Cap":   "NIFTY Midcap 150",
	"Small Cap": "NIFTY Smallcap 250",
	"Debt":      "CRISIL Composite Bond Fund Index",
	"ELSS":      "NIFTY 500",
	"Hybrid":    "NIFTY Hybrid Index",
	"Multi Cap": "NIFTY 500",
	"Flexi Cap": "NIFTY 500",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	log.Info().Str("data_dir", cfg.DataDir).Msg("Seeding demo data")

	ledgerDB := mustOpen(cfg.DataDir, "ledger", database.ProfileLedger, log)
	defer ledgerDB.Close()
	portfolioDB := mustOpen(cfg.DataDir, "portfolio", database.ProfileStandard, log)
	defer portfolioDB.Close()
	historyDB := mustOpen(cfg.DataDir, "history", database.ProfileStandard, log)
	defer historyDB.Close()

	ledgerRepo := ledger.NewRepository(ledgerDB.Conn(), log)
	holdingsRepo := holdings.NewRepository(portfolioDB.Conn(), log)
	historyRepo := valuation.NewHistoryRepository(historyDB.Conn(), log)
	benchmarkRepo := benchmark.NewRepository(historyDB.Conn(), log)

	now := time.Now().UTC().Truncate(24 * time.Hour)
	assets := demoAssets(now)

	portfolioID, err := ledgerRepo.GetPortfolioByAlias(portfolioAlias)
	if errors.Is(err, sql.ErrNoRows) {
		portfolioID, err = ledgerRepo.CreatePortfolio(portfolioAlias, "MANUAL")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up demo portfolio")
	}
	log.Info().Str("portfolio_id", portfolioID).Msg("Using demo portfolio")

	seedHoldings(portfolioID, assets, now, ledgerRepo, holdingsRepo, historyRepo, log)
	seedBenchmarks(now, benchmarkRepo, log)

	log.Info().Msg("Seeding complete")
}

func mustOpen(dataDir, name string, profile database.DatabaseProfile, log zerolog.Logger) *database.DB {
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		log.Fatal().Err(err).Str("database", name).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Str("database", name).Msg("Failed to apply schema")
	}
	return db
}

func seedHoldings(
	portfolioID string,
	assets []demoAsset,
	now time.Time,
	ledgerRepo *ledger.Repository,
	holdingsRepo *holdings.Repository,
	historyRepo *valuation.HistoryRepository,
	log zerolog.Logger,
) {
	inserted, skipped := 0, 0
	for _, asset := range assets {
		if err := holdingsRepo.Upsert(asset.meta); err != nil {
			log.Fatal().Err(err).Str("isin", asset.meta.ISIN).Msg("Failed to upsert metadata")
		}

		transactions := buildTransactions(portfolioID, asset, now)
		for _, tx := range transactions {
			wrote, err := ledgerRepo.Insert(tx)
			if err != nil {
				log.Fatal().Err(err).Str("isin", tx.ISIN).Msg("Failed to insert transaction")
			}
			if wrote {
				inserted++
			} else {
				skipped++
			}
		}

		seedNavHistory(asset, now, historyRepo, log)
		log.Info().Str("name", asset.meta.Name).Int("transactions", len(transactions)).Msg("Seeded holding")
	}
	log.Info().Int("inserted", inserted).Int("skipped", skipped).Msg("Transactions seeded")
}

// buildTransactions reproduces a realistic accumulation history: monthly
// SIPs plus lump sums for mutual funds, dated buys for equities. Units
// follow from the back-computed NAV at each date.
func buildTransactions(portfolioID string, asset demoAsset, now time.Time) []domain.Transaction {
	var result []domain.Transaction

	add := func(d time.Time, txType domain.TransactionType, amount float64) {
		if d.After(now) {
			return
		}
		nav := historicalNav(asset.meta.CurrentNAV, asset.returnsPct, monthsBetween(d, now))
		result = append(result, domain.Transaction{
			PortfolioID: portfolioID,
			ISIN:        asset.meta.ISIN,
			Date:        d,
			Type:        txType,
			Units:       round4(amount / nav),
			Amount:      amount,
			NAV:         nav,
			Source:      "MANUAL",
		})
	}

	for i := 0; i < asset.sipMonths; i++ {
		add(asset.start.AddDate(0, i, 0), domain.TransactionSIP, asset.sipAmount)
	}
	for i, amount := range asset.lumpSums {
		offset := asset.sipMonths / (len(asset.lumpSums) + 1) * (i + 1)
		add(asset.start.AddDate(0, offset, 0), domain.TransactionBuy, amount)
	}
	for _, p := range asset.purchases {
		add(p.date, domain.TransactionBuy, p.amount)
	}
	return result
}

// seedNavHistory writes a monthly price series from the holding's first
// transaction month to today, ending exactly at the current NAV.
func seedNavHistory(asset demoAsset, now time.Time, historyRepo *valuation.HistoryRepository, log zerolog.Logger) {
	first := asset.start
	if first.IsZero() && len(asset.purchases) > 0 {
		first = asset.purchases[0].date
	}
	if first.IsZero() {
		return
	}

	for d := date(first.Year(), int(first.Month()), 1); !d.After(now); d = d.AddDate(0, 1, 0) {
		nav := historicalNav(asset.meta.CurrentNAV, asset.returnsPct, monthsBetween(d, now))
		if err := historyRepo.UpsertPrice(asset.meta.ISIN, d, nav); err != nil {
			log.Fatal().Err(err).Str("isin", asset.meta.ISIN).Msg("Failed to seed NAV history")
		}
	}
	if err := historyRepo.UpsertPrice(asset.meta.ISIN, now, asset.meta.CurrentNAV); err != nil {
		log.Fatal().Err(err).Str("isin", asset.meta.ISIN).Msg("Failed to seed NAV history")
	}
}

func seedBenchmarks(now time.Time, repo *benchmark.Repository, log zerolog.Logger) {
	rng := rand.New(rand.NewSource(42))
	start := date(now.Year()-5, int(now.Month()), 1)

	for _, idx := range demoIndices {
		id, err := repo.UpsertIndex(benchmark.Index{
			Name:        idx.name,
			Symbol:      idx.symbol,
			Type:        idx.indexType,
			Description: "Benchmark index for " + idx.indexType,
		})
		if err != nil {
			log.Fatal().Err(err).Str("index", idx.name).Msg("Failed to upsert index")
		}

		// Monthly geometric random walk with the index's long-run drift
		// and volatility.
		mu := idx.cagr / 12
		sigma := idx.volatility / math.Sqrt(12)
		value := idx.startValue

		points := 0
		for d := start; !d.After(now); d = d.AddDate(0, 1, 0) {
			if points > 0 {
				value *= 1 + mu + sigma*rng.NormFloat64()
			}
			if err := repo.UpsertHistoryPoint(id, d, round2(value)); err != nil {
				log.Fatal().Err(err).Str("index", idx.name).Msg("Failed to seed index history")
			}
			points++
		}
		log.Info().Str("index", idx.name).Int("points", points).Msg("Seeded benchmark")
	}

	for category, indexName := range categoryMap {
		if err := repo.SetCategoryMapping(category, indexName); err != nil {
			log.Fatal().Err(err).Str("category", category).Msg("Failed to map category")
		}
	}
	log.Info().Int("categories", len(categoryMap)).Msg("Category mappings seeded")
}

// Accrual window for the back-computed NAV series. A holding's headline
// return is treated as having built up linearly over the last three years.
const accrualMonths = 36

// historicalNav back-computes what the price was monthsAgo months back.
func historicalNav(currentNav, returnsPct float64, monthsAgo int) float64 {
	if monthsAgo <= 0 {
		return currentNav
	}
	elapsed := float64(monthsAgo)
	if elapsed > accrualMonths {
		elapsed = accrualMonths
	}
	total := returnsPct / 100 * elapsed / accrualMonths
	return round2(currentNav / (1 + total))
}

func monthsBetween(from, to time.Time) int {
	months := int(to.Sub(from).Hours() / (24 * 30))
	if months < 0 {
		return 0
	}
	return months
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
