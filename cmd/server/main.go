// Command server runs the portfolio performance and risk analytics service.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wealthmax/insight/internal/config"
	"github.com/wealthmax/insight/internal/database"
	"github.com/wealthmax/insight/internal/modules/benchmark"
	"github.com/wealthmax/insight/internal/modules/holdings"
	"github.com/wealthmax/insight/internal/modules/ledger"
	"github.com/wealthmax/insight/internal/modules/performance"
	"github.com/wealthmax/insight/internal/modules/risk"
	"github.com/wealthmax/insight/internal/modules/snapshots"
	"github.com/wealthmax/insight/internal/modules/valuation"
	"github.com/wealthmax/insight/internal/scheduler"
	"github.com/wealthmax/insight/internal/server"
	"github.com/wealthmax/insight/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Int("port", cfg.Port).Msg("Starting insight analytics engine")

	// Three databases with different durability profiles: the ledger is the
	// investor's audit trail, the rest can be rebuilt from it plus feeds.
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	for _, db := range []*database.DB{ledgerDB, portfolioDB, historyDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to apply schema")
		}
	}

	// Repositories
	ledgerRepo := ledger.NewRepository(ledgerDB.Conn(), log)
	historyRepo := valuation.NewHistoryRepository(historyDB.Conn(), log)
	holdingsRepo := holdings.NewRepository(portfolioDB.Conn(), log)
	benchmarkRepo := benchmark.NewRepository(historyDB.Conn(), log)
	snapshotsRepo := snapshots.NewRepository(portfolioDB.Conn(), log)

	// Services
	reader := ledger.NewReader(ledgerRepo, log)
	performanceService := performance.NewService(reader, historyRepo, log)
	holdingsService := holdings.NewService(reader, holdingsRepo, historyRepo, log)
	benchmarkService := benchmark.NewService(reader, benchmarkRepo, holdingsRepo, performanceService, log)
	riskService := risk.NewService(holdingsService, holdingsRepo, historyRepo, cfg.Analytics, log)

	// Background jobs
	sched := scheduler.New(log)
	snapshotJob := snapshots.NewRecordJob(ledgerRepo, holdingsService, performanceService, snapshotsRepo, log)
	if err := sched.AddJob(cfg.Analytics.SnapshotSchedule, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:             log,
		Config:          cfg,
		LedgerRepo:      ledgerRepo,
		LedgerReader:    reader,
		Performance:     performanceService,
		Holdings:        holdingsService,
		Benchmark:       benchmarkService,
		BenchmarkRepo:   benchmarkRepo,
		Risk:            riskService,
		SnapshotsRepo:   snapshotsRepo,
		SnapshotJob:     snapshotJob,
		SchedulerRunner: sched,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
