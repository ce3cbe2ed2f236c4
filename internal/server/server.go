// Package server provides the HTTP server and routing for the insight
// analytics engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/config"
	"github.com/wealthmax/insight/internal/modules/benchmark"
	benchmarkhandlers "github.com/wealthmax/insight/internal/modules/benchmark/handlers"
	"github.com/wealthmax/insight/internal/modules/holdings"
	holdingshandlers "github.com/wealthmax/insight/internal/modules/holdings/handlers"
	"github.com/wealthmax/insight/internal/modules/ledger"
	ledgerhandlers "github.com/wealthmax/insight/internal/modules/ledger/handlers"
	"github.com/wealthmax/insight/internal/modules/performance"
	performancehandlers "github.com/wealthmax/insight/internal/modules/performance/handlers"
	"github.com/wealthmax/insight/internal/modules/risk"
	riskhandlers "github.com/wealthmax/insight/internal/modules/risk/handlers"
	"github.com/wealthmax/insight/internal/modules/snapshots"
	snapshotshandlers "github.com/wealthmax/insight/internal/modules/snapshots/handlers"
	"github.com/wealthmax/insight/internal/scheduler"
)

// Config holds server configuration and the wired services
type Config struct {
	Log    zerolog.Logger
	Config *config.Config

	LedgerRepo      *ledger.Repository
	LedgerReader    *ledger.Reader
	Performance     *performance.Service
	Holdings        *holdings.Service
	Benchmark       *benchmark.Service
	BenchmarkRepo   *benchmark.Repository
	Risk            *risk.Service
	SnapshotsRepo   *snapshots.Repository
	SnapshotJob     scheduler.Job
	SchedulerRunner *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            Config
	systemHandlers *SystemHandlers
	startedAt      time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Config.DataDir),
		startedAt:      time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			if s.cfg.SnapshotJob != nil && s.cfg.SchedulerRunner != nil {
				r.Post("/jobs/record-snapshots", s.handleTriggerSnapshots)
			}
		})

		ledgerHandler := ledgerhandlers.NewHandler(s.cfg.LedgerRepo, s.cfg.LedgerReader, s.log)
		ledgerHandler.RegisterRoutes(r)

		holdingsHandler := holdingshandlers.NewHandler(s.cfg.Holdings, s.log)
		holdingsHandler.RegisterRoutes(r)

		performanceHandler := performancehandlers.NewHandler(s.cfg.Performance, s.log)
		performanceHandler.RegisterRoutes(r)

		benchmarkHandler := benchmarkhandlers.NewHandler(s.cfg.Benchmark, s.cfg.BenchmarkRepo, s.log)
		benchmarkHandler.RegisterRoutes(r)

		riskHandler := riskhandlers.NewHandler(s.cfg.Risk, s.log)
		riskHandler.RegisterRoutes(r)

		snapshotsHandler := snapshotshandlers.NewHandler(s.cfg.SnapshotsRepo, s.log)
		snapshotsHandler.RegisterRoutes(r)
	})
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","uptime_seconds":%d}`, int(time.Since(s.startedAt).Seconds()))
}

// handleTriggerSnapshots runs the snapshot job outside its schedule
func (s *Server) handleTriggerSnapshots(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.SchedulerRunner.RunNow(s.cfg.SnapshotJob); err != nil {
		s.log.Error().Err(err).Msg("Snapshot job failed")
		http.Error(w, "Snapshot job failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Config.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
