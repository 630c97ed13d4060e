// Package server provides the HTTP server and routing for appa.
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

	"github.com/aristath/appa/internal/database"
	"github.com/aristath/appa/internal/di"
	allocationhandlers "github.com/aristath/appa/internal/modules/allocation/handlers"
	analyticshandlers "github.com/aristath/appa/internal/modules/analytics/handlers"
	audithandlers "github.com/aristath/appa/internal/modules/audit/handlers"
	portfoliohandlers "github.com/aristath/appa/internal/modules/portfolio/handlers"
	rebalancinghandlers "github.com/aristath/appa/internal/modules/rebalancing/handlers"
	tradinghandlers "github.com/aristath/appa/internal/modules/trading/handlers"
	universehandlers "github.com/aristath/appa/internal/modules/universe/handlers"
	"github.com/aristath/appa/internal/reliability"
	"github.com/aristath/appa/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	DataDir   string
	Container *di.Container
	Jobs      *di.JobInstances
	Scheduler *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	cfg         Config
	container   *di.Container
	startupTime time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		cfg:         cfg,
		container:   cfg.Container,
		startupTime: time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived stream, outside the request timeout
		if s.container != nil && s.container.EventBus != nil {
			r.Method(http.MethodGet, "/events/ws", NewEventsStreamHandler(s.container.EventBus, s.log))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			s.setupSystemRoutes(r)

			if s.container == nil {
				return
			}
			c := s.container

			universehandlers.NewHandler(c.UniverseService, s.log).RegisterRoutes(r)
			analyticshandlers.NewHandler(c.AnalyticsService, c.CacheStore, s.log).RegisterRoutes(r)
			audithandlers.NewHandler(c.AuditRepo, s.log).RegisterRoutes(r)

			// Portfolio-scoped modules share one mount point
			r.Route("/portfolios", func(r chi.Router) {
				portfoliohandlers.NewHandler(c.PortfolioService, s.log).RegisterRoutes(r)
				allocationhandlers.NewHandler(c.AllocationEngine, s.log).RegisterRoutes(r)
				rebalancinghandlers.NewHandler(c.Planner, s.log).RegisterRoutes(r)
				tradinghandlers.NewTradingHandlers(c.Executor, c.Planner, c.TradeRepo, s.log).RegisterRoutes(r)
			})
		})
	})
}

// setupSystemRoutes configures status and maintenance routes
func (s *Server) setupSystemRoutes(r chi.Router) {
	var jobs di.JobInstances
	if s.cfg.Jobs != nil {
		jobs = *s.cfg.Jobs
	}
	var backups *reliability.BackupService
	var budget RequestBudget
	if s.container != nil {
		backups = s.container.BackupService
		if s.container.AlphaVantageClient != nil {
			budget = s.container.AlphaVantageClient
		}
	}
	h := NewSystemHandlers(s.log, s.databases(), backups, s.cfg.Scheduler, budget, s.startupTime)

	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/databases", h.HandleDatabaseStats)
		r.Get("/backups", h.HandleListBackups)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.HandleListJobs)
		r.Post("/check-core-databases", h.HandleTriggerJob(jobs.CheckCoreDatabases))
		r.Post("/check-wal-checkpoints", h.HandleTriggerJob(jobs.CheckWALCheckpoints))
		r.Post("/cache-cleanup", h.HandleTriggerJob(jobs.CacheCleanup))
		r.Post("/vacuum-databases", h.HandleTriggerJob(jobs.VacuumDatabases))
		r.Post("/backup", h.HandleTriggerJob(jobs.Backup))
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) databases() []*database.DB {
	if s.container == nil {
		return nil
	}
	return s.container.Databases()
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
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
