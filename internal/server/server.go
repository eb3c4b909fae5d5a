// Package server provides the HTTP server and routing for taxfolio.
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

	"github.com/aristath/taxfolio/internal/config"
	"github.com/aristath/taxfolio/internal/database"
	"github.com/aristath/taxfolio/internal/events"
	harvestinghandlers "github.com/aristath/taxfolio/internal/modules/harvesting/handlers"
	rebalancinghandlers "github.com/aristath/taxfolio/internal/modules/rebalancing/handlers"
	schedulehandlers "github.com/aristath/taxfolio/internal/modules/schedule/handlers"
	strategieshandlers "github.com/aristath/taxfolio/internal/modules/strategies/handlers"
	summaryhandlers "github.com/aristath/taxfolio/internal/modules/summary/handlers"
	taxlotshandlers "github.com/aristath/taxfolio/internal/modules/taxlots/handlers"
	taxrateshandlers "github.com/aristath/taxfolio/internal/modules/taxrates/handlers"
	"github.com/aristath/taxfolio/internal/reliability"
	"github.com/aristath/taxfolio/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	Config   *config.Config
	ConfigDB *database.DB
	CacheDB  *database.DB
	EventBus *events.Bus
	Backup   *reliability.BackupService

	TaxRates    *taxrateshandlers.Handler
	TaxLots     *taxlotshandlers.Handler
	Harvesting  *harvestinghandlers.Handler
	Rebalancing *rebalancinghandlers.Handler
	Schedule    *schedulehandlers.Handler
	Strategies  *strategieshandlers.Handler
	Summary     *summaryhandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	configDB       *database.DB
	cacheDB        *database.DB
	eventBus       *events.Bus
	systemHandlers *SystemHandlers
	handlers       Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		cfg:      cfg.Config,
		configDB: cfg.ConfigDB,
		cacheDB:  cfg.CacheDB,
		eventBus: cfg.EventBus,
		handlers: cfg,
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.ConfigDB, cfg.CacheDB, cfg.Backup)

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

// SetJobs registers job instances for manual triggering via the API
func (s *Server) SetJobs(jobs ...scheduler.Job) {
	s.systemHandlers.SetJobs(jobs...)
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
		// SSE stream first so it is not wrapped by response buffering.
		eventsStream := NewEventsStreamHandler(s.eventBus, s.log)
		r.Get("/events/stream", eventsStream.ServeHTTP)

		s.handlers.TaxRates.RegisterRoutes(r)
		s.handlers.TaxLots.RegisterRoutes(r)
		s.handlers.Harvesting.RegisterRoutes(r)
		s.handlers.Rebalancing.RegisterRoutes(r)
		s.handlers.Schedule.RegisterRoutes(r)
		s.handlers.Strategies.RegisterRoutes(r)
		s.handlers.Summary.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/backups", s.systemHandlers.HandleListBackups)
			r.Post("/jobs/{name}/run", s.systemHandlers.HandleRunJob)
		})
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
