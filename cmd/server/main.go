// Package main is the entry point for the taxfolio tax-optimized
// rebalancing service. It wires the engine packages, the sqlite-backed
// configuration collaborators, the background jobs, and the HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/taxfolio/internal/config"
	"github.com/aristath/taxfolio/internal/database"
	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/events"
	"github.com/aristath/taxfolio/internal/modules/harvesting"
	harvestinghandlers "github.com/aristath/taxfolio/internal/modules/harvesting/handlers"
	"github.com/aristath/taxfolio/internal/modules/rebalancing"
	rebalancinghandlers "github.com/aristath/taxfolio/internal/modules/rebalancing/handlers"
	"github.com/aristath/taxfolio/internal/modules/schedule"
	schedulehandlers "github.com/aristath/taxfolio/internal/modules/schedule/handlers"
	"github.com/aristath/taxfolio/internal/modules/strategies"
	strategieshandlers "github.com/aristath/taxfolio/internal/modules/strategies/handlers"
	"github.com/aristath/taxfolio/internal/modules/summary"
	summaryhandlers "github.com/aristath/taxfolio/internal/modules/summary/handlers"
	"github.com/aristath/taxfolio/internal/modules/taxlots"
	taxlotshandlers "github.com/aristath/taxfolio/internal/modules/taxlots/handlers"
	"github.com/aristath/taxfolio/internal/modules/taxrates"
	taxrateshandlers "github.com/aristath/taxfolio/internal/modules/taxrates/handlers"
	"github.com/aristath/taxfolio/internal/reliability"
	"github.com/aristath/taxfolio/internal/scheduler"
	"github.com/aristath/taxfolio/internal/server"
	"github.com/aristath/taxfolio/internal/snapshots"
	"github.com/aristath/taxfolio/internal/workers"
	"github.com/aristath/taxfolio/pkg/logger"
)

const backupRetentionDays = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)
	log.Info().Int("port", cfg.Port).Bool("dev_mode", cfg.DevMode).Msg("Starting taxfolio")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	// Databases
	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Name:    "config",
		Profile: database.ProfileStandard,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open config database")
	}
	defer configDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Name:    "cache",
		Profile: database.ProfileCache,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{configDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}

	// Event bus
	eventBus := events.NewBus(64, log)

	// Engine services
	ratesRepo := taxrates.NewRepository(configDB.Conn(), log)
	ratesProvider := taxrates.NewProvider(ratesRepo, cfg.DefaultJurisdiction, log)

	calculator := taxlots.NewCalculator(log)

	substitutionRepo := harvesting.NewSubstitutionRepository(configDB.Conn(), log)
	scanner := harvesting.NewScanner(substitutionRepo, log)

	scheduleGenerator := schedule.NewGenerator(log)
	strategyRepo := strategies.NewRepository(configDB.Conn(), log)
	summaryService := summary.NewService(scanner, scheduleGenerator, log)

	snapshotStore := snapshots.NewStore(cacheDB.Conn(), time.Duration(cfg.SnapshotTTLMinutes)*time.Minute, log)
	pool := workers.NewPool(4, log)

	fees := domain.FeeSchedule{
		CommissionPerTrade: cfg.CommissionPerTrade,
		SpreadPct:          cfg.SpreadPct,
	}

	generator := rebalancing.NewGenerator(calculator, cfg.AssumedGainFraction, log)
	evaluator := rebalancing.NewTriggerEvaluator(log)
	rebalancingService := rebalancing.NewService(
		generator,
		evaluator,
		ratesProvider,
		snapshotStore,
		eventBus,
		pool,
		fees,
		log,
	)

	// Backup service, uploads disabled without credentials
	backupService := newBackupService(cfg, configDB, cacheDB, log)

	// Background jobs
	cron := scheduler.New(log)
	cleanupJob := scheduler.NewSnapshotCleanupJob(snapshotStore)
	backupJob := scheduler.NewBackupJob(backupService, backupRetentionDays)
	checkpointJob := scheduler.NewWALCheckpointJob(configDB, cacheDB)

	mustAddJob(cron, "@hourly", cleanupJob, log)
	mustAddJob(cron, "30 2 * * *", backupJob, log)
	mustAddJob(cron, "@every 6h", checkpointJob, log)
	cron.Start()
	defer cron.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		ConfigDB: configDB,
		CacheDB:  cacheDB,
		EventBus: eventBus,
		Backup:   backupService,

		TaxRates:    taxrateshandlers.NewHandler(ratesProvider, ratesRepo, log),
		TaxLots:     taxlotshandlers.NewHandler(calculator, ratesProvider, log),
		Harvesting:  harvestinghandlers.NewHandler(scanner, ratesProvider, log),
		Rebalancing: rebalancinghandlers.NewHandler(rebalancingService, log),
		Schedule:    schedulehandlers.NewHandler(scheduleGenerator, eventBus, log),
		Strategies:  strategieshandlers.NewHandler(strategyRepo, log),
		Summary:     summaryhandlers.NewHandler(summaryService, ratesProvider, log),
	})
	srv.SetJobs(cleanupJob, backupJob, checkpointJob)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

// newBackupService builds the backup service, with uploads disabled when
// no credentials are configured.
func newBackupService(cfg *config.Config, configDB, cacheDB *database.DB, log zerolog.Logger) *reliability.BackupService {
	databases := map[string]*sql.DB{
		"config": configDB.Conn(),
		"cache":  cacheDB.Conn(),
	}

	if !cfg.BackupEnabled() {
		log.Info().Msg("Backups disabled, no credentials configured")
		return reliability.NewBackupService(nil, databases, cfg.DataDir, log)
	}

	client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
		Endpoint:  cfg.BackupEndpoint,
		Region:    cfg.BackupRegion,
		Bucket:    cfg.BackupBucket,
		AccessKey: cfg.BackupAccessKey,
		SecretKey: cfg.BackupSecretKey,
	}, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create backup client, backups disabled")
		return reliability.NewBackupService(nil, databases, cfg.DataDir, log)
	}

	return reliability.NewBackupService(client, databases, cfg.DataDir, log)
}

func mustAddJob(cron *scheduler.Scheduler, spec string, job scheduler.Job, log zerolog.Logger) {
	if err := cron.AddJob(spec, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
	}
}
