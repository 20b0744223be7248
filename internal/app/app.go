// Package app wires configuration, storage and services into one container
// shared by the HTTP server and the operator CLI.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/repository"
	"github.com/noah-isme/aba-tracker-api/internal/service"
	"github.com/noah-isme/aba-tracker-api/pkg/cache"
	"github.com/noah-isme/aba-tracker-api/pkg/config"
	"github.com/noah-isme/aba-tracker-api/pkg/database"
	"github.com/noah-isme/aba-tracker-api/pkg/export"
	"github.com/noah-isme/aba-tracker-api/pkg/gemini"
	"github.com/noah-isme/aba-tracker-api/pkg/jobs"
	"github.com/noah-isme/aba-tracker-api/pkg/storage"
)

// App holds long-lived dependencies.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client
	Queue  *jobs.Queue

	Metrics         *service.MetricsService
	Auth            *service.AuthService
	Behaviors       *service.BehaviorService
	Reinforcers     *service.ReinforcerService
	CrisisProtocols *service.CrisisProtocolService
	Profiles        *service.ProfileService
	Backup          *service.BackupService
	Analytics       *service.AnalyticsService
	AI              *service.AIService
	Reports         *service.ReportService
}

// New connects to Postgres (and Redis when enabled) and builds every service.
// The report queue is created but not started.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			logger.Sugar().Infow("migrations applied", "versions", applied)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// Analytics falls back to uncached reads.
		logger.Sugar().Warnw("redis unavailable, analytics cache disabled", "error", err)
		redisClient = nil
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Redis: redisClient}
	if err := a.build(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg, logger := a.Config, a.Logger
	validate := validator.New()
	a.Metrics = service.NewMetricsService()

	accounts := repository.NewAccountRepository(a.DB)
	behaviorRepo := repository.NewBehaviorRepository(a.DB)
	reinforcerRepo := repository.NewReinforcerRepository(a.DB)
	protocolRepo := repository.NewCrisisProtocolRepository(a.DB)
	profileRepo := repository.NewProfileRepository(a.DB)
	backupRepo := repository.NewBackupRepository(a.DB)
	reportRepo := repository.NewReportRepository(a.DB)
	cacheRepo := repository.NewCacheRepository(a.Redis, logger)

	cacheSvc := service.NewCacheService(cacheRepo, a.Metrics, cfg.Analytics.CacheTTL, logger, cfg.Analytics.CacheEnabled && a.Redis != nil)
	a.Analytics = service.NewAnalyticsService(behaviorRepo, cacheSvc, a.Metrics, logger)

	a.Auth = service.NewAuthService(accounts, validate, logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	a.Behaviors = service.NewBehaviorService(behaviorRepo, a.Analytics, validate, logger)
	a.Reinforcers = service.NewReinforcerService(reinforcerRepo, validate, logger)
	pdf := export.NewPDFExporter()
	a.CrisisProtocols = service.NewCrisisProtocolService(protocolRepo, pdf, validate, logger)
	a.Profiles = service.NewProfileService(profileRepo, validate, logger)
	a.Backup = service.NewBackupService(backupRepo, a.Analytics, a.Metrics, validate, logger)

	generator, err := gemini.New(cfg.Gemini)
	if err != nil {
		logger.Sugar().Warnw("gemini client disabled", "error", err)
		generator = nil
	}
	a.AI = service.NewAIService(generator, a.Behaviors, service.AIContextSources{
		Behaviors:   behaviorRepo,
		Reinforcers: reinforcerRepo,
		Protocols:   protocolRepo,
	}, a.Analytics, a.Metrics, logger, service.AIServiceConfig{
		MaxUploadBytes: cfg.AI.MaxUploadBytes,
		MaxPDFFiles:    cfg.AI.MaxPDFFiles,
		ChatContextMax: cfg.AI.ChatContextMax,
	})

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return fmt.Errorf("init report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exporter := service.NewExportService(behaviorRepo, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logger, export.NewCSVExporter(), pdf)

	a.Queue = jobs.NewQueue("reports", jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logger,
	})
	worker := service.NewReportWorker(reportRepo, exporter, a.Metrics, cfg.Reports.WorkerRetries, logger)
	a.Queue.Register(service.ReportJobType, worker.Handle)
	a.Metrics.TrackQueue("reports", a.Queue.Stats)

	a.Reports = service.NewReportService(reportRepo, a.Queue, exporter, a.Metrics, validate, logger, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	return nil
}

// StartBackground starts the report queue, replays queued jobs and schedules
// export cleanup. Everything stops when ctx is cancelled.
func (a *App) StartBackground(ctx context.Context) {
	a.Queue.Start(ctx)
	a.Reports.RecoverPendingJobs(ctx)
	a.Reports.StartCleanup(ctx)
}

// Close releases connections. Safe on a partially built App.
func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Sugar().Warnw("close redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Sugar().Warnw("close postgres", "error", err)
		}
	}
}
