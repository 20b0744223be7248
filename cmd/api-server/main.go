package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/aba-tracker-api/api/swagger"
	"github.com/noah-isme/aba-tracker-api/internal/app"
	"github.com/noah-isme/aba-tracker-api/internal/handler"
	"github.com/noah-isme/aba-tracker-api/internal/middleware"
	"github.com/noah-isme/aba-tracker-api/pkg/config"
	"github.com/noah-isme/aba-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/aba-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/aba-tracker-api/pkg/middleware/requestid"
)

// @title ABA Tracker API
// @version 1.0.0
// @description Behavior, reinforcer and crisis-protocol tracking with analytics, backups and Gemini helpers.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to build application", "error", err)
	}
	defer container.Close()
	container.StartBackground(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(container.Metrics))

	checks := map[string]handler.Pinger{"postgres": container.DB}
	if container.Redis != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return container.Redis.Ping(ctx).Err()
		})
	}

	handler.Register(r, handler.Handlers{
		Metrics:         handler.NewMetricsHandler(container.Metrics, checks),
		Auth:            handler.NewAuthHandler(container.Auth),
		Behaviors:       handler.NewBehaviorHandler(container.Behaviors),
		Reinforcers:     handler.NewReinforcerHandler(container.Reinforcers),
		CrisisProtocols: handler.NewCrisisProtocolHandler(container.CrisisProtocols),
		Profiles:        handler.NewProfileHandler(container.Profiles),
		Backup:          handler.NewBackupHandler(container.Backup, cfg.Backup.MaxBytes),
		Analytics:       handler.NewAnalyticsHandler(container.Analytics),
		AI:              handler.NewAIHandler(container.AI, cfg.AI.MaxUploadBytes),
		Reports:         handler.NewReportHandler(container.Reports, logr),
	}, handler.RouteConfig{
		APIPrefix:      cfg.APIPrefix,
		Auth:           container.Auth,
		BackupMaxBytes: cfg.Backup.MaxBytes,
		UploadMaxBytes: cfg.AI.MaxUploadBytes,
		MaxPDFFiles:    cfg.AI.MaxPDFFiles,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
