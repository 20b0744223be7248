package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/middleware"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Metrics         *MetricsHandler
	Auth            *AuthHandler
	Behaviors       *BehaviorHandler
	Reinforcers     *ReinforcerHandler
	CrisisProtocols *CrisisProtocolHandler
	Profiles        *ProfileHandler
	Backup          *BackupHandler
	Analytics       *AnalyticsHandler
	AI              *AIHandler
	Reports         *ReportHandler
}

// RouteConfig carries values the route table needs.
type RouteConfig struct {
	APIPrefix      string
	Auth           middleware.TokenValidator
	BackupMaxBytes int64
	UploadMaxBytes int64
	MaxPDFFiles    int
}

// Register mounts health endpoints on r and the API under cfg.APIPrefix.
func Register(r gin.IRouter, h Handlers, cfg RouteConfig) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.GET("/metrics/summary", h.Metrics.Summary)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	api.GET("/reports/download/:token", h.Reports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(cfg.Auth), middleware.Profile())
	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/refresh", h.Auth.Refresh)
	secured.PUT("/auth/password", h.Auth.ChangePassword)

	behaviors := secured.Group("/behaviors")
	behaviors.GET("", h.Behaviors.List)
	behaviors.POST("", h.Behaviors.Create)
	behaviors.GET("/:id", h.Behaviors.Get)
	behaviors.DELETE("/:id", h.Behaviors.Delete)

	reinforcers := secured.Group("/reinforcers")
	reinforcers.GET("", h.Reinforcers.List)
	reinforcers.POST("", h.Reinforcers.Create)
	reinforcers.GET("/suggestions", h.Reinforcers.Suggestions)
	reinforcers.GET("/:id", h.Reinforcers.Get)
	reinforcers.PUT("/:id", h.Reinforcers.Update)
	reinforcers.DELETE("/:id", h.Reinforcers.Delete)
	reinforcers.POST("/:id/use", h.Reinforcers.Use)

	protocols := secured.Group("/crisis-protocols")
	protocols.GET("", h.CrisisProtocols.List)
	protocols.POST("", h.CrisisProtocols.Create)
	protocols.GET("/:id", h.CrisisProtocols.Get)
	protocols.PUT("/:id", h.CrisisProtocols.Update)
	protocols.DELETE("/:id", h.CrisisProtocols.Delete)
	protocols.PUT("/:id/active", h.CrisisProtocols.SetActive)
	protocols.GET("/:id/pdf", h.CrisisProtocols.PDF)

	profiles := secured.Group("/profiles")
	profiles.GET("", h.Profiles.List)
	profiles.POST("", h.Profiles.Create)
	profiles.GET("/active", h.Profiles.Active)
	profiles.GET("/:id", h.Profiles.Get)
	profiles.PUT("/:id", h.Profiles.Update)
	profiles.DELETE("/:id", h.Profiles.Delete)
	profiles.POST("/:id/activate", h.Profiles.Activate)

	backup := secured.Group("/backup")
	backup.GET("/export", h.Backup.Export)
	backup.POST("/import", middleware.BodyLimit(multipartBudget(cfg.BackupMaxBytes)), h.Backup.Import)

	analytics := secured.Group("/analytics")
	analytics.GET("/summary", h.Analytics.Summary)
	analytics.GET("/weekly", h.Analytics.Weekly)
	analytics.GET("/milestones", h.Analytics.Milestones)

	ai := secured.Group("/ai")
	ai.POST("/extract", h.AI.Extract)
	ai.POST("/chat", h.AI.Chat)
	ai.POST("/insights", h.AI.Insights)
	uploads := ai.Group("", middleware.BodyLimit(multipartBudget(cfg.UploadMaxBytes)))
	uploads.POST("/voice", h.AI.Voice)
	uploads.POST("/video", h.AI.Video)
	uploads.POST("/image", h.AI.Image)
	ai.POST("/pdf-import", middleware.BodyLimit(multipartBudget(cfg.UploadMaxBytes*int64(max(cfg.MaxPDFFiles, 1)))), h.AI.PDFImport)

	reports := secured.Group("/reports")
	reports.POST("", h.Reports.Create)
	reports.GET("/:id", h.Reports.Status)
}

// multipartBudget leaves room for multipart framing around a file of n bytes.
func multipartBudget(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return n + 64<<10
}
