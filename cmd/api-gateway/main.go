package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hosteldesk/hosteldesk-api/api/swagger"
	"github.com/hosteldesk/hosteldesk-api/internal/handler"
	"github.com/hosteldesk/hosteldesk-api/internal/llm"
	"github.com/hosteldesk/hosteldesk-api/internal/middleware"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/repository"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	"github.com/hosteldesk/hosteldesk-api/pkg/cache"
	"github.com/hosteldesk/hosteldesk-api/pkg/config"
	"github.com/hosteldesk/hosteldesk-api/pkg/database"
	"github.com/hosteldesk/hosteldesk-api/pkg/export"
	"github.com/hosteldesk/hosteldesk-api/pkg/jobs"
	"github.com/hosteldesk/hosteldesk-api/pkg/logger"
	corsmiddleware "github.com/hosteldesk/hosteldesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hosteldesk/hosteldesk-api/pkg/middleware/requestid"
	"github.com/hosteldesk/hosteldesk-api/pkg/storage"
)

// @title HostelDesk API
// @version 1.0.0
// @description Hostel oversight backend: complaints, outing passes, and staff insights
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	// Repositories.
	authRepo := repository.NewAuthRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	outingRepo := repository.NewOutingRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.Enabled && redisClient != nil)

	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.Assist.BaseURL,
		APIKey:      cfg.Assist.APIKey,
		Model:       cfg.Assist.Model,
		Timeout:     cfg.Assist.Timeout,
		Temperature: cfg.Assist.Temperature,
		MaxTokens:   cfg.Assist.MaxTokens,
	}, logr)

	// Services.
	authSvc := service.NewAuthService(studentRepo, staffRepo, authRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hosteldesk-api",
	})
	complaintSvc := service.NewComplaintService(complaintRepo, authRepo, cacheSvc, nil, logr)
	outingSvc := service.NewOutingService(outingRepo, authRepo, cacheSvc, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	approvalSvc := service.NewApprovalService(studentRepo, staffRepo, authRepo, logr)
	insightSvc := service.NewInsightService(complaintRepo, summaryRepo, llmClient, metricsSvc, authRepo, logr, service.InsightConfig{
		Enabled:        cfg.Insights.Enabled,
		MaxConcurrency: cfg.Insights.MaxConcurrency,
	})
	assistSvc := service.NewAssistService(llmClient, metricsSvc, nil, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	complaintHandler := handler.NewComplaintHandler(complaintSvc)
	outingHandler := handler.NewOutingHandler(outingSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	insightHandler := handler.NewInsightHandler(insightSvc)
	assistHandler := handler.NewAssistHandler(assistSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/signup/student", authHandler.SignupStudent)
	auth.POST("/signup/staff", authHandler.SignupStaff)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	session := api.Group("/auth", middleware.JWT(authSvc))
	session.POST("/logout", authHandler.Logout)
	session.POST("/change-password", authHandler.ChangePassword)
	session.GET("/me", authHandler.Me)

	assist := api.Group("/assist", middleware.JWT(authSvc))
	assist.POST("/rewrite", assistHandler.Rewrite)

	complaints := api.Group("/complaints", middleware.JWT(authSvc))
	complaints.POST("", middleware.RequireRoles(models.RoleStudent), complaintHandler.Create)
	complaints.GET("", complaintHandler.List)
	complaints.GET("/stats", middleware.RequireRoles(models.RoleStaff), complaintHandler.Stats)
	complaints.POST("/batch-resolve", middleware.RequireRoles(models.RoleStaff), complaintHandler.BatchResolve)
	complaints.GET("/:id", complaintHandler.Get)
	complaints.POST("/:id/acknowledge", middleware.RequireRoles(models.RoleStaff), complaintHandler.Acknowledge)
	complaints.POST("/:id/resolve", middleware.RequireRoles(models.RoleStaff), complaintHandler.Resolve)

	outings := api.Group("/outings", middleware.JWT(authSvc))
	outings.POST("", middleware.RequireRoles(models.RoleStudent), outingHandler.Create)
	outings.GET("", outingHandler.List)
	outings.GET("/stats", middleware.RequireRoles(models.RoleStaff), outingHandler.Stats)
	outings.GET("/active", middleware.RequireRoles(models.RoleStaff), outingHandler.Active)
	outings.GET("/:id", outingHandler.Get)
	outings.POST("/:id/decision", middleware.RequireRoles(models.RoleStaff), outingHandler.Decide)
	outings.POST("/:id/return", middleware.RequireRoles(models.RoleStaff), outingHandler.MarkReturned)

	insights := api.Group("/insights", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStaff))
	insights.GET("", insightHandler.Cached)
	insights.POST("/generate", insightHandler.Generate)

	students := api.Group("/students", middleware.JWT(authSvc))
	students.GET("", middleware.RequireRoles(models.RoleStaff), studentHandler.List)
	students.GET("/:id", middleware.RBAC(string(models.RoleStaff), "SELF"), studentHandler.Get)
	students.PUT("/:id", middleware.RBAC(string(models.RoleStaff), "SELF"), studentHandler.UpdateProfile)
	students.DELETE("/:id", middleware.RequireRoles(models.RoleStaff), studentHandler.Delete)

	approvals := api.Group("/approvals", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStaff))
	approvals.GET("", approvalHandler.Queue)
	approvals.POST("/accounts/:id", approvalHandler.ResolveAccount)
	approvals.POST("/profile-updates/:id", approvalHandler.ResolveProfileUpdate)

	ops := api.Group("/ops", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStaff))
	ops.GET("/metrics", metricsHandler.Snapshot)

	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportRepo := repository.NewReportRepository(db)
		exportSvc := service.NewExportService(complaintRepo, outingRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(context.Background())
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(context.Background())
		reportSvc.StartCleanup(context.Background())

		reportHandler := handler.NewReportHandler(reportSvc)
		reports := api.Group("/reports", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStaff))
		reports.POST("", middleware.Audit(authRepo, models.AuditActionReportExport, "report"), reportHandler.Create)
		reports.GET("/:id", reportHandler.Status)
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
