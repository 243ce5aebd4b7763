package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jagesaurus/invigilation-api/api/swagger"
	"github.com/jagesaurus/invigilation-api/internal/handler"
	internalmiddleware "github.com/jagesaurus/invigilation-api/internal/middleware"
	"github.com/jagesaurus/invigilation-api/internal/models"
	"github.com/jagesaurus/invigilation-api/internal/repository"
	"github.com/jagesaurus/invigilation-api/internal/service"
	"github.com/jagesaurus/invigilation-api/pkg/cache"
	"github.com/jagesaurus/invigilation-api/pkg/config"
	"github.com/jagesaurus/invigilation-api/pkg/database"
	"github.com/jagesaurus/invigilation-api/pkg/jobs"
	"github.com/jagesaurus/invigilation-api/pkg/logger"
	corsmiddleware "github.com/jagesaurus/invigilation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jagesaurus/invigilation-api/pkg/middleware/requestid"
	"github.com/jagesaurus/invigilation-api/pkg/storage"
)

// @title Invigilation API
// @version 0.1.0
// @description Exam invigilation scheduling for schools
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	educatorRepo := repository.NewEducatorRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	examRepo := repository.NewExamRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	educatorSvc := service.NewEducatorService(educatorRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	examSvc := service.NewExamService(examRepo, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr)
	rosterSvc := service.NewRosterImportService(educatorRepo, roomRepo, logr)
	metricsSvc := service.NewMetricsService()

	invigilationSvc := service.NewInvigilationService(
		examRepo, roomRepo, educatorRepo, settingsRepo, scheduleRepo, cacheRepo,
		validate, logr,
		service.InvigilationConfig{
			ProposalTTL:      cfg.Invigilation.ProposalTTL,
			FairnessCacheTTL: cfg.Invigilation.FairnessCacheTTL,
		},
	)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	cleanupQueue := jobs.NewQueue("export-cleanup", func(ctx context.Context, _ jobs.Job) error {
		return exportSvc.CleanupExpired(ctx)
	}, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportSvc = service.NewExportService(scheduleRepo, store, signer, cleanupQueue, cfg.Exports.SignedURLTTL, logr)

	cleanupQueue.Start(ctx)
	defer cleanupQueue.Stop()
	go scheduleCleanups(ctx, cleanupQueue, cfg.Exports.CleanupInterval)

	authHandler := handler.NewAuthHandler(authSvc)
	educatorHandler := handler.NewEducatorHandler(educatorSvc, rosterSvc)
	roomHandler := handler.NewRoomHandler(roomSvc, rosterSvc)
	examHandler := handler.NewExamHandler(examSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	scheduleHandler := handler.NewScheduleHandler(invigilationSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
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
	api.POST("/auth/login", authHandler.Login)
	api.GET("/exports/download", exportHandler.Download)

	authed := api.Group("")
	authed.Use(internalmiddleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/educators", educatorHandler.List)
	authed.GET("/educators/:id", educatorHandler.Get)
	authed.GET("/rooms", roomHandler.List)
	authed.GET("/rooms/:id", roomHandler.Get)
	authed.GET("/exams", examHandler.List)
	authed.GET("/exams/:id", examHandler.Get)
	authed.GET("/settings", settingsHandler.Get)
	authed.GET("/schedules", scheduleHandler.List)
	authed.GET("/schedules/:id", scheduleHandler.Get)
	authed.GET("/schedules/:id/fairness", scheduleHandler.Fairness)

	staff := authed.Group("")
	staff.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator))
	staff.POST("/educators", educatorHandler.Create)
	staff.PUT("/educators/:id", educatorHandler.Update)
	staff.DELETE("/educators/:id", educatorHandler.Delete)
	staff.POST("/educators/import", educatorHandler.Import)
	staff.POST("/rooms", roomHandler.Create)
	staff.PUT("/rooms/:id", roomHandler.Update)
	staff.DELETE("/rooms/:id", roomHandler.Delete)
	staff.PATCH("/rooms/:id/availability", roomHandler.SetAvailability)
	staff.POST("/rooms/import", roomHandler.Import)
	staff.POST("/exams", examHandler.Create)
	staff.PUT("/exams/:id", examHandler.Update)
	staff.DELETE("/exams/:id", examHandler.Delete)
	staff.POST("/schedules/generate", scheduleHandler.Generate)
	staff.POST("/schedules", scheduleHandler.Save)
	staff.POST("/schedules/validate", scheduleHandler.Validate)
	staff.DELETE("/schedules/:id", scheduleHandler.Delete)
	staff.POST("/sessions/:sessionId/substitute", scheduleHandler.Substitute)
	staff.POST("/exports/:id", exportHandler.Export)

	admin := authed.Group("")
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdmin))
	admin.PUT("/settings", settingsHandler.Update)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// scheduleCleanups enqueues an export cleanup job on every tick.
func scheduleCleanups(ctx context.Context, queue *jobs.Queue, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			_ = queue.Enqueue(jobs.Job{
				ID:   fmt.Sprintf("cleanup-%d", tick.Unix()),
				Type: "export_cleanup",
			})
		}
	}
}
