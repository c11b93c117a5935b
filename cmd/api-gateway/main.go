package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lmsops/lp-reset-api/api/swagger"
	"github.com/lmsops/lp-reset-api/internal/handler"
	"github.com/lmsops/lp-reset-api/internal/middleware"
	"github.com/lmsops/lp-reset-api/internal/platform"
	"github.com/lmsops/lp-reset-api/internal/repository"
	"github.com/lmsops/lp-reset-api/internal/scheduler"
	"github.com/lmsops/lp-reset-api/internal/service"
	"github.com/lmsops/lp-reset-api/pkg/cache"
	"github.com/lmsops/lp-reset-api/pkg/config"
	"github.com/lmsops/lp-reset-api/pkg/database"
	"github.com/lmsops/lp-reset-api/pkg/lock"
	"github.com/lmsops/lp-reset-api/pkg/logger"
	"github.com/lmsops/lp-reset-api/pkg/mailer"
	corsmiddleware "github.com/lmsops/lp-reset-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lmsops/lp-reset-api/pkg/middleware/requestid"
)

// @title LP Reset API
// @version 0.1.0
// @description Learning-progress reset scheduling and execution service
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbound mail goes through a buffered worker queue so a slow SMTP
	// host never blocks a run or an API request.
	sender := mailer.NewSMTPSender(cfg.SMTP)
	queuedMailer := mailer.NewQueuedMailer(sender, cfg.Notifications, logr)
	queuedMailer.Start(ctx)
	defer queuedMailer.Stop()

	scheduleRepo := repository.NewScheduleRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	treeStore := platform.NewTreeStore(db)
	programmeStore := platform.NewProgrammeStore(db)
	lookupStore := platform.NewLookupStore(db)
	activityStore := platform.NewActivityStore(db)
	rightsStore := platform.NewRightsStore(db)
	userStore := platform.NewUserStore(db)
	progressStore := platform.NewProgressStore(db)

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	targetResolver := service.NewTargetResolver(treeStore, programmeStore, lookupStore)
	audienceResolver := service.NewAudienceResolver(activityStore, rightsStore)
	runLocker := lock.NewRedisLocker(redisClient, "lp-reset", cfg.Scheduler.LockTTL)

	scheduleSvc := service.NewScheduleService(scheduleRepo, lookupStore, validate, logr)
	executionSvc := service.NewExecutionService(
		scheduleRepo, historyRepo,
		targetResolver, audienceResolver,
		progressStore, lookupStore, userStore,
		queuedMailer, runLocker, logr,
		service.WithMetrics(metricsSvc),
	)
	historySvc := service.NewHistoryService(historyRepo, logr)
	exportSvc := service.NewExportService(historyRepo, logr)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, executionSvc)
	historyHandler := handler.NewHistoryHandler(historySvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/schedules", scheduleHandler.List)
		api.POST("/schedules", scheduleHandler.Create)
		api.GET("/schedules/:id", scheduleHandler.Get)
		api.PUT("/schedules/:id", scheduleHandler.Update)
		api.DELETE("/schedules/:id", scheduleHandler.Delete)
		api.POST("/schedules/:id/run", scheduleHandler.Run)
		api.POST("/schedules/:id/notify", scheduleHandler.Notify)
		api.GET("/schedules/:id/objects", scheduleHandler.Objects)

		api.GET("/history", historyHandler.List)
		api.GET("/history/:id", historyHandler.Get)
		if cfg.Exports.Enabled {
			api.GET("/history/export", historyHandler.Export)
		}
	}

	if cfg.Scheduler.Enabled {
		cronPass := scheduler.New(scheduleRepo, executionSvc, cfg.Scheduler.CronSpec, logr,
			scheduler.WithMetrics(metricsSvc))
		if err := cronPass.Start(); err != nil {
			logr.Sugar().Fatalw("failed to start scheduler", "error", err)
		}
		defer cronPass.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
