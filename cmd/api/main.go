package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/horas-api/internal/config"
	"github.com/noah-isme/horas-api/internal/database"
	"github.com/noah-isme/horas-api/internal/handler"
	"github.com/noah-isme/horas-api/internal/middleware"
	"github.com/noah-isme/horas-api/internal/observability"
	"github.com/noah-isme/horas-api/internal/repository"
	"github.com/noah-isme/horas-api/internal/router"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
	cloud "github.com/noah-isme/horas-api/pkg/cloudinary"
)

var _ service.FileStorage = (*cloud.Storage)(nil)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.OTelServiceName).Logger()
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.AppEnv,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	}, logger)
	if err != nil {
		log.Fatalf("failed to initialise tracing: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	healthChecks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		logger.Warn().Msg("redis url not set, progress cache disabled")
	}

	publisher := service.NewLogProgressPublisher(logger)
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		publisher = service.NewNATSProgressPublisher(natsConn, cfg.NATSSubject)
	}

	validate := utils.NewValidator(nil)

	listRepo := repository.NewActivityListRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	progressService := service.NewProgressService(studentRepo, listRepo, activityRepo, redisClient, cfg.ProgressCacheTTL, publisher, logger)
	listService := service.NewActivityListService(listRepo, progressService, auditService, validate, logger)
	studentService := service.NewStudentService(studentRepo, listRepo, progressService, auditService, validate, logger)
	activityService := service.NewActivityService(activityRepo, studentRepo, progressService, auditService, validate, logger)
	reportService := service.NewReportService(listRepo, studentRepo, activityRepo, logger)
	dashboardService := service.NewDashboardService(listService, studentRepo, activityRepo, redisClient, 30*time.Second, logger)
	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)

	deps := router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		ActivityListHandler: handler.NewActivityListHandler(listService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		ProgressHandler:     handler.NewProgressHandler(progressService, logger),
		ReportHandler:       handler.NewReportHandler(reportService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		HealthChecks:        healthChecks,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		LoginLimiter:        middleware.RateLimit("login", cfg.LoginRateLimit, time.Minute),
	}

	if cfg.UploadsEnabled() {
		storage, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		documentService := service.NewDocumentService(storage, documentRepo, cfg.UploadMaxSizeMB, logger)
		deps.DocumentHandler = handler.NewDocumentHandler(documentService, logger)
	} else {
		logger.Warn().Msg("cloudinary credentials not set, document uploads disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowedOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger, shutdownTracing)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger, shutdownTracing func(context.Context) error) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to flush traces")
	}

	logger.Info().Msg("server stopped")
}
