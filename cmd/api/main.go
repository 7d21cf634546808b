package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/solicitudes-service/internal/api/http"
	"github.com/spec-kit/solicitudes-service/internal/api/http/handlers"
	"github.com/spec-kit/solicitudes-service/internal/auth"
	"github.com/spec-kit/solicitudes-service/internal/config"
	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/events"
	"github.com/spec-kit/solicitudes-service/internal/notify"
	"github.com/spec-kit/solicitudes-service/internal/observability"
	"github.com/spec-kit/solicitudes-service/internal/persistence"
	"github.com/spec-kit/solicitudes-service/internal/repository"
	"github.com/spec-kit/solicitudes-service/internal/service"
	"github.com/spec-kit/solicitudes-service/internal/storage"
	"github.com/spec-kit/solicitudes-service/internal/worker"
	"github.com/spec-kit/solicitudes-service/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Pool != nil {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	routing, err := config.LoadRouting(cfg.Notification.RoutingFile)
	if err != nil {
		logger.Fatal("failed to load routing", zap.Error(err))
	}

	files, err := storage.NewLocal(cfg.Storage.Dir, cfg.Storage.MaxUploadSize)
	if err != nil {
		logger.Fatal("failed to prepare attachment storage", zap.Error(err))
	}

	requestRepo := repository.NewCachedRequestStore(
		repository.NewRequestRepository(pg.Pool), redis.Client, cfg.Workflow.CacheTTL(), logger.Named("cache"))
	adminRepo := repository.NewAdminRepository(pg.Pool)
	attachmentRepo := repository.NewAttachmentRepository(pg.Pool)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, notify.NewSender(cfg.Notification, logger.Named("notify")),
		routing, adminRepo, cfg.Notification, metrics, logger.Named("notify"))
	worker.StartNotificationWorker(notificationService)

	requestService := service.NewRequestService(service.RequestDependencies{
		Requests:      requestRepo,
		Attachments:   attachmentRepo,
		Files:         files,
		Engine:        workflow.NewEngine(cfg.Workflow.Location(), logger.Named("workflow"), metrics),
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger.Named("requests"),
		LongPauseDays: cfg.Workflow.LongPauseDays,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, adminRepo, tokens, logger.Named("auth"))
	if cfg.Auth.BootstrapUser != "" && cfg.Auth.BootstrapPassword != "" && pg.Pool != nil {
		if _, err := authService.EnsureAdmin(ctx, service.AdminInput{
			Username: cfg.Auth.BootstrapUser,
			Password: cfg.Auth.BootstrapPassword,
			Email:    cfg.Auth.BootstrapEmail,
			Role:     domain.AdminRoleSupervisor,
		}); err != nil {
			logger.Fatal("failed to provision bootstrap admin", zap.Error(err))
		}
	}

	monitor, err := worker.NewPauseMonitor(cfg.Workflow.PauseScanCron, cfg.Workflow.Location(), requestService, logger.Named("pause-monitor"))
	if err != nil {
		logger.Fatal("failed to schedule pause monitor", zap.Error(err))
	}
	if err := monitor.Start(); err != nil {
		logger.Fatal("failed to start pause monitor", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Storage.MaxUploadSize) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger.Named("http"), metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Requests:       handlers.NewRequestsHandler(requestService),
		AdminRequests:  handlers.NewAdminRequestsHandler(requestService),
		AdminAuth:      handlers.NewAdminAuthHandler(authService),
		Workflow:       handlers.NewWorkflowHandler(),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, adminRepo),
		Prometheus:     fiberprometheus.New(cfg.App.Name),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	monitor.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
