package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/queueflow/queue-service/internal/api/http"
	"github.com/queueflow/queue-service/internal/api/http/handlers"
	"github.com/queueflow/queue-service/internal/auth"
	"github.com/queueflow/queue-service/internal/config"
	"github.com/queueflow/queue-service/internal/events"
	"github.com/queueflow/queue-service/internal/observability"
	"github.com/queueflow/queue-service/internal/persistence"
	"github.com/queueflow/queue-service/internal/pii"
	"github.com/queueflow/queue-service/internal/realtime"
	"github.com/queueflow/queue-service/internal/repository"
	"github.com/queueflow/queue-service/internal/service"
	"github.com/queueflow/queue-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	codec, err := pii.NewCodec(cfg.PII.KeyBytes())
	if err != nil {
		logger.Fatal("failed to init pii codec", zap.Error(err))
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool, codec)
	categoryRepo := repository.NewCategoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	transactor := repository.NewTransactor(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	queueService := service.NewQueueService(service.QueueDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		UserRepo:     userRepo,
		Transactor:   transactor,
		Allocator:    service.NewTokenAllocator(ticketRepo, logger, metrics),
		Balancer:     service.NewLoadBalancer(assignmentRepo, ticketRepo),
		Positions:    service.NewPositionManager(ticketRepo),
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	categoryService := service.NewCategoryService(categoryRepo)
	agentService := service.NewAgentService(service.AgentDependencies{
		UserRepo:       userRepo,
		CategoryRepo:   categoryRepo,
		AssignmentRepo: assignmentRepo,
		Transactor:     transactor,
	}, cfg.Auth.BcryptCost)
	authService := service.NewAuthService(*cfg, userRepo)
	analyticsService := service.NewAnalyticsService(ticketRepo)

	broadcaster := realtime.NewBroadcaster(redis.Client, logger, cfg.Realtime.ChannelPrefix)
	broadcaster.Register(dispatcher)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Checkin:        handlers.NewCheckinHandler(queueService),
		Queue:          handlers.NewQueueHandler(queueService),
		Categories:     handlers.NewCategoriesHandler(categoryService, analyticsService),
		Users:          handlers.NewUsersHandler(agentService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
