package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-mini/internal/api/http"
	"github.com/spec-kit/helpdesk-mini/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-mini/internal/auth"
	"github.com/spec-kit/helpdesk-mini/internal/config"
	"github.com/spec-kit/helpdesk-mini/internal/events"
	"github.com/spec-kit/helpdesk-mini/internal/observability"
	"github.com/spec-kit/helpdesk-mini/internal/persistence"
	"github.com/spec-kit/helpdesk-mini/internal/repository"
	"github.com/spec-kit/helpdesk-mini/internal/service"
	"github.com/spec-kit/helpdesk-mini/internal/worker"
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

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CommentRepo:  commentRepo,
		TimelineRepo: timelineRepo,
		UserRepo:     userRepo,
		Dispatcher:   dispatcher,
	})
	slaService := service.NewSLAService(service.SLADependencies{
		TicketRepo:   ticketRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	notifications := service.NewNotificationService(dispatcher, logger)
	notifications.RegisterHandlers()

	if cfg.Sweeper.Enabled {
		sweeper := worker.NewSLASweeper(slaService, cfg.Sweeper.Interval(), logger)
		sweeper.Start(ctx)
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisStore)
	usersHandler := handlers.NewUsersHandler(authService, userService)
	ticketsHandler := handlers.NewTicketsHandler(ticketService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Tickets:        ticketsHandler,
		Users:          usersHandler,
		AuthMiddleware: authMiddleware,
		RateLimiter:    httptransport.RateLimiter(redisStore.Client, cfg.RateLimit, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
