package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/lead-crm/internal/api/http"
	"github.com/spec-kit/lead-crm/internal/api/http/handlers"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/config"
	"github.com/spec-kit/lead-crm/internal/events"
	"github.com/spec-kit/lead-crm/internal/hierarchy"
	"github.com/spec-kit/lead-crm/internal/observability"
	"github.com/spec-kit/lead-crm/internal/persistence"
	"github.com/spec-kit/lead-crm/internal/repository"
	"github.com/spec-kit/lead-crm/internal/service"
	"github.com/spec-kit/lead-crm/internal/worker"
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

	metrics := observability.NewMetrics()

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

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	leadRepo := repository.NewLeadRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	followUpRepo := repository.NewFollowUpRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	resolver := hierarchy.NewResolver(accountRepo, logger, metrics)
	validator := hierarchy.NewValidator(accountRepo, resolver)
	scoper := hierarchy.NewScoper(resolver)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, accountRepo, redis)
	accountService := service.NewAccountService(service.AccountDependencies{
		AccountRepo: accountRepo,
		LeadRepo:    leadRepo,
		Resolver:    resolver,
		Validator:   validator,
		Scoper:      scoper,
		Dispatcher:  dispatcher,
		BcryptCost:  cfg.Auth.BcryptCost,
	})
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:     leadRepo,
		CommentRepo:  commentRepo,
		FollowUpRepo: followUpRepo,
		ActivityRepo: activityRepo,
		Resolver:     resolver,
		Scoper:       scoper,
		Dispatcher:   dispatcher,
	})
	reminderService := service.NewReminderService(followUpRepo, scoper)
	reportService := service.NewReportService(service.ReportDependencies{
		LeadRepo:     leadRepo,
		AccountRepo:  accountRepo,
		FollowUpRepo: followUpRepo,
		ActivityRepo: activityRepo,
		Resolver:     resolver,
		Scoper:       scoper,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	reminderWorker := worker.NewReminderWorker(followUpRepo, dispatcher, logger, metrics, cfg.Reminder.SweepInterval())
	reminderWorker.Start(ctx)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), accountRepo, redis, cfg.Auth.CookieName)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, accountService, cfg.Auth.CookieName),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Leads:          handlers.NewLeadsHandler(leadService),
		Activity:       handlers.NewActivityHandler(leadService),
		Reminders:      handlers.NewRemindersHandler(reminderService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
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
