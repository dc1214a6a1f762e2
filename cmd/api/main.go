package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/relay-service/internal/api/http"
	"github.com/spec-kit/relay-service/internal/api/http/handlers"
	"github.com/spec-kit/relay-service/internal/auth"
	"github.com/spec-kit/relay-service/internal/classifier"
	"github.com/spec-kit/relay-service/internal/config"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/escalation"
	"github.com/spec-kit/relay-service/internal/events"
	"github.com/spec-kit/relay-service/internal/gateway/jira"
	"github.com/spec-kit/relay-service/internal/gateway/llm"
	"github.com/spec-kit/relay-service/internal/gateway/slack"
	"github.com/spec-kit/relay-service/internal/observability"
	"github.com/spec-kit/relay-service/internal/persistence"
	"github.com/spec-kit/relay-service/internal/repository"
	"github.com/spec-kit/relay-service/internal/service"
	"github.com/spec-kit/relay-service/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pool := pg.PoolHandle(); pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, os.DirFS(cfg.Postgres.MigrationsDir), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	auditService := service.NewAuditService(dispatcher, repository.NewAuditRepository(pg.PoolHandle(), logger), logger)
	worker.StartAuditWorker(auditService)

	httpClient := &http.Client{Timeout: 20 * time.Second}
	tickets := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.APIToken, httpClient)
	notifier := slack.NewClient(cfg.Slack.BotToken, cfg.Slack.BaseURL, httpClient)
	model := llm.NewAnthropic(cfg.Classifier.APIKey, cfg.Classifier.BaseURL, cfg.Classifier.Model, cfg.Classifier.MaxTokens, httpClient)
	cls := classifier.New(model, cfg.Classifier.Timeout(), logger)

	publishOutcome := service.EscalationObserver(dispatcher)
	scheduler := escalation.NewScheduler(tickets, notifier, logger, escalation.Options{
		Delay:        cfg.Escalation.Delay(),
		CheckTimeout: cfg.Escalation.CheckTimeout(),
		Observer: func(job domain.EscalationJob, reason string) {
			metrics.RecordEscalation(string(job.State), reason)
			publishOutcome(job, reason)
		},
	})

	relay := service.RelayDependencies{
		Tickets:    tickets,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Routing:    cfg.Routing,
		Logger:     logger,
	}
	runner := worker.NewRunner(logger, metrics, cfg.App.FlowTimeout())
	webhookDeps := handlers.WebhookDependencies{
		Runner: runner,
		Guard:  service.NewDeliveryGuard(repository.NewDeliveryRepository(redis.Client), cfg.Dedup.TTL(), logger),
		Logger: logger,
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	}, scheduler, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        health,
		Slack:         handlers.NewSlackHandler(webhookDeps, service.NewChatService(relay, cls), cfg.Slack.SigningSecret),
		GitHub:        handlers.NewGitHubHandler(webhookDeps, service.NewSourceControlService(relay), cfg.GitHub.WebhookSecret),
		Jira:          handlers.NewJiraHandler(webhookDeps, service.NewUnblockerService(relay, scheduler)),
		Transcript:    handlers.NewTranscriptHandler(webhookDeps, service.NewTranscriptService(relay, cls)),
		TrackerTokens: auth.NewTrackerTokenMiddleware(auth.NewTrackerTokenVerifier(cfg.Jira.WebhookSecret), logger),
	})

	if cfg.GitHub.WebhookSecret == "" {
		logger.Warn("GITHUB_WEBHOOK_SECRET not set; source-control webhooks will be rejected")
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	runner.Wait()
	scheduler.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
