package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/slack-go/slack"

	"NewsCollector/internal/config"
	"NewsCollector/internal/infrastructure/parser"
	"NewsCollector/internal/infrastructure/scheduler"
	"NewsCollector/internal/infrastructure/slackbot"
	"NewsCollector/internal/infrastructure/storage"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
	"NewsCollector/internal/scraper"
	"NewsCollector/internal/server"
	"NewsCollector/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	server    *server.Server
	scheduler *usecase.Scheduler
	logger    *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := storage.NewPostgresRepository(db)

	fetcher := parser.NewFetcher(cfg.Scraping, nil)
	registry := scraper.NewRegistry()
	registry.Register(parser.NewPRTimesScraper(fetcher))
	registry.Register(parser.NewGenericScraper(fetcher))

	var notifier ports.Notifier
	if cfg.Slack.BotToken != "" {
		notifier = slackbot.NewNotifier(cfg.Slack)
	} else {
		baseLogger.Warn("slack bot token is not set, notifications disabled")
	}

	collector := usecase.NewCollector(usecase.CollectorDeps{
		Config:     cfg,
		Registry:   registry,
		Repository: repo,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "collector"),
	})

	var mentions server.MentionHandler
	if cfg.Slack.BotToken != "" && cfg.Slack.SigningSecret != "" {
		names := make(map[string]string, len(cfg.Companies))
		for _, company := range cfg.Companies {
			names[company.ID] = company.Name
		}
		mentions = slackbot.NewEventHandler(slack.New(cfg.Slack.BotToken), repo, collector, names)
	}

	srv := server.New(cfg, collector, repo, mentions, baseLogger.With("component", "server"))

	var sched *usecase.Scheduler
	if cfg.Scheduler.CronExpression != "" {
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		sched = usecase.NewScheduler(driver, collector, baseLogger.With("component", "scheduler"))
	}

	return &Application{
		cfg:       cfg,
		db:        db,
		server:    srv,
		scheduler: sched,
		logger:    baseLogger,
	}, nil
}

// Run serves HTTP (and the optional cron loop) until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.db.Close(); err != nil {
			a.logger.Error("closing database failed", "error", err)
		}
	}()

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			if err := a.scheduler.Stop(context.Background()); err != nil {
				a.logger.Error("stopping scheduler failed", "error", err)
			}
		}()
	}

	a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
	return a.server.Run(ctx)
}
