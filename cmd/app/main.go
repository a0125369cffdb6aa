// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"telegram-job-alerts/internal/application"
	"telegram-job-alerts/internal/config"
	"telegram-job-alerts/internal/domain/ports/adapter"
	pg "telegram-job-alerts/internal/infra/db/postgres"
	"telegram-job-alerts/internal/infra/logging"
	"telegram-job-alerts/internal/infra/metrics"
	red "telegram-job-alerts/internal/infra/redis"
	"telegram-job-alerts/internal/infra/sched"
	"telegram-job-alerts/internal/infra/sources"
	tele "telegram-job-alerts/internal/infra/telegram"
	"telegram-job-alerts/internal/infra/web"
	"telegram-job-alerts/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	filterStates := red.NewFilterStateRepo(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	listingRepo := pg.NewPostgresListingRepo(pool)
	ledgerRepo := pg.NewPostgresLedgerRepo(pool)
	alertRepo := pg.NewPostgresAlertRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Sources ----
	srcs := []adapter.SourceAdapter{
		sources.NewRemoteOK(cfg.Sources.RemoteOKURL, cfg.Sources.PerSourceLimit, cfg.Sources.Timeout),
		sources.NewHackerNews(cfg.Sources.HackerNewsURL, cfg.Sources.PerSourceLimit, cfg.Sources.Timeout),
		sources.NewGitHubJobs(cfg.Sources.GitHubURL, cfg.Sources.PerSourceLimit, cfg.Sources.Timeout),
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, logger)
	quotaUC := usecase.NewQuotaUseCase(userRepo, listingRepo, ledgerRepo, txManager,
		cfg.Quota.FreeDailyLimit, cfg.Quota.PremiumBatchLimit, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, listingRepo, ledgerRepo, alertRepo, logger)
	retentionUC := usecase.NewRetentionUseCase(listingRepo, cfg.Cycle.Retention(), logger)

	// ---- Facade + Telegram ----
	facade := application.NewBotFacade(userUC, quotaUC, statsUC, cfg.Quota.FreeDailyLimit)
	bot, err := tele.NewRealBot(&cfg.Bot, facade, filterStates, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram bot")
	}

	dispatchUC := usecase.NewDispatchUseCase(alertRepo, ledgerRepo, listingRepo, userRepo, bot, txManager, logger)
	ingestionUC := usecase.NewIngestionUseCase(srcs, listingRepo, userRepo, alertRepo, dispatchUC, retentionUC, txManager, logger)

	go func() {
		if err := bot.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Cycle worker ----
	cycleWorker := sched.NewCycleWorker(cfg.Cycle.Cron, ingestionUC, statsUC, logger)
	go func() {
		if err := cycleWorker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("cycle worker stopped")
		}
	}()

	// ---- Admin API ----
	adminSrv := web.NewServer(&cfg.Admin, statsUC, userUC, logger)
	go func() {
		if err := adminSrv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	bot.StopPolling()
	_ = adminSrv.Shutdown(context.Background())
}
