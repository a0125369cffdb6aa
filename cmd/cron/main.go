// File: cmd/cron/main.go
// One-shot run of the fetch/ingest/dispatch/purge cycle, for external cron
// setups that prefer a short-lived process over the in-app scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"telegram-job-alerts/internal/application"
	"telegram-job-alerts/internal/config"
	adapterports "telegram-job-alerts/internal/domain/ports/adapter"
	pg "telegram-job-alerts/internal/infra/db/postgres"
	"telegram-job-alerts/internal/infra/logging"
	"telegram-job-alerts/internal/infra/sources"
	tele "telegram-job-alerts/internal/infra/telegram"
	"telegram-job-alerts/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	dryRun := flag.Bool("dry-run", false, "run the cycle without sending any messages")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall cycle deadline")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	userRepo := pg.NewPostgresUserRepo(pool)
	listingRepo := pg.NewPostgresListingRepo(pool)
	ledgerRepo := pg.NewPostgresLedgerRepo(pool)
	alertRepo := pg.NewPostgresAlertRepo(pool)
	txManager := pg.NewTxManager(pool)

	srcs := []adapterports.SourceAdapter{
		sources.NewRemoteOK(cfg.Sources.RemoteOKURL, cfg.Sources.PerSourceLimit, cfg.Sources.Timeout),
		sources.NewHackerNews(cfg.Sources.HackerNewsURL, cfg.Sources.PerSourceLimit, cfg.Sources.Timeout),
		sources.NewGitHubJobs(cfg.Sources.GitHubURL, cfg.Sources.PerSourceLimit, cfg.Sources.Timeout),
	}

	var gateway adapterports.NotificationGateway
	if *dryRun {
		gateway = tele.NewNoopGateway(logger)
	} else {
		userUC := usecase.NewUserUseCase(userRepo, logger)
		quotaUC := usecase.NewQuotaUseCase(userRepo, listingRepo, ledgerRepo, txManager,
			cfg.Quota.FreeDailyLimit, cfg.Quota.PremiumBatchLimit, logger)
		statsUC := usecase.NewStatsUseCase(userRepo, listingRepo, ledgerRepo, alertRepo, logger)
		facade := application.NewBotFacade(userUC, quotaUC, statsUC, cfg.Quota.FreeDailyLimit)
		bot, err := tele.NewRealBot(&cfg.Bot, facade, nil, nil, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram bot")
		}
		gateway = bot
	}

	retentionUC := usecase.NewRetentionUseCase(listingRepo, cfg.Cycle.Retention(), logger)
	dispatchUC := usecase.NewDispatchUseCase(alertRepo, ledgerRepo, listingRepo, userRepo, gateway, txManager, logger)
	ingestionUC := usecase.NewIngestionUseCase(srcs, listingRepo, userRepo, alertRepo, dispatchUC, retentionUC, txManager, logger)

	if err := ingestionUC.RunCycle(ctx); err != nil {
		logger.Fatal().Err(err).Msg("cycle failed")
	}
}
