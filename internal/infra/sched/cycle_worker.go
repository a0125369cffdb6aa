package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/infra/metrics"
	"telegram-job-alerts/internal/usecase"
)

// CycleWorker schedules the fetch/ingest/dispatch/purge cycle on a cron spec.
// Overlapping runs are skipped: a slow cycle must finish before the next fires.
type CycleWorker struct {
	spec    string
	ingUC   usecase.IngestionUseCase
	statsUC usecase.StatsUseCase
	cron    *cron.Cron
	log     *zerolog.Logger
}

func NewCycleWorker(spec string, ingUC usecase.IngestionUseCase, statsUC usecase.StatsUseCase, logger *zerolog.Logger) *CycleWorker {
	compLog := logger.With().Str("component", "CycleWorker").Logger()
	return &CycleWorker{
		spec:    spec,
		ingUC:   ingUC,
		statsUC: statsUC,
		log:     &compLog,
	}
}

// Run installs the cron entry and blocks until ctx is canceled.
func (w *CycleWorker) Run(ctx context.Context) error {
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := w.cron.AddFunc(w.spec, func() { w.runOnce(ctx) })
	if err != nil {
		return err
	}

	w.log.Info().Str("spec", w.spec).Msg("starting cycle worker")
	w.cron.Start()

	<-ctx.Done()
	w.log.Info().Msg("stopping cycle worker")
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

func (w *CycleWorker) runOnce(ctx context.Context) {
	started := time.Now()
	if err := w.ingUC.RunCycle(ctx); err != nil {
		w.log.Error().Err(err).Msg("cycle failed")
		return
	}
	w.log.Info().Dur("elapsed", time.Since(started)).Msg("cycle finished")

	if w.statsUC == nil {
		return
	}
	report, err := w.statsUC.Summary(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("stats refresh failed")
		return
	}
	metrics.SetUsersByTier(report.UsersByTier)
	metrics.SetPendingAlerts(report.PendingAlerts)
}
