// File: internal/usecase/ingestion_uc.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/adapter"
	"telegram-job-alerts/internal/domain/ports/repository"
	"telegram-job-alerts/internal/infra/metrics"
)

// Compile-time check
var _ IngestionUseCase = (*ingestionUC)(nil)

type IngestionUseCase interface {
	// Ingest stores listings with first-seen-wins dedup and enqueues pending
	// alerts for premium users whose preferences match a newly inserted one.
	Ingest(ctx context.Context, listings []*model.Listing) (model.IngestionReport, error)
	// RunCycle is the scheduled entry point: fetch all sources, ingest,
	// drain pending alerts, purge stale listings.
	RunCycle(ctx context.Context) error
}

type ingestionUC struct {
	sources   []adapter.SourceAdapter
	listings  repository.ListingRepository
	users     repository.UserRepository
	alerts    repository.PendingAlertRepository
	dispatch  DispatchUseCase
	retention RetentionUseCase
	tm        repository.TransactionManager

	log *zerolog.Logger
	now func() time.Time
}

func NewIngestionUseCase(
	sources []adapter.SourceAdapter,
	listings repository.ListingRepository,
	users repository.UserRepository,
	alerts repository.PendingAlertRepository,
	dispatch DispatchUseCase,
	retention RetentionUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *ingestionUC {
	compLog := logger.With().Str("component", "IngestionUC").Logger()
	return &ingestionUC{
		sources:   sources,
		listings:  listings,
		users:     users,
		alerts:    alerts,
		dispatch:  dispatch,
		retention: retention,
		tm:        tm,
		log:       &compLog,
		now:       time.Now,
	}
}

func (uc *ingestionUC) Ingest(ctx context.Context, batch []*model.Listing) (model.IngestionReport, error) {
	var report model.IngestionReport
	if len(batch) == 0 {
		return report, nil
	}

	// Premium subscribers are loaded once per batch; their filters run
	// against inserted listings only.
	premium, err := uc.users.FindPremium(ctx, repository.NoTX)
	if err != nil {
		return report, err
	}

	now := uc.now()
	for _, l := range batch {
		if l.IsZero() {
			report.SkippedDuplicate++
			continue
		}
		l.FetchedAt = now

		// Insert and alert enqueue commit together: a listing must never
		// become a known duplicate without its alert obligations recorded,
		// since ingest evaluates matches for newly inserted rows only.
		var inserted bool
		var enqueued int
		err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			var err error
			inserted, err = uc.listings.Insert(ctx, tx, l)
			if err != nil || !inserted {
				return err
			}
			for _, u := range premium {
				if !u.Preferences.Matches(l) {
					continue
				}
				enq, err := uc.alerts.Enqueue(ctx, tx, u.ID, l.ID)
				if err != nil {
					return err
				}
				if enq {
					enqueued++
				}
			}
			return nil
		})
		if err != nil {
			return report, err
		}
		if !inserted {
			report.SkippedDuplicate++
			metrics.IncListingsSkipped(l.Source)
			continue
		}
		report.Inserted++
		report.AlertsEnqueued += enqueued
		metrics.IncListingsIngested(l.Source)
	}

	uc.log.Info().
		Int("inserted", report.Inserted).
		Int("skipped_duplicate", report.SkippedDuplicate).
		Int("alerts_enqueued", report.AlertsEnqueued).
		Msg("ingestion complete")
	return report, nil
}

// RunCycle fetches all sources concurrently; a source that errors or times
// out is reported and skipped, never fatal for the cycle. The remaining steps
// run sequentially.
func (uc *ingestionUC) RunCycle(ctx context.Context) error {
	fetched := uc.fetchAll(ctx)

	if _, err := uc.Ingest(ctx, fetched); err != nil {
		return err
	}

	delivered, failed, err := uc.dispatch.DrainDueAlerts(ctx)
	if err != nil {
		return err
	}
	if failed > 0 {
		uc.log.Warn().Int("failed", failed).Msg("some alert batches will be retried next cycle")
	}

	purged, err := uc.retention.PurgeStale(ctx)
	if err != nil {
		return err
	}

	uc.log.Info().
		Int("fetched", len(fetched)).
		Int("alerts_delivered", delivered).
		Int("purged", purged).
		Msg("cycle complete")
	return nil
}

func (uc *ingestionUC) fetchAll(ctx context.Context) []*model.Listing {
	var (
		mu  sync.Mutex
		all []*model.Listing
		wg  sync.WaitGroup
	)
	for _, src := range uc.sources {
		wg.Add(1)
		go func(src adapter.SourceAdapter) {
			defer wg.Done()
			batch, err := src.Fetch(ctx)
			if err != nil {
				metrics.IncSourceFetchFailures(src.Name())
				uc.log.Warn().Err(err).Str("source", src.Name()).Msg("source unavailable, skipping")
				return
			}
			uc.log.Debug().Str("source", src.Name()).Int("count", len(batch)).Msg("source fetched")
			mu.Lock()
			all = append(all, batch...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()
	return all
}
