// File: internal/usecase/dispatch_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/adapter"
	"telegram-job-alerts/internal/domain/ports/repository"
	"telegram-job-alerts/internal/infra/metrics"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// DispatchUseCase drains the durable pending-alert queue. All of a user's
// pending listings go out as one batched message; pending rows move to the
// ledger only after the gateway accepts the send, so a transient failure
// leaves the queue untouched for the next cycle (at-least-once, with the
// ledger's uniqueness as the resend guard).
type DispatchUseCase interface {
	DrainDueAlerts(ctx context.Context) (delivered, failed int, err error)
}

type dispatchUC struct {
	alerts   repository.PendingAlertRepository
	ledger   repository.LedgerRepository
	listings repository.ListingRepository
	users    repository.UserRepository
	gateway  adapter.NotificationGateway
	tm       repository.TransactionManager

	log *zerolog.Logger
	now func() time.Time
}

func NewDispatchUseCase(
	alerts repository.PendingAlertRepository,
	ledger repository.LedgerRepository,
	listings repository.ListingRepository,
	users repository.UserRepository,
	gateway adapter.NotificationGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *dispatchUC {
	compLog := logger.With().Str("component", "DispatchUC").Logger()
	return &dispatchUC{
		alerts:   alerts,
		ledger:   ledger,
		listings: listings,
		users:    users,
		gateway:  gateway,
		tm:       tm,
		log:      &compLog,
		now:      time.Now,
	}
}

func (uc *dispatchUC) DrainDueAlerts(ctx context.Context) (int, int, error) {
	due, err := uc.alerts.FindDue(ctx, repository.NoTX)
	if err != nil {
		return 0, 0, err
	}

	delivered, failed := 0, 0
	for userID, pending := range due {
		n, err := uc.drainUser(ctx, userID, pending)
		if err != nil {
			if errors.Is(err, domain.ErrDeliveryFailed) {
				failed++
				metrics.IncDeliveryFailures()
				uc.log.Warn().Err(err).Str("user_id", userID).Int("pending", len(pending)).Msg("alert batch kept queued")
				continue
			}
			return delivered, failed, err
		}
		delivered += n
	}

	if n, err := uc.alerts.CountPending(ctx, repository.NoTX); err == nil {
		metrics.SetPendingAlerts(n)
	}
	return delivered, failed, nil
}

func (uc *dispatchUC) drainUser(ctx context.Context, userID string, pending []*model.PendingAlert) (int, error) {
	u, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// User erased between enqueue and drain; the cascade removed the
			// pending rows already.
			return 0, nil
		}
		return 0, err
	}

	ids := make([]string, 0, len(pending))
	for _, a := range pending {
		ids = append(ids, a.ListingID)
	}
	batch, err := uc.listings.FindByIDs(ctx, repository.NoTX, ids)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, uc.alerts.Remove(ctx, repository.NoTX, userID, ids)
	}

	if err := uc.gateway.SendBatch(ctx, u.TelegramID, batch); err != nil {
		return 0, domain.ErrDeliveryFailed
	}

	// Gateway accepted: move pending -> ledger atomically.
	sent := make([]string, 0, len(batch))
	for _, l := range batch {
		sent = append(sent, l.ID)
	}
	recorded := 0
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		n, err := uc.ledger.Record(ctx, tx, userID, sent, model.ChannelAlert, uc.now())
		if err != nil {
			return err
		}
		recorded = n
		return uc.alerts.Remove(ctx, tx, userID, ids)
	})
	if err != nil {
		return 0, err
	}
	metrics.IncDeliveries(model.ChannelAlert, recorded)
	return recorded, nil
}
