// File: internal/usecase/quota_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
	"telegram-job-alerts/internal/infra/metrics"
)

// Compile-time check
var _ QuotaUseCase = (*quotaUC)(nil)

// QuotaUseCase is the tier-gated on-demand delivery engine. The read of a
// user's remaining quota, the selection of undelivered listings, and the
// ledger write are one atomic claim: two concurrent requests for the same
// user cannot both take the same remaining slots.
type QuotaUseCase interface {
	RequestOnDemand(ctx context.Context, userID string) ([]*model.Listing, model.QuotaStatus, error)
}

type quotaUC struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	ledger   repository.LedgerRepository
	tm       repository.TransactionManager

	freeLimit      int
	premiumCeiling int

	log *zerolog.Logger
	now func() time.Time
}

func NewQuotaUseCase(
	users repository.UserRepository,
	listings repository.ListingRepository,
	ledger repository.LedgerRepository,
	tm repository.TransactionManager,
	freeLimit, premiumCeiling int,
	logger *zerolog.Logger,
) *quotaUC {
	compLog := logger.With().Str("component", "QuotaUC").Logger()
	return &quotaUC{
		users:          users,
		listings:       listings,
		ledger:         ledger,
		tm:             tm,
		freeLimit:      freeLimit,
		premiumCeiling: premiumCeiling,
		log:            &compLog,
		now:            time.Now,
	}
}

func (uc *quotaUC) RequestOnDemand(ctx context.Context, userID string) ([]*model.Listing, model.QuotaStatus, error) {
	batch, status, err := uc.claim(ctx, userID)
	if err != nil && isTransientTxErr(err) {
		// Claim races are resolved by the store; retry the whole claim once.
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("transient conflict on quota claim, retrying")
		batch, status, err = uc.claim(ctx, userID)
		if err != nil && isTransientTxErr(err) {
			metrics.IncQuotaOutcome(model.QuotaStatusTemporarilyUnavailable)
			return nil, model.QuotaStatusTemporarilyUnavailable, nil
		}
	}
	if err != nil {
		return nil, "", err
	}
	metrics.IncQuotaOutcome(status)
	if status == model.QuotaStatusOK {
		metrics.IncDeliveries(model.ChannelOnDemand, len(batch))
	}
	return batch, status, nil
}

// claim runs the whole read-then-write sequence inside one transaction with
// the user row locked, including the daily window rollover.
func (uc *quotaUC) claim(ctx context.Context, userID string) ([]*model.Listing, model.QuotaStatus, error) {
	var (
		batch  []*model.Listing
		status model.QuotaStatus
	)
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		u, err := uc.users.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		now := uc.now()
		rolled := u.RollWindow(now)
		limit := u.RemainingQuota(uc.freeLimit, uc.premiumCeiling)

		if limit == 0 {
			has, err := uc.listings.HasUndelivered(ctx, tx, userID)
			if err != nil {
				return err
			}
			if has {
				status = model.QuotaStatusExhaustedQuota
			} else {
				status = model.QuotaStatusExhaustedSupply
			}
			if rolled {
				return uc.users.Save(ctx, tx, u)
			}
			return nil
		}

		found, err := uc.listings.FindUndelivered(ctx, tx, userID, limit)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			status = model.QuotaStatusExhaustedSupply
			if rolled {
				return uc.users.Save(ctx, tx, u)
			}
			return nil
		}

		ids := make([]string, 0, len(found))
		for _, l := range found {
			ids = append(ids, l.ID)
		}
		if _, err := uc.ledger.Record(ctx, tx, userID, ids, model.ChannelOnDemand, now); err != nil {
			return err
		}

		u.SentToday += len(found)
		u.Touch()
		if err := uc.users.Save(ctx, tx, u); err != nil {
			return err
		}

		batch = found
		status = model.QuotaStatusOK
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return batch, status, nil
}

func isTransientTxErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure / deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
