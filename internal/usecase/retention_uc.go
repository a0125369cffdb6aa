// File: internal/usecase/retention_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain/ports/repository"
	"telegram-job-alerts/internal/infra/metrics"
)

// Compile-time check
var _ RetentionUseCase = (*retentionUC)(nil)

type RetentionUseCase interface {
	// PurgeStale removes listings past the retention window, except those a
	// pending alert still references. Runs after dispatch in the cycle.
	PurgeStale(ctx context.Context) (int, error)
}

type retentionUC struct {
	listings  repository.ListingRepository
	retention time.Duration

	log *zerolog.Logger
	now func() time.Time
}

func NewRetentionUseCase(listings repository.ListingRepository, retention time.Duration, logger *zerolog.Logger) *retentionUC {
	compLog := logger.With().Str("component", "RetentionUC").Logger()
	return &retentionUC{
		listings:  listings,
		retention: retention,
		log:       &compLog,
		now:       time.Now,
	}
}

func (uc *retentionUC) PurgeStale(ctx context.Context) (int, error) {
	cutoff := uc.now().Add(-uc.retention)
	n, err := uc.listings.PurgeStale(ctx, repository.NoTX, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddListingsPurged(n)
		uc.log.Info().Int("count", n).Time("cutoff", cutoff).Msg("stale listings purged")
	}
	return n, nil
}
