// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase is read-only reporting over the same store; it never mutates
// anything and has no quota semantics.
type StatsUseCase interface {
	Summary(ctx context.Context) (*StatsReport, error)
}

type StatsReport struct {
	TotalUsers         int                `json:"total_users"`
	UsersByTier        map[model.Tier]int `json:"users_by_tier"`
	ActiveLast24h      int                `json:"active_last_24h"`
	ListingsByPlatform map[string]int     `json:"listings_by_platform"`
	DeliveriesTotal    int                `json:"deliveries_total"`
	DeliveriesLast24h  int                `json:"deliveries_last_24h"`
	PendingAlerts      int                `json:"pending_alerts"`
	LastFetchAt        *time.Time         `json:"last_fetch_at,omitempty"`
}

type statsUC struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	ledger   repository.LedgerRepository
	alerts   repository.PendingAlertRepository
	log      *zerolog.Logger
	now      func() time.Time
}

func NewStatsUseCase(
	users repository.UserRepository,
	listings repository.ListingRepository,
	ledger repository.LedgerRepository,
	alerts repository.PendingAlertRepository,
	logger *zerolog.Logger,
) *statsUC {
	compLog := logger.With().Str("component", "StatsUC").Logger()
	return &statsUC{users: users, listings: listings, ledger: ledger, alerts: alerts, log: &compLog, now: time.Now}
}

func (uc *statsUC) Summary(ctx context.Context) (*StatsReport, error) {
	r := &StatsReport{}
	var err error

	if r.TotalUsers, err = uc.users.CountUsers(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if r.UsersByTier, err = uc.users.CountByTier(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	dayAgo := uc.now().Add(-24 * time.Hour)
	if r.ActiveLast24h, err = uc.users.CountActiveSince(ctx, repository.NoTX, dayAgo); err != nil {
		return nil, err
	}
	if r.ListingsByPlatform, err = uc.listings.CountByPlatform(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if r.DeliveriesTotal, err = uc.ledger.CountAll(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if r.DeliveriesLast24h, err = uc.ledger.CountSince(ctx, repository.NoTX, dayAgo); err != nil {
		return nil, err
	}
	if r.PendingAlerts, err = uc.alerts.CountPending(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if r.LastFetchAt, err = uc.listings.LastFetchedAt(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	return r, nil
}
