package repository

import (
	"context"
	"time"

	"telegram-job-alerts/internal/domain/model"
)

type ListingRepository interface {
	// Insert stores a listing unless its (source, source_native_id) pair is
	// already known. Returns true when a new row was created; re-fetches of a
	// known listing are a silent no-op and never mutate the stored row.
	Insert(ctx context.Context, tx Tx, l *model.Listing) (bool, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Listing, error)
	FindByIDs(ctx context.Context, tx Tx, ids []string) ([]*model.Listing, error)
	// FindUndelivered returns listings without a ledger entry for the user,
	// newest posted_at first (row ID descending on ties).
	FindUndelivered(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Listing, error)
	HasUndelivered(ctx context.Context, tx Tx, userID string) (bool, error)
	// PurgeStale deletes listings fetched before the cutoff that have no
	// pending alert pointing at them. Returns the number of rows removed.
	PurgeStale(ctx context.Context, tx Tx, cutoff time.Time) (int, error)
	CountByPlatform(ctx context.Context, tx Tx) (map[string]int, error)
	LastFetchedAt(ctx context.Context, tx Tx) (*time.Time, error)
}
