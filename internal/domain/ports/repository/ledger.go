package repository

import (
	"context"
	"time"

	"telegram-job-alerts/internal/domain/model"
)

type LedgerRepository interface {
	// Record inserts a ledger entry for each listing. Duplicate (user,
	// listing) pairs are ignored via the table's unique constraint, which is
	// the at-most-once defense when a retried dispatch partially overlaps an
	// earlier, partially observed success.
	Record(ctx context.Context, tx Tx, userID string, listingIDs []string, ch model.DeliveryChannel, at time.Time) (int, error)
	Exists(ctx context.Context, tx Tx, userID, listingID string) (bool, error)
	CountAll(ctx context.Context, tx Tx) (int, error)
	CountSince(ctx context.Context, tx Tx, since time.Time) (int, error)
}
