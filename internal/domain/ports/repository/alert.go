package repository

import (
	"context"

	"telegram-job-alerts/internal/domain/model"
)

type PendingAlertRepository interface {
	// Enqueue inserts a pending alert unless one already exists or the pair
	// is already ledgered. Returns true when a row was created.
	Enqueue(ctx context.Context, tx Tx, userID, listingID string) (bool, error)
	// FindDue returns all pending alerts grouped by user.
	FindDue(ctx context.Context, tx Tx) (map[string][]*model.PendingAlert, error)
	Remove(ctx context.Context, tx Tx, userID string, listingIDs []string) error
	CountPending(ctx context.Context, tx Tx) (int, error)
}
