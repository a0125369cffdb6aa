package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
)

var _ repository.PendingAlertRepository = (*PostgresAlertRepo)(nil)

type PostgresAlertRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAlertRepo(pool *pgxpool.Pool) *PostgresAlertRepo {
	return &PostgresAlertRepo{pool: pool}
}

// Enqueue keeps the invariant "pending only when not ledgered" in a single
// statement so the on-demand path cannot race an alert into a resend.
func (r *PostgresAlertRepo) Enqueue(ctx context.Context, tx repository.Tx, userID, listingID string) (bool, error) {
	const q = `
INSERT INTO pending_alerts (user_id, listing_id, enqueued_at)
SELECT $1, $2, NOW()
 WHERE NOT EXISTS (
         SELECT 1 FROM delivery_ledger
          WHERE user_id = $1 AND listing_id = $2)
ON CONFLICT (user_id, listing_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("enqueue alert: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresAlertRepo) FindDue(ctx context.Context, tx repository.Tx) (map[string][]*model.PendingAlert, error) {
	const q = `SELECT user_id, listing_id, enqueued_at FROM pending_alerts ORDER BY user_id, enqueued_at;`
	rows, err := querySQL(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]*model.PendingAlert)
	for rows.Next() {
		var a model.PendingAlert
		if err := rows.Scan(&a.UserID, &a.ListingID, &a.EnqueuedAt); err != nil {
			return nil, err
		}
		out[a.UserID] = append(out[a.UserID], &a)
	}
	return out, rows.Err()
}

func (r *PostgresAlertRepo) Remove(ctx context.Context, tx repository.Tx, userID string, listingIDs []string) error {
	if len(listingIDs) == 0 {
		return nil
	}
	const q = `DELETE FROM pending_alerts WHERE user_id=$1 AND listing_id = ANY($2);`
	_, err := execSQL(ctx, r.pool, tx, q, userID, listingIDs)
	return err
}

func (r *PostgresAlertRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM pending_alerts;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}
