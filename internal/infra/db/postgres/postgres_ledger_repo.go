package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*PostgresLedgerRepo)(nil)

type PostgresLedgerRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLedgerRepo(pool *pgxpool.Pool) *PostgresLedgerRepo {
	return &PostgresLedgerRepo{pool: pool}
}

// Record lets the (user_id, listing_id) primary key handle duplicate
// prevention; a pair that is already ledgered is silently skipped.
func (r *PostgresLedgerRepo) Record(ctx context.Context, tx repository.Tx, userID string, listingIDs []string, ch model.DeliveryChannel, at time.Time) (int, error) {
	const q = `
INSERT INTO delivery_ledger (user_id, listing_id, channel, delivered_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, listing_id) DO NOTHING;`

	recorded := 0
	for _, lid := range listingIDs {
		tag, err := execSQL(ctx, r.pool, tx, q, userID, lid, string(ch), at)
		if err != nil {
			return recorded, fmt.Errorf("record delivery: %w", err)
		}
		recorded += int(tag.RowsAffected())
	}
	return recorded, nil
}

func (r *PostgresLedgerRepo) Exists(ctx context.Context, tx repository.Tx, userID, listingID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM delivery_ledger WHERE user_id=$1 AND listing_id=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, listingID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *PostgresLedgerRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM delivery_ledger;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}

func (r *PostgresLedgerRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM delivery_ledger WHERE delivered_at >= $1;`, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger since: %w", err)
	}
	return n, nil
}
