package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
)

var _ repository.ListingRepository = (*PostgresListingRepo)(nil)

type PostgresListingRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresListingRepo(pool *pgxpool.Pool) *PostgresListingRepo {
	return &PostgresListingRepo{pool: pool}
}

const listingColumns = `id, source, source_native_id, title, description, url, platform, skills::text, budget_min, budget_max, posted_at, fetched_at`

// Insert relies on the (source, source_native_id) unique constraint for
// dedup: a re-fetch of a known listing is a no-op and never overwrites the
// stored row, so first-seen wins even when later upstream pages are
// incomplete.
func (r *PostgresListingRepo) Insert(ctx context.Context, tx repository.Tx, l *model.Listing) (bool, error) {
	const q = `
INSERT INTO listings (id, source, source_native_id, title, description, url, platform, skills, budget_min, budget_max, posted_at, fetched_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9,$10,$11,$12)
ON CONFLICT (source, source_native_id) DO NOTHING;`

	skills := l.Skills
	if skills == nil {
		skills = []string{}
	}
	sb, err := json.Marshal(skills)
	if err != nil {
		return false, fmt.Errorf("marshal skills: %w", err)
	}
	tag, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.Source, l.SourceNativeID, l.Title, l.Description, l.URL, l.Platform,
		string(sb), l.BudgetMin, l.BudgetMax, l.PostedAt, l.FetchedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanListing(row)
}

func (r *PostgresListingRepo) FindByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id = ANY($1) ORDER BY posted_at DESC, id DESC;`
	rows, err := querySQL(ctx, r.pool, tx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *PostgresListingRepo) FindUndelivered(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Listing, error) {
	q := `
SELECT ` + listingColumns + `
  FROM listings l
 WHERE NOT EXISTS (
         SELECT 1 FROM delivery_ledger dl
          WHERE dl.user_id = $1 AND dl.listing_id = l.id)
 ORDER BY posted_at DESC, id DESC
 LIMIT $2;`
	rows, err := querySQL(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *PostgresListingRepo) HasUndelivered(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM listings l
     WHERE NOT EXISTS (
             SELECT 1 FROM delivery_ledger dl
              WHERE dl.user_id = $1 AND dl.listing_id = l.id)
);`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

// PurgeStale skips listings with a pending alert: a promised notification is
// never lost to retention; the row becomes purge-eligible again once the
// alert resolves.
func (r *PostgresListingRepo) PurgeStale(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	const q = `
DELETE FROM listings
 WHERE fetched_at < $1
   AND NOT EXISTS (
         SELECT 1 FROM pending_alerts p
          WHERE p.listing_id = listings.id);`
	tag, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresListingRepo) CountByPlatform(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	rows, err := querySQL(ctx, r.pool, tx, `SELECT platform, COUNT(*) FROM listings GROUP BY platform;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var platform string
		var n int
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, err
		}
		out[platform] = n
	}
	return out, rows.Err()
}

func (r *PostgresListingRepo) LastFetchedAt(ctx context.Context, tx repository.Tx) (*time.Time, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT MAX(fetched_at) FROM listings;`)
	if err != nil {
		return nil, err
	}
	var t *time.Time
	if err := row.Scan(&t); err != nil {
		return nil, err
	}
	return t, nil
}

func scanListing(row pgx.Row) (*model.Listing, error) {
	var l model.Listing
	var skills string
	if err := row.Scan(&l.ID, &l.Source, &l.SourceNativeID, &l.Title, &l.Description,
		&l.URL, &l.Platform, &skills, &l.BudgetMin, &l.BudgetMax, &l.PostedAt, &l.FetchedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(skills), &l.Skills); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	return &l, nil
}

func scanListings(rows pgx.Rows) ([]*model.Listing, error) {
	var out []*model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
