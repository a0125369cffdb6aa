package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// EnsureSchema creates the four tables on boot. The uniqueness constraints
// are load-bearing: listing identity, at-most-once delivery, and single
// pending alert per (user, listing) all live here rather than in code.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			telegram_id       BIGINT NOT NULL UNIQUE,
			username          TEXT NOT NULL DEFAULT '',
			tier              TEXT NOT NULL DEFAULT 'free',
			preferences       JSONB NOT NULL DEFAULT '{}',
			sent_today        INT NOT NULL DEFAULT 0,
			window_started_at TIMESTAMPTZ,
			registered_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_active_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS listings (
			id               TEXT PRIMARY KEY,
			source           TEXT NOT NULL,
			source_native_id TEXT NOT NULL,
			title            TEXT NOT NULL DEFAULT '',
			description      TEXT NOT NULL DEFAULT '',
			url              TEXT NOT NULL DEFAULT '',
			platform         TEXT NOT NULL DEFAULT '',
			skills           JSONB NOT NULL DEFAULT '[]',
			budget_min       INT,
			budget_max       INT,
			posted_at        TIMESTAMPTZ NOT NULL,
			fetched_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (source, source_native_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_posted_at ON listings (posted_at DESC, id DESC);`,
		`CREATE TABLE IF NOT EXISTS delivery_ledger (
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			listing_id   TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			channel      TEXT NOT NULL,
			delivered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, listing_id)
		);`,
		`CREATE TABLE IF NOT EXISTS pending_alerts (
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			listing_id  TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			enqueued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, listing_id)
		);`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
