package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, telegram_id, username, tier, preferences::text, sent_today, window_started_at, registered_at, last_active_at`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, username, tier, preferences, sent_today, window_started_at, registered_at, last_active_at
) VALUES (
  $1,$2,$3,$4,$5::jsonb,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, username=$3, tier=$4, preferences=$5::jsonb,
  sent_today=$6, window_started_at=$7, last_active_at=$9;
`
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		u.ID, u.TelegramID, u.Username, string(u.Tier), string(prefs),
		u.SentToday, u.WindowStartedAt, u.RegisteredAt, u.LastActiveAt)
	return err
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE telegram_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, tgID)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

// FindByIDForUpdate locks the user row so concurrent quota claims for the
// same user serialize on the store, not on in-process state. Inside a
// transaction it also takes a per-user advisory xact lock, which covers the
// insert-then-claim race a plain row lock cannot (no row to lock yet).
func (r *PostgresUserRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if _, ok := tx.(pgx.Tx); ok {
		if _, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64(id)); err != nil {
			return nil, err
		}
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1 FOR UPDATE;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

func (r *PostgresUserRepo) FindPremium(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE tier=$1;`
	rows, err := querySQL(ctx, r.pool, tx, q, string(model.TierPremium))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM users WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) CountByTier(ctx context.Context, tx repository.Tx) (map[model.Tier]int, error) {
	rows, err := querySQL(ctx, r.pool, tx, `SELECT tier, COUNT(*) FROM users GROUP BY tier;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Tier]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		out[model.Tier(tier)] = n
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) CountActiveSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users WHERE last_active_at >= $1;`, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count active: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var tier, prefs string
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &tier, &prefs,
		&u.SentToday, &u.WindowStartedAt, &u.RegisteredAt, &u.LastActiveAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Tier = model.Tier(tier)
	if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return &u, nil
}
