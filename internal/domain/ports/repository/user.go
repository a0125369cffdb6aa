package repository

import (
	"context"
	"time"

	"telegram-job-alerts/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// FindByIDForUpdate locks the user row for the duration of the
	// surrounding transaction. Quota claims go through this.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindPremium(ctx context.Context, tx Tx) ([]*model.User, error)
	Delete(ctx context.Context, tx Tx, id string) error
	CountByTier(ctx context.Context, tx Tx) (map[model.Tier]int, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	CountActiveSince(ctx context.Context, tx Tx, since time.Time) (int, error)
}
