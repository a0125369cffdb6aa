// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/repository"
	"telegram-job-alerts/internal/infra/metrics"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error)
	SetPreferences(ctx context.Context, tgID int64, prefs model.Preferences) (*model.User, error)
	// SetTier is the payment/admin boundary: an external action marks the
	// user premium (or back to free); the core never validates payment.
	SetTier(ctx context.Context, userID string, tier model.Tier) error
	// Erase hard-deletes the user on an explicit data-erasure request,
	// cascading to ledger and pending rows.
	Erase(ctx context.Context, userID string) error
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	compLog := logger.With().Str("component", "UserUC").Logger()
	return &userUC{users: users, log: &compLog}
}

func (uc *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error) {
	u, err := uc.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err == nil {
		u.Touch()
		if username != "" && username != u.Username {
			u.Username = username
		}
		if err := uc.users.Save(ctx, repository.NoTX, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u, err = model.NewUser("", tgID, username)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Save(ctx, repository.NoTX, u); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tg_id", tgID).Str("user_id", u.ID).Msg("user registered")
	metrics.IncUsersRegistered()
	return u, nil
}

func (uc *userUC) SetPreferences(ctx context.Context, tgID int64, prefs model.Preferences) (*model.User, error) {
	u, err := uc.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, err
	}
	u.Preferences = prefs
	u.Touch()
	if err := uc.users.Save(ctx, repository.NoTX, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetTier touches only the tier; an upgrade mid-day keeps the consumed
// counter, which simply stops mattering on the premium path.
func (uc *userUC) SetTier(ctx context.Context, userID string, tier model.Tier) error {
	u, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return err
	}
	u.Tier = tier
	if err := uc.users.Save(ctx, repository.NoTX, u); err != nil {
		return err
	}
	uc.log.Info().Str("user_id", userID).Str("tier", string(tier)).Msg("tier changed")
	return nil
}

func (uc *userUC) Erase(ctx context.Context, userID string) error {
	err := uc.users.Delete(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		uc.log.Warn().Str("user_id", userID).Msg("erasure requested for unknown user")
		return err
	}
	if err != nil {
		return err
	}
	uc.log.Info().Str("user_id", userID).Msg("user erased")
	return nil
}
