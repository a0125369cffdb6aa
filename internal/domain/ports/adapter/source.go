package adapter

import (
	"context"

	"telegram-job-alerts/internal/domain/model"
)

// SourceAdapter pulls one upstream job board and translates its payload into
// canonical listings. Implementations apply their own request timeout and
// wrap upstream failures in domain.ErrSourceUnavailable; a failing source
// never aborts the rest of the cycle.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]*model.Listing, error)
}
