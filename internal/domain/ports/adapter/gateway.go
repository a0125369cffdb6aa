package adapter

import (
	"context"

	"telegram-job-alerts/internal/domain/model"
)

// NotificationGateway delivers formatted listing batches to a user's chat.
// Sends may fail transiently; callers treat a returned error as
// domain.ErrDeliveryFailed and retry on a later cycle.
type NotificationGateway interface {
	// SendBatch delivers all listings in one message, never one message per
	// listing.
	SendBatch(ctx context.Context, tgID int64, listings []*model.Listing) error
	SendText(ctx context.Context, tgID int64, text string) error
}
