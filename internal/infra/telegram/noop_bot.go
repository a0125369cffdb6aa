package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/adapter"
)

// NoopGateway logs sends instead of performing them. Used for dry runs of the
// ingestion cycle where nothing should reach Telegram.
type NoopGateway struct {
	log *zerolog.Logger
}

var _ adapter.NotificationGateway = (*NoopGateway)(nil)

func NewNoopGateway(logger *zerolog.Logger) *NoopGateway {
	compLog := logger.With().Str("component", "NoopGateway").Logger()
	return &NoopGateway{log: &compLog}
}

func (g *NoopGateway) SendBatch(ctx context.Context, tgID int64, listings []*model.Listing) error {
	g.log.Info().Int64("tg_id", tgID).Int("count", len(listings)).Msg("dry-run: batch not sent")
	return nil
}

func (g *NoopGateway) SendText(ctx context.Context, tgID int64, text string) error {
	g.log.Info().Int64("tg_id", tgID).Msg("dry-run: message not sent")
	return nil
}
