package events

import (
	"context"
	"log/slog"

	"parking-reservation/internal/usecase/shared"
)

// LogPublisher is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event shared.BookingEvent) error {
	p.logger.InfoContext(ctx, "booking event",
		"type", event.Type,
		"booking_id", event.BookingID,
		"state", event.State,
		"amount_minor", event.AmountMinor,
	)
	return nil
}
