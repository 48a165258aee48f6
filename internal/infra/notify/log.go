package notify

import (
	"context"
	"log/slog"

	"parking-reservation/internal/domain/payment"
)

// LogNotifier stands in for SMS when Twilio is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendSMS(ctx context.Context, to payment.Contact, body string) error {
	n.logger.InfoContext(ctx, "sms (not sent)", "to", to.String(), "body", body)
	return nil
}
