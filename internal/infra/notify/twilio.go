package notify

import (
	"context"
	"log/slog"

	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/pkg/config"
	"parking-reservation/internal/pkg/errs"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
	logger *slog.Logger
}

func NewTwilioNotifier(cfg config.TwilioConfig, logger *slog.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   cfg.AccountSID,
		Password:   cfg.AuthToken,
		AccountSid: cfg.AccountSID,
	})
	return &TwilioNotifier{client: client, from: cfg.FromNumber, logger: logger}
}

// SendSMS ignores ctx: the twilio client has no per-call context.
func (n *TwilioNotifier) SendSMS(_ context.Context, to payment.Contact, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to.String())
	params.SetFrom(n.from)
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return errs.Wrap(err, "failed to send sms")
	}
	if resp != nil && resp.Sid != nil {
		n.logger.Info("sms sent", "sid", *resp.Sid)
	}
	return nil
}
