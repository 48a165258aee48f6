package components

import (
	"context"
	"log/slog"

	"parking-reservation/internal/infra/events"
	"parking-reservation/internal/infra/notify"
	"parking-reservation/internal/infra/payment"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/config"
	"parking-reservation/internal/usecase/shared"

	"go.uber.org/fx"
)

// payment lock TTL as a multiple of PAYMENT_TIMEOUT
const lockTTLFactor = 2

var IntegrationModule = fx.Module("integration",
	fx.Provide(
		NewOutcomeStore,
		NewGateway,
		fx.Annotate(
			NewPaymentProcessor,
			fx.As(new(shared.PaymentProcessor)),
		),
		NewEventPublisher,
		NewNotifier,
	),
)

func NewOutcomeStore(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) payment.OutcomeStore {
	if cfg.Redis.Addr == "" {
		return payment.NewMemoryStore(clk)
	}
	client := payment.NewRedisClient(cfg.Redis)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("redis unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return payment.NewRedisStore(client)
}

func NewGateway(cfg config.Config) (payment.Gateway, error) {
	return payment.NewSimulatedGateway(cfg.Gateway.Delay, cfg.Gateway.NodeID)
}

func NewPaymentProcessor(gateway payment.Gateway, store payment.OutcomeStore, clk clock.Clock, cfg config.Config, logger *slog.Logger) *payment.Processor {
	return payment.NewProcessor(gateway, store, clk, lockTTLFactor*cfg.Workflow.PaymentTimeout, logger)
}

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) shared.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogPublisher(logger)
	}
	publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

func NewNotifier(cfg config.Config, logger *slog.Logger) shared.Notifier {
	if cfg.Twilio.AccountSID == "" {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewTwilioNotifier(cfg.Twilio, logger)
}
