package components

import (
	"context"
	"log/slog"

	"parking-reservation/internal/infra/mq"
	"parking-reservation/internal/pkg/config"
	"parking-reservation/internal/usecase/commands"
	"parking-reservation/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Invoke(
		startSweeper,
		startPaymentConsumer,
	),
)

func startSweeper(lc fx.Lifecycle, cfg config.Config, cmds commands.BookingCommands, logger *slog.Logger) error {
	sweeper, err := worker.NewSweeper(cfg.Workflow.SweepSchedule, cmds, cfg.Workflow.SweepTimeout, logger)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sweeper.Start()
			logger.Info("hold sweeper started", "schedule", cfg.Workflow.SweepSchedule)
			return nil
		},
		OnStop: sweeper.Stop,
	})
	return nil
}

func startPaymentConsumer(lc fx.Lifecycle, cfg config.Config, cmds commands.BookingCommands, logger *slog.Logger) {
	if cfg.RabbitMQ.URL == "" {
		return
	}
	consumer := mq.NewConsumer(cfg.RabbitMQ, cmds, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := consumer.Connect(); err != nil {
				cancel()
				return err
			}
			go func() {
				defer close(done)
				if err := consumer.Run(ctx); err != nil {
					logger.Error("payment consumer stopped", "error", err)
				}
			}()
			logger.Info("payment consumer started", "queue", cfg.RabbitMQ.Queue)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return consumer.Close()
		},
	})
}
