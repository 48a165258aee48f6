// Package mq consumes payment-provider callbacks from RabbitMQ.
package mq

import (
	"context"
	"encoding/json"
	"log/slog"

	"parking-reservation/internal/pkg/config"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/commands"
	"parking-reservation/internal/usecase/queries"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyPaymentResult = "payment.result"
	prefetch                = 8
)

type paymentMessage struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Status         string `json:"status"`
	Reference      string `json:"reference"`
	Reason         string `json:"reason"`
	AmountMinor    int64  `json:"amountMinor"`
}

type PaymentReconciler interface {
	ReconcilePayment(ctx context.Context, result commands.PaymentResult) (*queries.BookingView, error)
}

type Consumer struct {
	cfg        config.RabbitMQConfig
	reconciler PaymentReconciler
	logger     *slog.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(cfg config.RabbitMQConfig, reconciler PaymentReconciler, logger *slog.Logger) *Consumer {
	return &Consumer{cfg: cfg, reconciler: reconciler, logger: logger}
}

func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return errs.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errs.Wrap(err, "open channel")
	}

	fail := func(err error, msg string) error {
		_ = ch.Close()
		_ = conn.Close()
		return errs.Wrap(err, msg)
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(err, "declare exchange")
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail(err, "declare queue")
	}
	if err := ch.QueueBind(q.Name, routingKeyPaymentResult, c.cfg.Exchange, false, nil); err != nil {
		return fail(err, "bind queue")
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fail(err, "set qos")
	}

	c.conn = conn
	c.ch = ch
	return nil
}

// Run blocks until ctx is done or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return errs.Wrap(err, "consume")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.logger.Error("payment callback failed, requeueing", "error", err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// handle returns an error only when a retry could succeed. Malformed messages
// and rejected transitions are acknowledged and logged.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var msg paymentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		c.logger.Warn("dropping malformed payment callback", "error", err)
		return nil
	}
	result, err := commands.NewPaymentResult(msg.IdempotencyKey, msg.Status, msg.Reference, msg.Reason, msg.AmountMinor)
	if err != nil {
		c.logger.Warn("dropping invalid payment callback", "key", msg.IdempotencyKey, "error", err)
		return nil
	}

	view, err := c.reconciler.ReconcilePayment(ctx, result)
	if err != nil {
		if kind := errs.KindOf(err); kind != "" {
			c.logger.Warn("payment callback rejected", "key", result.Key, "kind", kind)
			return nil
		}
		return err
	}
	c.logger.Info("payment callback applied", "booking_id", view.ID, "state", view.State)
	return nil
}
