package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

const unlockTimeout = 2 * time.Second

// Processor makes charges idempotent per key: a settled key is answered from
// the store and a key with a charge in flight is refused.
type Processor struct {
	gateway Gateway
	store   OutcomeStore
	clock   clock.Clock
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewProcessor takes lockTTL longer than the charge timeout so a lock never
// lapses while its charge is still running.
func NewProcessor(gateway Gateway, store OutcomeStore, clk clock.Clock, lockTTL time.Duration, logger *slog.Logger) *Processor {
	return &Processor{
		gateway: gateway,
		store:   store,
		clock:   clk,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

func (p *Processor) Charge(ctx context.Context, req payment.ChargeRequest) (payment.Outcome, error) {
	replay, err := p.replay(ctx, req)
	if err != nil {
		return payment.Outcome{}, err
	}
	if replay != nil {
		return *replay, nil
	}

	release, ok, err := p.store.Lock(ctx, req.Key, p.lockTTL)
	if err != nil {
		return payment.Outcome{}, err
	}
	if !ok {
		return payment.Failed(payment.ReasonInProgress, "a charge for this booking is already processing"), nil
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
		defer cancel()
		if err := release(unlockCtx); err != nil {
			p.logger.Warn("failed to release charge lock", "key", req.Key, "error", err)
		}
	}()

	// a success may have landed between the first check and the lock
	if replay, err = p.replay(ctx, req); err != nil {
		return payment.Outcome{}, err
	}
	if replay != nil {
		return *replay, nil
	}

	outcome, err := p.gateway.Charge(ctx, req)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		p.logger.Warn("charge timed out", "key", req.Key)
		return payment.Failed(payment.ReasonTimeout, "the payment provider did not answer in time"), nil
	case err != nil:
		p.logger.Error("gateway charge failed", "key", req.Key, "error", err)
		return payment.Failed(payment.ReasonError, "the payment provider is unavailable"), nil
	case !outcome.IsSuccess():
		return outcome, nil
	}

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
	defer cancel()
	stored, err := p.store.Settle(settleCtx, req.Key, SettledCharge{
		Reference:   outcome.Reference,
		AmountMinor: req.Amount.Minor(),
		SettledAt:   p.clock.Now(),
	})
	if err != nil {
		// the provider took the money; keep its reference
		p.logger.Error("failed to record settled charge", "key", req.Key, "reference", outcome.Reference, "error", err)
		return outcome, nil
	}
	return payment.Succeeded(stored.Reference), nil
}

// Reconcile records a late provider result. Failures are passed through
// unrecorded; only a success is sticky.
func (p *Processor) Reconcile(ctx context.Context, key uuid.UUID, outcome payment.Outcome, amountMinor int64) (payment.Outcome, error) {
	if !outcome.IsSuccess() {
		return outcome, nil
	}
	if outcome.Reference == "" {
		return payment.Outcome{}, errs.Newf("successful callback for %s carries no reference", key)
	}

	stored, err := p.store.Settle(ctx, key, SettledCharge{
		Reference:   outcome.Reference,
		AmountMinor: amountMinor,
		SettledAt:   p.clock.Now(),
	})
	if err != nil {
		return payment.Outcome{}, err
	}
	// amount 0 comes from callbacks that did not report one
	if amountMinor != 0 && stored.AmountMinor != 0 && stored.AmountMinor != amountMinor {
		return payment.Outcome{}, errs.Wrapf(errs.ErrIdempotencyConflict,
			"key %s settled for %d, callback reported %d", key, stored.AmountMinor, amountMinor)
	}
	if stored.Reference != outcome.Reference {
		p.logger.Info("duplicate payment success ignored", "key", key, "reference", outcome.Reference, "kept", stored.Reference)
	}
	return payment.Succeeded(stored.Reference), nil
}

func (p *Processor) replay(ctx context.Context, req payment.ChargeRequest) (*payment.Outcome, error) {
	settled, err := p.store.Settled(ctx, req.Key)
	if err != nil || settled == nil {
		return nil, err
	}
	// amount 0 comes from callbacks that did not report one
	if settled.AmountMinor != 0 && settled.AmountMinor != req.Amount.Minor() {
		return nil, errs.Wrapf(errs.ErrIdempotencyConflict, "key %s settled for %d, requested %d", req.Key, settled.AmountMinor, req.Amount.Minor())
	}
	out := payment.Succeeded(settled.Reference)
	return &out, nil
}
