package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/queries"
	"parking-reservation/internal/usecase/shared"

	"github.com/google/uuid"
)

const sideEffectTimeout = 5 * time.Second

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/commands/booking.go -package=commandsmock

// BookingCommands drives a booking from Draft to a terminal state. Methods that
// reject a transition still return the current projection next to the error.
type BookingCommands interface {
	StartBooking(ctx context.Context, in StartBookingInput) (*queries.BookingView, error)
	SelectFacility(ctx context.Context, id uuid.UUID, facilityID facility.ID) (*queries.BookingView, error)
	SetDuration(ctx context.Context, id uuid.UUID, hours float64) (*queries.BookingView, error)
	SetStartTime(ctx context.Context, id uuid.UUID, startAt time.Time) (*queries.BookingView, error)
	SubmitBooking(ctx context.Context, id uuid.UUID) (*queries.BookingView, error)
	SubmitPayment(ctx context.Context, id uuid.UUID, in SubmitPaymentInput) (*queries.BookingView, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (*queries.BookingView, error)
	CurrentState(ctx context.Context, id uuid.UUID) (*queries.BookingView, error)
	ReconcilePayment(ctx context.Context, result PaymentResult) (*queries.BookingView, error)
	ExpireHolds(ctx context.Context) (ExpireResult, error)
}

type bookingUseCaseImpl struct {
	sessions  shared.BookingSessions
	registry  shared.InventoryRegistry
	uow       shared.UnitOfWork
	processor shared.PaymentProcessor
	publisher shared.EventPublisher
	notifier  shared.Notifier
	services  *booking.Services
	policy    WorkflowPolicy
	logger    *slog.Logger
}

func NewBookingUseCase(
	sessions shared.BookingSessions,
	registry shared.InventoryRegistry,
	uow shared.UnitOfWork,
	processor shared.PaymentProcessor,
	publisher shared.EventPublisher,
	notifier shared.Notifier,
	services *booking.Services,
	policy WorkflowPolicy,
	logger *slog.Logger,
) BookingCommands {
	return &bookingUseCaseImpl{
		sessions:  sessions,
		registry:  registry,
		uow:       uow,
		processor: processor,
		publisher: publisher,
		notifier:  notifier,
		services:  services,
		policy:    policy,
		logger:    logger,
	}
}

func (u *bookingUseCaseImpl) StartBooking(ctx context.Context, in StartBookingInput) (*queries.BookingView, error) {
	now := u.services.Clock.Now()
	var startAt time.Time
	if in.StartAt != nil {
		startAt = *in.StartAt
	}

	b, err := booking.NewBooking(uuid.Nil, startAt, now)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.Add(ctx, b); err != nil {
		return nil, err
	}
	u.logger.Info("booking started", "booking_id", b.ID(), "start_at", b.StartAt())

	if in.FacilityID != "" {
		return u.SelectFacility(ctx, b.ID(), in.FacilityID)
	}
	return queries.NewBookingView(b, u.policy.Currency), nil
}

func (u *bookingUseCaseImpl) SelectFacility(ctx context.Context, id uuid.UUID, facilityID facility.ID) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "select facility", func(b *booking.Booking, now time.Time) error {
		if err := b.RequireDraft("select facility"); err != nil {
			return err
		}
		snap, err := u.registry.Facility(ctx, facilityID)
		if err != nil {
			return err
		}
		return b.SelectFacility(snap, u.services.Pricing, now)
	})
}

func (u *bookingUseCaseImpl) SetDuration(ctx context.Context, id uuid.UUID, hours float64) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "set duration", func(b *booking.Booking, now time.Time) error {
		return b.SetDuration(hours, u.services.Pricing, now)
	})
}

func (u *bookingUseCaseImpl) SetStartTime(ctx context.Context, id uuid.UUID, startAt time.Time) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "set start time", func(b *booking.Booking, now time.Time) error {
		return b.SetStartTime(startAt, now)
	})
}

func (u *bookingUseCaseImpl) SubmitBooking(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "submit booking", func(b *booking.Booking, now time.Time) error {
		if err := b.CheckSubmit(); err != nil {
			return err
		}

		hold, err := u.registry.TryReserve(ctx, b.FacilityID(), now.Add(u.policy.HoldTTL))
		if err != nil {
			if errs.Is(err, errs.ErrCapacityExhausted) {
				b.ClearFacility(now)
			}
			return err
		}

		if err := b.AttachHold(hold, now); err != nil {
			if relErr := u.registry.Release(ctx, hold.Token); relErr != nil {
				u.logger.Error("failed to release unattached hold", "booking_id", id, "hold", hold.Token, "error", relErr)
			}
			return err
		}
		u.logger.Info("capacity held", "booking_id", id, "facility_id", hold.FacilityID, "expires_at", hold.ExpiresAt)
		return nil
	})
}

// SubmitPayment charges outside the booking lock. PaymentInFlight keeps other
// transitions out while the gateway works, and the outcome is applied only to
// the attempt that started it.
func (u *bookingUseCaseImpl) SubmitPayment(ctx context.Context, id uuid.UUID, in SubmitPaymentInput) (*queries.BookingView, error) {
	// invalid input becomes the zero value and is rejected after the state check
	method, _ := payment.ParseMethod(in.Method)
	contact, _ := payment.ParseContact(in.Contact)

	var attempt payment.Attempt
	view, err := u.withBooking(ctx, id, "submit payment", func(b *booking.Booking, now time.Time) error {
		expected := b.Cost()
		if _, ok := b.Hold(); ok {
			cost, err := b.ExpectedCost(u.services.Pricing)
			if err != nil {
				return err
			}
			expected = cost
		}

		a, err := b.BeginPayment(method, contact, expected, now)
		if err != nil {
			return err
		}
		attempt = a
		return nil
	})
	if err != nil {
		return view, err
	}
	u.logger.Info("payment started", "booking_id", id, "attempt", attempt.Number, "method", attempt.Method, "amount", attempt.Amount.String())

	outcome := u.charge(ctx, attempt)
	if outcome.IsSuccess() {
		return u.confirm(ctx, id, outcome.Reference)
	}
	return u.applyFailure(ctx, id, attempt.Number, outcome)
}

func (u *bookingUseCaseImpl) CancelBooking(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "cancel booking", func(b *booking.Booking, now time.Time) error {
		if err := b.CheckCancel(booking.CancelReasonUser); err != nil {
			return err
		}
		if err := u.releaseHold(ctx, b); err != nil {
			return err
		}
		return b.Cancel(booking.CancelReasonUser, now)
	})
}

func (u *bookingUseCaseImpl) CurrentState(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "current state", func(*booking.Booking, time.Time) error {
		return nil
	})
}

// ReconcilePayment applies a provider result that arrived after the charge
// call gave up, typically a success following a timeout. A success is checked
// against the booking before the processor records it.
func (u *bookingUseCaseImpl) ReconcilePayment(ctx context.Context, result PaymentResult) (*queries.BookingView, error) {
	if result.Outcome.IsSuccess() {
		view, err := u.withBooking(ctx, result.Key, "reconcile payment", func(b *booking.Booking, _ time.Time) error {
			if b.State() == booking.StateConfirmed {
				// duplicate callback; the processor keeps the first reference
				return nil
			}
			return b.CheckLateSuccess(result.AmountMinor)
		})
		if err != nil {
			if !errs.Is(err, errs.ErrBookingNotFound) {
				u.logger.Error("late payment success rejected",
					"booking_id", result.Key, "reference", result.Outcome.Reference, "amount", result.AmountMinor, "error", err)
			}
			return view, err
		}
	}

	canonical, err := u.processor.Reconcile(ctx, result.Key, result.Outcome, result.AmountMinor)
	if err != nil {
		return nil, err
	}
	if !canonical.IsSuccess() {
		u.logger.Info("late payment failure ignored", "booking_id", result.Key, "reason", canonical.Reason)
		return u.CurrentState(ctx, result.Key)
	}

	return u.confirm(ctx, result.Key, canonical.Reference)
}

// ExpireHolds runs the on-access expiry check over every live booking, then
// returns capacity held by holds no booking tracks anymore.
func (u *bookingUseCaseImpl) ExpireHolds(ctx context.Context) (ExpireResult, error) {
	var res ExpireResult
	for _, id := range u.sessions.IDs() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		view, before, err := u.run(ctx, id, "expire holds", func(*booking.Booking, time.Time) error {
			return nil
		})
		if err != nil {
			if errs.Is(err, errs.ErrBookingNotFound) {
				continue
			}
			return res, errs.Wrapf(err, "failed to expire booking %s", id)
		}
		if before != booking.StateCancelled && view.State == booking.StateCancelled.String() {
			res.Cancelled++
		}
	}

	now := u.services.Clock.Now()
	released, err := u.registry.ReleaseExpired(ctx, now)
	if err != nil {
		return res, errs.Wrap(err, "failed to release expired holds")
	}
	res.OrphansReleased = released

	if u.policy.SessionRetention > 0 {
		res.SessionsPruned = u.sessions.Prune(now.Add(-u.policy.SessionRetention))
	}
	return res, nil
}

func (u *bookingUseCaseImpl) charge(ctx context.Context, attempt payment.Attempt) payment.Outcome {
	// the charge outlives a dropped client connection but not PaymentTimeout
	chargeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.policy.PaymentTimeout)
	defer cancel()

	outcome, err := u.processor.Charge(chargeCtx, payment.ChargeRequest{
		Key:     attempt.Key,
		Method:  attempt.Method,
		Contact: attempt.Contact,
		Amount:  attempt.Amount,
	})
	if err != nil {
		if errs.Is(err, errs.ErrIdempotencyConflict) {
			return payment.Failed(payment.ReasonDeclined, err.Error())
		}
		u.logger.Error("payment processor failed", "booking_id", attempt.Key, "attempt", attempt.Number, "error", err)
		return payment.Failed(payment.ReasonError, "payment service unavailable")
	}
	return outcome
}

func (u *bookingUseCaseImpl) applyFailure(ctx context.Context, id uuid.UUID, attemptNo int, outcome payment.Outcome) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "apply payment failure", func(b *booking.Booking, now time.Time) error {
		if b.State().IsTerminal() {
			// a reconciled success or a cancel overtook this attempt
			return nil
		}

		exhausted, err := b.ApplyFailure(attemptNo, outcome, u.policy.MaxPaymentAttempts, now)
		if err != nil {
			return err
		}
		u.logger.Info("payment failed", "booking_id", id, "attempt", attemptNo, "reason", outcome.Reason, "failed_attempts", b.FailedAttempts())
		if !exhausted {
			if _, err := u.expireIfDue(ctx, b, now); err != nil {
				return err
			}
			return b.LastError()
		}

		if err := u.releaseHold(ctx, b); err != nil {
			return err
		}
		if err := b.Cancel(booking.CancelReasonPaymentTimeout, now); err != nil {
			return err
		}
		u.logger.Info("payment attempts exhausted", "booking_id", id, "attempts", attemptNo)
		return b.LastError()
	})
}

func (u *bookingUseCaseImpl) confirm(ctx context.Context, id uuid.UUID, reference string) (*queries.BookingView, error) {
	return u.withBooking(ctx, id, "confirm booking", func(b *booking.Booking, now time.Time) error {
		if b.State() == booking.StateConfirmed && b.PaymentRef() == reference {
			return nil
		}
		if b.State() == booking.StateCancelled {
			u.logger.Error("payment succeeded for a cancelled booking; refund required",
				"booking_id", b.ID(), "reference", reference, "cancel_reason", b.CancelReason())
			return errs.Wrap(errs.ErrInvalidState, "booking was cancelled before the payment completed")
		}

		entry, err := b.ConfirmationEntry(reference, now)
		if err != nil {
			if errs.Is(err, errs.ErrInvalidHold) && !b.State().IsTerminal() {
				return u.cancelLapsed(ctx, b, reference, now, err)
			}
			return err
		}

		hold, _ := b.ActiveHold()
		err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			if err := tx.Holds().Finalize(ctx, hold.Token, now); err != nil {
				return err
			}
			return tx.Ledger().Append(ctx, entry)
		})
		if err != nil {
			if errs.Is(err, errs.ErrInvalidHold) {
				return u.cancelLapsed(ctx, b, reference, now, err)
			}
			return err
		}

		if err := b.MarkConfirmed(reference, now); err != nil {
			return err
		}
		u.logger.Info("booking confirmed", "booking_id", id, "facility_id", b.FacilityID(), "reference", reference, "cost", b.Cost().String())
		return nil
	})
}

// cancelLapsed handles a successful charge whose hold is gone: the booking
// cannot be confirmed and the payment needs a manual refund.
func (u *bookingUseCaseImpl) cancelLapsed(ctx context.Context, b *booking.Booking, reference string, now time.Time, cause error) error {
	u.logger.Error("payment succeeded after hold lapsed; refund required",
		"booking_id", b.ID(), "reference", reference, "error", cause)

	if err := u.releaseHold(ctx, b); err != nil {
		return err
	}
	if err := b.Cancel(booking.CancelReasonPaymentTimeout, now); err != nil {
		return err
	}
	return errs.Wrap(errs.ErrPaymentTimeout, "hold lapsed before the payment completed")
}

// withBooking runs fn under the booking lock after the expiry check and
// snapshots the projection before the lock is dropped.
func (u *bookingUseCaseImpl) withBooking(
	ctx context.Context,
	id uuid.UUID,
	op string,
	fn func(b *booking.Booking, now time.Time) error,
) (*queries.BookingView, error) {
	view, _, err := u.run(ctx, id, op, fn)
	return view, err
}

func (u *bookingUseCaseImpl) run(
	ctx context.Context,
	id uuid.UUID,
	op string,
	fn func(b *booking.Booking, now time.Time) error,
) (*queries.BookingView, booking.State, error) {
	var (
		view   *queries.BookingView
		before booking.State
	)
	err := u.sessions.With(ctx, id, func(b *booking.Booking) error {
		now := u.services.Clock.Now()
		before = b.State()

		expired, err := u.expireIfDue(ctx, b, now)
		if err != nil {
			return err
		}

		opErr := fn(b, now)
		if expired && errs.Is(opErr, errs.ErrInvalidState) {
			// the hold lapsed on this very access; report why instead of the terminal state
			opErr = errs.Wrapf(errs.ErrPaymentTimeout, "hold expired before %s", op)
		}
		if opErr != nil {
			u.recordRejection(b, op, opErr, now)
		}
		view = queries.NewBookingView(b, u.policy.Currency)
		return opErr
	})
	if view == nil {
		return nil, before, err
	}

	if view.State != before.String() {
		u.afterTransition(ctx, before, view)
	}
	return view, before, err
}

// expireIfDue reports whether this call cancelled the booking for an expired hold.
func (u *bookingUseCaseImpl) expireIfDue(ctx context.Context, b *booking.Booking, now time.Time) (bool, error) {
	if !b.HoldExpired(now) {
		return false, nil
	}
	if err := u.releaseHold(ctx, b); err != nil {
		return false, err
	}
	if err := b.Cancel(booking.CancelReasonPaymentTimeout, now); err != nil {
		return false, err
	}
	u.logger.Info("hold expired", "booking_id", b.ID(), "facility_id", b.FacilityID())
	return true, nil
}

// releaseHold gives the unit back. A hold the registry no longer knows as
// active is already released and only logged.
func (u *bookingUseCaseImpl) releaseHold(ctx context.Context, b *booking.Booking) error {
	hold, ok := b.ActiveHold()
	if !ok {
		return nil
	}
	err := u.registry.Release(ctx, hold.Token)
	if err == nil {
		return nil
	}
	if errs.Is(err, errs.ErrInvalidHold) {
		u.logger.Warn("hold already released", "booking_id", b.ID(), "hold", hold.Token)
		return nil
	}
	return errs.Wrapf(err, "failed to release hold %s", hold.Token)
}

func (u *bookingUseCaseImpl) recordRejection(b *booking.Booking, op string, err error, now time.Time) {
	switch {
	case b.State().IsTerminal() && errs.Is(err, errs.ErrInvalidState):
		u.logger.Warn("transition on terminal booking rejected",
			"booking_id", b.ID(), "operation", op, "state", b.State(), "error", err)
	case b.State().IsTerminal():
	case errs.KindOf(err) != "":
		b.SetError(err, now)
		u.logger.Info("transition rejected", "booking_id", b.ID(), "operation", op, "kind", errs.KindOf(err))
	default:
		u.logger.Error("transition failed", "booking_id", b.ID(), "operation", op, "error", err)
	}
}

// afterTransition publishes lifecycle events and sends the confirmation SMS.
// Both are best effort and never fail the transition.
func (u *bookingUseCaseImpl) afterTransition(ctx context.Context, before booking.State, view *queries.BookingView) {
	var eventType shared.EventType
	switch view.State {
	case booking.StateAwaitingPaymentMethod.String():
		if before != booking.StateDraft {
			return
		}
		eventType = shared.EventBookingHeld
	case booking.StatePaymentFailed.String():
		eventType = shared.EventPaymentFailed
	case booking.StateConfirmed.String():
		eventType = shared.EventBookingConfirmed
	case booking.StateCancelled.String():
		eventType = shared.EventBookingCancelled
	default:
		return
	}

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	event := shared.BookingEvent{
		Type:           eventType,
		BookingID:      view.ID,
		FacilityID:     view.FacilityID,
		State:          view.State,
		CancelReason:   view.CancelReason,
		AmountMinor:    view.CostMinor,
		Currency:       view.Currency,
		PaymentRef:     view.PaymentRef,
		FailedAttempts: view.FailedAttempts,
		OccurredAt:     view.UpdatedAt,
	}
	if err := u.publisher.Publish(sideCtx, event); err != nil {
		u.logger.Error("failed to publish booking event", "booking_id", view.ID, "type", eventType, "error", err)
	}

	if eventType == shared.EventBookingConfirmed && view.Contact != "" {
		if err := u.notifier.SendSMS(sideCtx, payment.Contact(view.Contact), ConfirmationText(view)); err != nil {
			u.logger.Error("failed to send confirmation sms", "booking_id", view.ID, "error", err)
		}
	}
}

// ConfirmationText is the SMS body sent to the payer.
func ConfirmationText(v *queries.BookingView) string {
	unit := "hours"
	if v.Hours == 1 {
		unit = "hour"
	}
	return fmt.Sprintf(
		"Parking confirmed. Booking %s at %s from %s for %d %s. Paid %s %s, ref %s.",
		v.ID, v.FacilityName, v.StartAt.Format("02 Jan 2006 15:04"), v.Hours, unit, v.Currency, v.Cost, v.PaymentRef,
	)
}
