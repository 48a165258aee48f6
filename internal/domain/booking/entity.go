package booking

import (
	"slices"
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	DefaultHours = 1
	// StartTimeTolerance absorbs clock skew between the client and the server.
	StartTimeTolerance = time.Minute
)

// Booking is a single reservation attempt. It is not safe for concurrent use;
// the workflow serializes access per booking id.
type Booking struct {
	id           uuid.UUID
	facilityID   facility.ID
	facilityName string
	rate         pricing.Money
	startAt      time.Time
	hours        int
	cost         pricing.Money
	state        State
	cancelReason CancelReason
	hold         *inventory.Hold
	method       payment.Method
	contact      payment.Contact
	attempts     []payment.Attempt
	paymentRef   string
	confirmedAt  time.Time
	lastErr      error
	createdAt    time.Time
	updatedAt    time.Time
}

func NewBooking(id uuid.UUID, startAt, now time.Time) (*Booking, error) {
	if id == uuid.Nil {
		v7, err := uuid.NewV7()
		if err != nil {
			return nil, errs.Wrap(err, "failed to generate booking id")
		}
		id = v7
	}
	if startAt.IsZero() {
		startAt = now
	}
	if startAt.Before(now.Add(-StartTimeTolerance)) {
		return nil, errs.ErrInvalidStartTime
	}

	return &Booking{
		id:        id,
		startAt:   startAt,
		hours:     DefaultHours,
		state:     StateDraft,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) FacilityID() facility.ID     { return b.facilityID }
func (b *Booking) FacilityName() string        { return b.facilityName }
func (b *Booking) Rate() pricing.Money         { return b.rate }
func (b *Booking) StartAt() time.Time          { return b.startAt }
func (b *Booking) Hours() int                  { return b.hours }
func (b *Booking) Cost() pricing.Money         { return b.cost }
func (b *Booking) State() State                { return b.state }
func (b *Booking) CancelReason() CancelReason  { return b.cancelReason }
func (b *Booking) Method() payment.Method      { return b.method }
func (b *Booking) Contact() payment.Contact    { return b.contact }
func (b *Booking) PaymentRef() string          { return b.paymentRef }
func (b *Booking) ConfirmedAt() time.Time      { return b.confirmedAt }
func (b *Booking) LastError() error            { return b.lastErr }
func (b *Booking) CreatedAt() time.Time        { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time        { return b.updatedAt }
func (b *Booking) Attempts() []payment.Attempt { return slices.Clone(b.attempts) }

func (b *Booking) Hold() (inventory.Hold, bool) {
	if b.hold == nil {
		return inventory.Hold{}, false
	}
	return *b.hold, true
}

// ActiveHold returns the hold while it still claims capacity.
func (b *Booking) ActiveHold() (inventory.Hold, bool) {
	if b.hold == nil || !b.hold.IsActive() {
		return inventory.Hold{}, false
	}
	return *b.hold, true
}

func (b *Booking) FailedAttempts() int {
	n := 0
	for _, a := range b.attempts {
		if a.Status == payment.StatusFailed {
			n++
		}
	}
	return n
}

func (b *Booking) SetError(err error, now time.Time) {
	b.lastErr = err
	b.touch(now)
}

func (b *Booking) SelectFacility(f facility.Snapshot, calc pricing.Calculator, now time.Time) error {
	if err := b.requireState("select facility", StateDraft); err != nil {
		return err
	}
	if !f.Selectable() {
		return errs.Wrapf(errs.ErrCapacityExhausted, "facility %s has no available spots", f.ID)
	}
	cost, err := calc.ComputeCost(f.Rate, float64(b.hours))
	if err != nil {
		return err
	}

	b.facilityID = f.ID
	b.facilityName = f.Name
	b.rate = f.Rate
	b.cost = cost
	b.lastErr = nil
	b.touch(now)
	return nil
}

// ClearFacility drops the selection after the facility ran out of capacity.
func (b *Booking) ClearFacility(now time.Time) {
	b.facilityID = ""
	b.facilityName = ""
	b.rate = pricing.Money{}
	b.cost = pricing.Money{}
	b.touch(now)
}

func (b *Booking) SetDuration(hours float64, calc pricing.Calculator, now time.Time) error {
	if err := b.requireState("set duration", StateDraft); err != nil {
		return err
	}
	h, err := pricing.WholeHours(hours)
	if err != nil {
		return err
	}
	if b.facilityID != "" {
		cost, err := calc.ComputeCost(b.rate, float64(h))
		if err != nil {
			return err
		}
		b.cost = cost
	}

	b.hours = h
	b.lastErr = nil
	b.touch(now)
	return nil
}

func (b *Booking) SetStartTime(startAt, now time.Time) error {
	if err := b.requireState("set start time", StateDraft); err != nil {
		return err
	}
	if startAt.IsZero() || startAt.Before(now.Add(-StartTimeTolerance)) {
		return errs.ErrInvalidStartTime
	}
	b.startAt = startAt
	b.touch(now)
	return nil
}

func (b *Booking) RequireDraft(op string) error {
	return b.requireState(op, StateDraft)
}

// CheckSubmit validates the Draft before capacity is reserved.
func (b *Booking) CheckSubmit() error {
	if err := b.requireState("submit booking", StateDraft); err != nil {
		return err
	}
	if b.facilityID == "" {
		return errs.Wrap(errs.ErrInvalidState, "no facility selected")
	}
	if b.hours < 1 {
		return errs.ErrInvalidDuration
	}
	return nil
}

func (b *Booking) AttachHold(h inventory.Hold, now time.Time) error {
	if err := b.CheckSubmit(); err != nil {
		return err
	}
	if h.FacilityID != b.facilityID || !h.IsActive() {
		return errs.Wrap(errs.ErrInvalidHold, "hold does not match the selected facility")
	}

	hold := h
	b.hold = &hold
	b.state = StateAwaitingPaymentMethod
	b.lastErr = nil
	b.touch(now)
	return nil
}

// HoldExpired reports whether the booking waits on the user while its hold has lapsed.
func (b *Booking) HoldExpired(now time.Time) bool {
	if b.state != StateAwaitingPaymentMethod && b.state != StatePaymentFailed {
		return false
	}
	return b.hold != nil && b.hold.ExpiredAt(now)
}

// ExpectedCost prices the booking at the rate captured by its hold.
func (b *Booking) ExpectedCost(calc pricing.Calculator) (pricing.Money, error) {
	if b.hold == nil {
		return pricing.Money{}, errs.Wrap(errs.ErrInvalidHold, "booking has no hold")
	}
	return calc.ComputeCost(b.hold.Rate, float64(b.hours))
}

// BeginPayment moves the booking into PaymentInFlight and records a pending attempt.
// A cost that no longer matches expected is corrected and the call fails with ErrPriceChanged.
func (b *Booking) BeginPayment(method payment.Method, contact payment.Contact, expected pricing.Money, now time.Time) (payment.Attempt, error) {
	if err := b.requireState("submit payment", StateAwaitingPaymentMethod, StatePaymentFailed); err != nil {
		return payment.Attempt{}, err
	}
	if !method.IsValid() {
		return payment.Attempt{}, errs.ErrInvalidPayMethod
	}
	if contact.IsZero() {
		return payment.Attempt{}, errs.ErrInvalidContact
	}

	b.method = method
	b.contact = contact
	b.state = StateAwaitingPaymentMethod
	if !b.cost.Equal(expected) {
		prev := b.cost
		b.cost = expected
		b.rate = b.hold.Rate
		b.lastErr = errs.Wrapf(errs.ErrPriceChanged, "cost changed from %s to %s", prev, expected)
		b.touch(now)
		return payment.Attempt{}, b.lastErr
	}

	attempt := payment.Attempt{
		Number:  len(b.attempts) + 1,
		Key:     b.id,
		Method:  method,
		Contact: contact,
		Amount:  b.cost,
		Status:  payment.StatusPending,
		At:      now,
	}
	b.attempts = append(b.attempts, attempt)
	b.state = StatePaymentInFlight
	b.lastErr = nil
	b.touch(now)
	return attempt, nil
}

// ApplyFailure records a failed charge. exhausted is true once the failures
// reach maxAttempts; the caller then releases the hold and cancels.
func (b *Booking) ApplyFailure(attemptNo int, outcome payment.Outcome, maxAttempts int, now time.Time) (exhausted bool, err error) {
	if err := b.requireCurrentAttempt(attemptNo); err != nil {
		return false, err
	}

	a := &b.attempts[attemptNo-1]
	a.Status = payment.StatusFailed
	a.Reason = outcome.Reason
	b.state = StatePaymentFailed
	b.lastErr = failureError(outcome)
	b.touch(now)
	return b.FailedAttempts() >= maxAttempts, nil
}

// ConfirmationEntry builds the ledger entry for a successful charge. It fails
// when the booking cannot be confirmed, including when the hold has expired.
func (b *Booking) ConfirmationEntry(reference string, now time.Time) (*ledger.ConfirmedBooking, error) {
	if err := b.requireState("confirm", StatePaymentInFlight, StateAwaitingPaymentMethod, StatePaymentFailed); err != nil {
		return nil, err
	}
	if b.succeededAttemptIndex() < 0 {
		return nil, errs.Wrap(errs.ErrInvalidState, "no payment attempt awaits an outcome")
	}
	if b.hold == nil || !b.hold.IsActive() {
		return nil, errs.Wrap(errs.ErrInvalidHold, "booking holds no capacity")
	}
	if b.hold.ExpiredAt(now) {
		return nil, errs.Wrapf(errs.ErrInvalidHold, "hold expired at %s", b.hold.ExpiresAt.Format(time.RFC3339))
	}
	return ledger.NewConfirmedBooking(b.id, b.facilityID, b.startAt, b.hours, b.cost, reference, now)
}

// MarkConfirmed is applied after the hold was finalized and the ledger entry written.
func (b *Booking) MarkConfirmed(reference string, now time.Time) error {
	if err := b.requireState("confirm", StatePaymentInFlight, StateAwaitingPaymentMethod, StatePaymentFailed); err != nil {
		return err
	}

	idx := b.succeededAttemptIndex()
	if idx < 0 {
		return errs.Wrap(errs.ErrInvalidState, "no payment attempt awaits an outcome")
	}
	b.attempts[idx].Status = payment.StatusSucceeded
	b.attempts[idx].Reference = reference
	b.attempts[idx].Reason = ""

	b.hold.Status = inventory.HoldFinalized
	b.paymentRef = reference
	b.confirmedAt = now
	b.state = StateConfirmed
	b.lastErr = nil
	b.touch(now)
	return nil
}

// CheckCancel reports whether Cancel would be accepted. Every non-terminal
// state can be cancelled, including one with a charge in flight.
func (b *Booking) CheckCancel(CancelReason) error {
	if b.state.IsTerminal() {
		return errs.Wrapf(errs.ErrInvalidState, "cannot cancel a %s booking", b.state)
	}
	return nil
}

// CheckLateSuccess reports whether a provider success reported outside the
// charge call can confirm the booking. It needs a submitted attempt still
// waiting for its outcome, and a reported amount must match both that attempt
// and the current cost. amountMinor 0 means the provider sent no amount.
func (b *Booking) CheckLateSuccess(amountMinor int64) error {
	if err := b.requireState("confirm", StatePaymentInFlight, StateAwaitingPaymentMethod, StatePaymentFailed); err != nil {
		return err
	}
	idx := b.succeededAttemptIndex()
	if idx < 0 {
		return errs.Wrap(errs.ErrInvalidState, "no payment attempt awaits an outcome")
	}
	attempt := b.attempts[idx]
	if !attempt.Amount.Equal(b.cost) {
		return errs.Wrapf(errs.ErrIdempotencyConflict, "attempt %d charged %s, booking now costs %s", attempt.Number, attempt.Amount, b.cost)
	}
	if amountMinor != 0 && amountMinor != attempt.Amount.Minor() {
		return errs.Wrapf(errs.ErrIdempotencyConflict, "provider reported %d, attempt %d charged %d", amountMinor, attempt.Number, attempt.Amount.Minor())
	}
	return nil
}

// Cancel moves the booking to Cancelled. Any hold must already be released.
func (b *Booking) Cancel(reason CancelReason, now time.Time) error {
	if err := b.CheckCancel(reason); err != nil {
		return err
	}
	if b.hold != nil && b.hold.IsActive() {
		b.hold.Status = inventory.HoldReleased
	}

	b.state = StateCancelled
	b.cancelReason = reason
	if reason == CancelReasonPaymentTimeout {
		b.lastErr = errs.ErrPaymentTimeout
	} else {
		b.lastErr = nil
	}
	b.touch(now)
	return nil
}

func (b *Booking) requireState(op string, allowed ...State) error {
	if slices.Contains(allowed, b.state) {
		return nil
	}
	return errs.Wrapf(errs.ErrInvalidState, "%s not allowed in state %s", op, b.state)
}

func (b *Booking) requireCurrentAttempt(attemptNo int) error {
	if b.state != StatePaymentInFlight || attemptNo != len(b.attempts) {
		return errs.Wrapf(errs.ErrInvalidState, "attempt %d is not in flight", attemptNo)
	}
	return nil
}

// succeededAttemptIndex picks the attempt a success belongs to: the one in
// flight, else the most recent attempt that timed out.
func (b *Booking) succeededAttemptIndex() int {
	if b.state == StatePaymentInFlight && len(b.attempts) > 0 {
		return len(b.attempts) - 1
	}
	for i := len(b.attempts) - 1; i >= 0; i-- {
		if b.attempts[i].Reason == payment.ReasonTimeout || b.attempts[i].Reason == payment.ReasonInProgress {
			return i
		}
	}
	return -1
}

func (b *Booking) touch(now time.Time) {
	b.updatedAt = now
}

func failureError(o payment.Outcome) error {
	switch o.Reason {
	case payment.ReasonTimeout:
		return errs.ErrPaymentTimeout
	case payment.ReasonInProgress:
		return errs.Wrap(errs.ErrPaymentTimeout, "previous attempt is still processing")
	default:
		if o.Message != "" {
			return errs.Wrap(errs.ErrPaymentDeclined, o.Message)
		}
		return errs.ErrPaymentDeclined
	}
}
