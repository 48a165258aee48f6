package queries

import (
	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/pkg/errs"
)

var errorMessages = map[string]string{
	"CapacityExhausted":    "This facility has no free spots left. Please pick another one.",
	"InvalidHold":          "Your reserved spot is no longer held.",
	"FacilityNotFound":     "The selected facility does not exist.",
	"BookingNotFound":      "The booking does not exist.",
	"InvalidDuration":      "Duration must be a whole number of hours, at least 1.",
	"InvalidStartTime":     "Start time cannot be in the past.",
	"InvalidState":         "That action is not available at this step.",
	"PriceChanged":         "The price changed. Please review the new total.",
	"AlreadyConfirmed":     "This booking is already confirmed.",
	"InvalidContact":       "Enter a valid phone number.",
	"InvalidPaymentMethod": "Choose M-Pesa or Airtel Money.",
	"PaymentDeclined":      "The payment was declined.",
	"PaymentTimeout":       "The payment did not complete in time.",
	"IdempotencyConflict":  "This payment conflicts with an earlier one.",
}

// NewErrorView maps err to its display form; nil when err carries no domain kind.
func NewErrorView(err error) *ErrorView {
	kind := errs.KindOf(err)
	if kind == "" {
		return nil
	}
	return &ErrorView{Kind: kind, Message: errorMessages[kind]}
}

func NewBookingView(b *booking.Booking, currency string) *BookingView {
	v := &BookingView{
		ID:              b.ID(),
		State:           b.State().String(),
		CancelReason:    b.CancelReason().String(),
		FacilityID:      b.FacilityID().String(),
		FacilityName:    b.FacilityName(),
		StartAt:         b.StartAt(),
		Hours:           b.Hours(),
		CostMinor:       b.Cost().Minor(),
		Cost:            b.Cost().String(),
		Currency:        currency,
		PaymentMethod:   b.Method().String(),
		MethodLabel:     b.Method().Label(),
		Contact:         b.Contact().String(),
		PaymentAttempts: len(b.Attempts()),
		FailedAttempts:  b.FailedAttempts(),
		PaymentRef:      b.PaymentRef(),
		Error:           NewErrorView(b.LastError()),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
	if h, ok := b.ActiveHold(); ok {
		expiresAt := h.ExpiresAt
		v.HoldExpiresAt = &expiresAt
	}
	if !b.ConfirmedAt().IsZero() {
		confirmedAt := b.ConfirmedAt()
		v.ConfirmedAt = &confirmedAt
	}
	return v
}
