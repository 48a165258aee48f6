package shared

import (
	"context"
	"time"

	"parking-reservation/internal/domain/payment"

	"github.com/google/uuid"
)

//go:generate mockgen -source=types.go -destination=../../../tests/mock/shared/types.go -package=sharedmock

type PaymentProcessor interface {
	// Charge reports declines and timeouts as a failed Outcome; err is reserved
	// for idempotency conflicts and infrastructure failures.
	Charge(ctx context.Context, req payment.ChargeRequest) (payment.Outcome, error)
	// Reconcile records a provider result that arrived outside Charge and
	// returns the canonical outcome for the key.
	Reconcile(ctx context.Context, key uuid.UUID, outcome payment.Outcome, amountMinor int64) (payment.Outcome, error)
}

type EventType string

const (
	EventBookingHeld      EventType = "booking.held"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventPaymentFailed    EventType = "payment.failed"
)

type BookingEvent struct {
	Type           EventType `json:"type"`
	BookingID      uuid.UUID `json:"bookingId"`
	FacilityID     string    `json:"facilityId"`
	State          string    `json:"state"`
	CancelReason   string    `json:"cancelReason,omitempty"`
	AmountMinor    int64     `json:"amountMinor"`
	Currency       string    `json:"currency"`
	PaymentRef     string    `json:"paymentRef,omitempty"`
	FailedAttempts int       `json:"failedAttempts"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

type Notifier interface {
	SendSMS(ctx context.Context, to payment.Contact, body string) error
}
