package commands

import (
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

// WorkflowPolicy carries the tunables of the booking workflow.
type WorkflowPolicy struct {
	HoldTTL            time.Duration
	PaymentTimeout     time.Duration
	MaxPaymentAttempts int
	Currency           string
	// SessionRetention is how long terminal bookings stay queryable in memory.
	SessionRetention time.Duration
}

type StartBookingInput struct {
	StartAt    *time.Time
	FacilityID facility.ID
}

type SubmitPaymentInput struct {
	Method  string
	Contact string
}

// PaymentResult is a provider outcome that reached us outside the charge call.
type PaymentResult struct {
	Key         uuid.UUID
	Outcome     payment.Outcome
	AmountMinor int64
}

type ExpireResult struct {
	Cancelled       int
	OrphansReleased int
	SessionsPruned  int
}

// NewPaymentResult builds a PaymentResult from the provider's wire fields.
func NewPaymentResult(key, status, reference, reason string, amountMinor int64) (PaymentResult, error) {
	k, err := uuid.Parse(key)
	if err != nil {
		return PaymentResult{}, errs.Wrap(err, "invalid idempotency key")
	}
	outcome, err := payment.ParseOutcome(status, reference, reason)
	if err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{Key: k, Outcome: outcome, AmountMinor: amountMinor}, nil
}
