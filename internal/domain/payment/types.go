package payment

import (
	"errors"
	"strings"
	"time"

	"parking-reservation/internal/domain/pricing"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type FailureReason string

const (
	ReasonDeclined   FailureReason = "Declined"
	ReasonTimeout    FailureReason = "Timeout"
	ReasonInProgress FailureReason = "InProgress"
	ReasonError      FailureReason = "Error"
)

type Outcome struct {
	Status    Status
	Reference string
	Reason    FailureReason
	Message   string
}

func Succeeded(reference string) Outcome {
	return Outcome{Status: StatusSucceeded, Reference: reference}
}

func Failed(reason FailureReason, message string) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Message: message}
}

func (o Outcome) IsSuccess() bool {
	return o.Status == StatusSucceeded
}

// ChargeRequest is one charge call. Key is the booking id and is shared by every
// attempt for the booking.
type ChargeRequest struct {
	Key     uuid.UUID
	Method  Method
	Contact Contact
	Amount  pricing.Money
}

type Attempt struct {
	Number    int
	Key       uuid.UUID
	Method    Method
	Contact   Contact
	Amount    pricing.Money
	Status    Status
	Reference string
	Reason    FailureReason
	At        time.Time
}

var ErrInvalidOutcome = errors.New("payment outcome must be succeeded or failed")

// ParseOutcome reads a provider-reported result.
func ParseOutcome(status, reference, reason string) (Outcome, error) {
	switch Status(strings.ToLower(strings.TrimSpace(status))) {
	case StatusSucceeded:
		if strings.TrimSpace(reference) == "" {
			return Outcome{}, ErrInvalidOutcome
		}
		return Succeeded(strings.TrimSpace(reference)), nil
	case StatusFailed:
		r := FailureReason(reason)
		if r != ReasonTimeout && r != ReasonDeclined && r != ReasonInProgress {
			r = ReasonDeclined
		}
		return Failed(r, ""), nil
	default:
		return Outcome{}, ErrInvalidOutcome
	}
}
