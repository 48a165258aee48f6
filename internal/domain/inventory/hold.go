package inventory

import (
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/pricing"

	"github.com/google/uuid"
)

type HoldToken uuid.UUID

func NewHoldToken() HoldToken {
	return HoldToken(uuid.New())
}

func ParseHoldToken(s string) (HoldToken, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return HoldToken{}, err
	}
	return HoldToken(id), nil
}

func (t HoldToken) UUID() uuid.UUID { return uuid.UUID(t) }
func (t HoldToken) String() string  { return uuid.UUID(t).String() }
func (t HoldToken) IsZero() bool    { return uuid.UUID(t) == uuid.Nil }

type HoldStatus string

const (
	HoldActive    HoldStatus = "active"
	HoldReleased  HoldStatus = "released"
	HoldFinalized HoldStatus = "finalized"
)

func (s HoldStatus) String() string {
	return string(s)
}

func (s HoldStatus) IsValid() bool {
	switch s {
	case HoldActive, HoldReleased, HoldFinalized:
		return true
	default:
		return false
	}
}

// Hold is one unit of capacity claimed ahead of payment. Rate is the facility
// rate at reservation time and is what the booking amount is checked against.
type Hold struct {
	Token      HoldToken
	FacilityID facility.ID
	Rate       pricing.Money
	ExpiresAt  time.Time
	Status     HoldStatus
}

func (h Hold) IsActive() bool {
	return h.Status == HoldActive
}

// ExpiredAt reports whether an active hold has reached its expiry.
func (h Hold) ExpiredAt(now time.Time) bool {
	return h.IsActive() && !now.Before(h.ExpiresAt)
}
