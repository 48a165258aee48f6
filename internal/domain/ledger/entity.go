package ledger

import (
	"errors"
	"sort"
	"strings"
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/pricing"

	"github.com/google/uuid"
)

var (
	ErrMissingBookingID  = errors.New("confirmed booking requires a booking id")
	ErrMissingFacility   = errors.New("confirmed booking requires a facility")
	ErrMissingReference  = errors.New("confirmed booking requires a payment reference")
	ErrInvalidHours      = errors.New("confirmed booking requires at least one hour")
	ErrInvalidFinalPrice = errors.New("confirmed booking requires a positive cost")
)

// ConfirmedBooking is immutable once created.
type ConfirmedBooking struct {
	bookingID   uuid.UUID
	facilityID  facility.ID
	startAt     time.Time
	hours       int
	cost        pricing.Money
	paymentRef  string
	confirmedAt time.Time
}

func NewConfirmedBooking(
	bookingID uuid.UUID,
	facilityID facility.ID,
	startAt time.Time,
	hours int,
	cost pricing.Money,
	paymentRef string,
	confirmedAt time.Time,
) (*ConfirmedBooking, error) {
	switch {
	case bookingID == uuid.Nil:
		return nil, ErrMissingBookingID
	case facilityID == "":
		return nil, ErrMissingFacility
	case hours < 1:
		return nil, ErrInvalidHours
	case !cost.IsPositive():
		return nil, ErrInvalidFinalPrice
	case strings.TrimSpace(paymentRef) == "":
		return nil, ErrMissingReference
	}

	return &ConfirmedBooking{
		bookingID:   bookingID,
		facilityID:  facilityID,
		startAt:     startAt.UTC(),
		hours:       hours,
		cost:        cost,
		paymentRef:  paymentRef,
		confirmedAt: confirmedAt.UTC(),
	}, nil
}

func (c *ConfirmedBooking) BookingID() uuid.UUID { return c.bookingID }
func (c *ConfirmedBooking) FacilityID() facility.ID { return c.facilityID }
func (c *ConfirmedBooking) StartAt() time.Time { return c.startAt }
func (c *ConfirmedBooking) Hours() int { return c.hours }
func (c *ConfirmedBooking) Cost() pricing.Money { return c.cost }
func (c *ConfirmedBooking) PaymentRef() string { return c.paymentRef }
func (c *ConfirmedBooking) ConfirmedAt() time.Time { return c.confirmedAt }

func (c *ConfirmedBooking) EndAt() time.Time {
	return c.startAt.Add(time.Duration(c.hours) * time.Hour)
}

// SortByConfirmation orders entries by confirmation time, then booking id.
func SortByConfirmation(entries []*ConfirmedBooking) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.confirmedAt.Equal(b.confirmedAt) {
			return a.confirmedAt.Before(b.confirmedAt)
		}
		return a.bookingID.String() < b.bookingID.String()
	})
}
