//go:build unit || e2e

package builder

import (
	"time"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/usecase/queries"

	"github.com/google/uuid"
)

// BookingBuilder drives a booking through real transitions so every built
// state is reachable.
type BookingBuilder struct {
	Now      time.Time
	StartAt  time.Time
	Hours    float64
	Facility *FacilityBuilder
	HoldTTL  time.Duration
	Method   payment.Method
	Contact  payment.Contact
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		Now:      now,
		StartAt:  now.Add(time.Hour),
		Hours:    3,
		Facility: NewFacilityBuilder(),
		HoldTTL:  5 * time.Minute,
		Method:   payment.MethodMpesa,
		Contact:  "+254712345678",
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

// Build methods
func (b *BookingBuilder) BuildDraft() (*booking.Booking, error) {
	bk, err := booking.NewBooking(uuid.Nil, b.StartAt, b.Now)
	if err != nil {
		return nil, err
	}
	calc := pricing.NewFlatRateCalculator()
	if err := bk.SelectFacility(b.Facility.BuildSnapshot(), calc, b.Now); err != nil {
		return nil, err
	}
	if err := bk.SetDuration(b.Hours, calc, b.Now); err != nil {
		return nil, err
	}
	return bk, nil
}

func (b *BookingBuilder) BuildHold() inventory.Hold {
	return inventory.Hold{
		Token:      inventory.NewHoldToken(),
		FacilityID: b.Facility.BuildSnapshot().ID,
		Rate:       pricing.NewMoney(b.Facility.RateMinor),
		ExpiresAt:  b.Now.Add(b.HoldTTL),
		Status:     inventory.HoldActive,
	}
}

func (b *BookingBuilder) BuildAwaitingPayment() (*booking.Booking, error) {
	bk, err := b.BuildDraft()
	if err != nil {
		return nil, err
	}
	if err := bk.AttachHold(b.BuildHold(), b.Now); err != nil {
		return nil, err
	}
	return bk, nil
}

func (b *BookingBuilder) BuildInFlight() (*booking.Booking, payment.Attempt, error) {
	bk, err := b.BuildAwaitingPayment()
	if err != nil {
		return nil, payment.Attempt{}, err
	}
	attempt, err := bk.BeginPayment(b.Method, b.Contact, bk.Cost(), b.Now)
	if err != nil {
		return nil, payment.Attempt{}, err
	}
	return bk, attempt, nil
}

func (b *BookingBuilder) BuildView(state booking.State) *queries.BookingView {
	snap := b.Facility.BuildSnapshot()
	cost := pricing.NewMoney(b.Facility.RateMinor * int64(b.Hours))
	return &queries.BookingView{
		ID:           uuid.New(),
		State:        state.String(),
		FacilityID:   snap.ID.String(),
		FacilityName: snap.Name,
		StartAt:      b.StartAt,
		Hours:        int(b.Hours),
		CostMinor:    cost.Minor(),
		Cost:         cost.String(),
		Currency:     "Ksh",
		CreatedAt:    b.Now,
		UpdatedAt:    b.Now,
	}
}
