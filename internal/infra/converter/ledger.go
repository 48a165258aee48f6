package converter

import (
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/domain/pricing"

	"github.com/google/uuid"
)

// LedgerRecord is the stored form of a confirmed booking.
type LedgerRecord struct {
	BookingID   uuid.UUID `json:"booking_id"`
	FacilityID  string    `json:"facility_id"`
	StartAt     time.Time `json:"start_at"`
	Hours       int       `json:"hours"`
	CostMinor   int64     `json:"cost_minor"`
	PaymentRef  string    `json:"payment_ref"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func LedgerToInfra(e *ledger.ConfirmedBooking) LedgerRecord {
	return LedgerRecord{
		BookingID:   e.BookingID(),
		FacilityID:  e.FacilityID().String(),
		StartAt:     e.StartAt(),
		Hours:       e.Hours(),
		CostMinor:   e.Cost().Minor(),
		PaymentRef:  e.PaymentRef(),
		ConfirmedAt: e.ConfirmedAt(),
	}
}

func LedgerToDomain(r LedgerRecord) (*ledger.ConfirmedBooking, error) {
	return ledger.NewConfirmedBooking(
		r.BookingID,
		facility.ID(r.FacilityID),
		r.StartAt,
		r.Hours,
		pricing.NewMoney(r.CostMinor),
		r.PaymentRef,
		r.ConfirmedAt,
	)
}
