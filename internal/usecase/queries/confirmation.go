package queries

import (
	"context"

	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/usecase/shared"

	"github.com/google/uuid"
)

//go:generate mockgen -source=confirmation.go -destination=../../../tests/mock/queries/confirmation.go -package=queriesmock

type ConfirmationQueries interface {
	Get(ctx context.Context, bookingID uuid.UUID) (*ConfirmationView, error)
	List(ctx context.Context) ([]*ConfirmationView, error)
}

type confirmationQueriesImpl struct {
	ledger   shared.LedgerReader
	currency string
}

func NewConfirmationQueries(ledger shared.LedgerReader, currency string) ConfirmationQueries {
	return &confirmationQueriesImpl{ledger: ledger, currency: currency}
}

func (q *confirmationQueriesImpl) Get(ctx context.Context, bookingID uuid.UUID) (*ConfirmationView, error) {
	entry, err := q.ledger.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return NewConfirmationView(entry, q.currency), nil
}

func (q *confirmationQueriesImpl) List(ctx context.Context) ([]*ConfirmationView, error) {
	entries, err := q.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*ConfirmationView, 0, len(entries))
	for _, e := range entries {
		views = append(views, NewConfirmationView(e, q.currency))
	}
	return views, nil
}

func NewConfirmationView(e *ledger.ConfirmedBooking, currency string) *ConfirmationView {
	return &ConfirmationView{
		BookingID:   e.BookingID(),
		FacilityID:  e.FacilityID().String(),
		StartAt:     e.StartAt(),
		EndAt:       e.EndAt(),
		Hours:       e.Hours(),
		CostMinor:   e.Cost().Minor(),
		Cost:        e.Cost().String(),
		Currency:    currency,
		PaymentRef:  e.PaymentRef(),
		ConfirmedAt: e.ConfirmedAt(),
	}
}
