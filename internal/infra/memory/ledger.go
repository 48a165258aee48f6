package memory

import (
	"context"
	"sync"

	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

type Ledger struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*ledger.ConfirmedBooking
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[uuid.UUID]*ledger.ConfirmedBooking)}
}

func (l *Ledger) Append(_ context.Context, entry *ledger.ConfirmedBooking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[entry.BookingID()]; exists {
		return errs.Wrapf(errs.ErrAlreadyConfirmed, "booking %s", entry.BookingID())
	}
	l.entries[entry.BookingID()] = entry
	return nil
}

func (l *Ledger) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*ledger.ConfirmedBooking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[bookingID]
	if !ok {
		return nil, errs.Wrapf(errs.ErrBookingNotFound, "no confirmation for booking %s", bookingID)
	}
	return e, nil
}

func (l *Ledger) List(_ context.Context) ([]*ledger.ConfirmedBooking, error) {
	l.mu.RLock()
	out := make([]*ledger.ConfirmedBooking, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	l.mu.RUnlock()

	ledger.SortByConfirmation(out)
	return out, nil
}
