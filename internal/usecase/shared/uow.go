package shared

import (
	"context"
	"iter"
	"time"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/ledger"

	"github.com/google/uuid"
)

// InventoryRegistry owns per-facility availability. TryReserve and Release are
// linearizable per facility.
type InventoryRegistry interface {
	// ListFacilities yields a fresh snapshot on every iteration.
	ListFacilities(ctx context.Context, city string) iter.Seq2[facility.Snapshot, error]
	Facility(ctx context.Context, id facility.ID) (facility.Snapshot, error)
	TryReserve(ctx context.Context, id facility.ID, expiresAt time.Time) (inventory.Hold, error)
	Release(ctx context.Context, token inventory.HoldToken) error
	// ReleaseExpired returns capacity held by active holds past their expiry.
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}

type UnitOfWork interface {
	// Within: all writes made through tx become visible together or not at all
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Holds() HoldRepository
	Ledger() LedgerRepository
}

type HoldRepository interface {
	// Finalize turns an active, unexpired hold into a permanent decrement.
	Finalize(ctx context.Context, token inventory.HoldToken, now time.Time) error
}

type LedgerRepository interface {
	Append(ctx context.Context, entry *ledger.ConfirmedBooking) error
}

type LedgerReader interface {
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*ledger.ConfirmedBooking, error)
	List(ctx context.Context) ([]*ledger.ConfirmedBooking, error)
}

// BookingSessions keeps in-progress bookings and serializes work per booking id.
type BookingSessions interface {
	Add(ctx context.Context, b *booking.Booking) error
	With(ctx context.Context, id uuid.UUID, fn func(b *booking.Booking) error) error
	IDs() []uuid.UUID
	// Prune drops terminal bookings last updated before cutoff.
	Prune(cutoff time.Time) int
}
