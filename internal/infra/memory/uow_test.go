//go:build unit

package memory_test

import (
	"context"
	"testing"
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/infra/catalog"
	"parking-reservation/internal/infra/memory"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/shared"
	"parking-reservation/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uowFixture struct {
	registry *memory.Registry
	ledger   *memory.Ledger
	uow      *memory.UoW
	hold     inventory.Hold
}

func newUoWFixture(t *testing.T) uowFixture {
	t.Helper()
	e, err := builder.NewFacilityBuilder().WithAvailable(1).BuildEntry()
	require.NoError(t, err)
	registry, err := memory.NewRegistry([]catalog.Entry{e}, clock.NewMockClock(t0))
	require.NoError(t, err)
	hold, err := registry.TryReserve(context.Background(), "cbd-parking-complex", t0.Add(5*time.Minute))
	require.NoError(t, err)

	l := memory.NewLedger()
	return uowFixture{registry: registry, ledger: l, uow: memory.NewUoW(registry, l), hold: hold}
}

func newEntry(t *testing.T, id uuid.UUID) *ledger.ConfirmedBooking {
	t.Helper()
	e, err := ledger.NewConfirmedBooking(id, facility.ID("cbd-parking-complex"), t0.Add(time.Hour), 3, pricing.NewMoney(18000), "MP1", t0)
	require.NoError(t, err)
	return e
}

func confirm(f uowFixture, token inventory.HoldToken, entry *ledger.ConfirmedBooking, now time.Time) error {
	return f.uow.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Holds().Finalize(ctx, token, now); err != nil {
			return err
		}
		return tx.Ledger().Append(ctx, entry)
	})
}

func TestUoWCommit(t *testing.T) {
	f := newUoWFixture(t)
	entry := newEntry(t, uuid.New())

	require.NoError(t, confirm(f, f.hold.Token, entry, t0))

	got, err := f.ledger.FindByBookingID(context.Background(), entry.BookingID())
	require.NoError(t, err)
	assert.Equal(t, "MP1", got.PaymentRef())
	assert.True(t, errs.Is(f.registry.Release(context.Background(), f.hold.Token), errs.ErrInvalidHold), "hold is finalized")
}

func TestUoWNothingVisibleOnFailure(t *testing.T) {
	t.Run("expired hold writes no ledger entry", func(t *testing.T) {
		f := newUoWFixture(t)
		entry := newEntry(t, uuid.New())

		err := confirm(f, f.hold.Token, entry, t0.Add(5*time.Minute))
		assert.True(t, errs.Is(err, errs.ErrInvalidHold))

		list, err := f.ledger.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("duplicate ledger entry keeps the hold active", func(t *testing.T) {
		f := newUoWFixture(t)
		entry := newEntry(t, uuid.New())
		require.NoError(t, f.ledger.Append(context.Background(), entry))

		err := confirm(f, f.hold.Token, entry, t0)
		assert.True(t, errs.Is(err, errs.ErrAlreadyConfirmed))
		assert.NoError(t, f.registry.Release(context.Background(), f.hold.Token), "hold was never finalized")
	})

	t.Run("callback error discards staged writes", func(t *testing.T) {
		f := newUoWFixture(t)
		boom := errs.New("boom")

		err := f.uow.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
			if err := tx.Ledger().Append(ctx, newEntry(t, uuid.New())); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		list, err := f.ledger.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("one hold per unit of work", func(t *testing.T) {
		f := newUoWFixture(t)
		err := f.uow.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
			if err := tx.Holds().Finalize(ctx, f.hold.Token, t0); err != nil {
				return err
			}
			return tx.Holds().Finalize(ctx, inventory.NewHoldToken(), t0)
		})
		assert.Error(t, err)
	})
}

func TestLedgerListOrder(t *testing.T) {
	l := memory.NewLedger()
	ctx := context.Background()

	first, err := ledger.NewConfirmedBooking(uuid.New(), "cbd-parking-complex", t0, 1, pricing.NewMoney(6000), "A", t0)
	require.NoError(t, err)
	second, err := ledger.NewConfirmedBooking(uuid.New(), "cbd-parking-complex", t0, 1, pricing.NewMoney(6000), "B", t0.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, second))
	require.NoError(t, l.Append(ctx, first))

	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].PaymentRef())
	assert.Equal(t, "B", list[1].PaymentRef())

	_, err = l.FindByBookingID(ctx, uuid.New())
	assert.True(t, errs.Is(err, errs.ErrBookingNotFound))
}
