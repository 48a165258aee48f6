//go:build unit

package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/infra/memory"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions(t *testing.T) {
	ctx := context.Background()
	bb := builder.NewBookingBuilder()

	t.Run("add and lookup", func(t *testing.T) {
		s := memory.NewSessions()
		b, err := bb.BuildDraft()
		require.NoError(t, err)

		require.NoError(t, s.Add(ctx, b))
		assert.True(t, errs.Is(s.Add(ctx, b), errs.ErrInvalidState))

		var seen uuid.UUID
		require.NoError(t, s.With(ctx, b.ID(), func(got *booking.Booking) error {
			seen = got.ID()
			return nil
		}))
		assert.Equal(t, b.ID(), seen)
		assert.Equal(t, []uuid.UUID{b.ID()}, s.IDs())

		err = s.With(ctx, uuid.New(), func(*booking.Booking) error { return nil })
		assert.True(t, errs.Is(err, errs.ErrBookingNotFound))
	})

	t.Run("callback error is returned", func(t *testing.T) {
		s := memory.NewSessions()
		b, err := bb.BuildDraft()
		require.NoError(t, err)
		require.NoError(t, s.Add(ctx, b))

		boom := errs.New("boom")
		assert.ErrorIs(t, s.With(ctx, b.ID(), func(*booking.Booking) error { return boom }), boom)
	})

	t.Run("work on one booking is serialized", func(t *testing.T) {
		s := memory.NewSessions()
		b, err := bb.BuildDraft()
		require.NoError(t, err)
		require.NoError(t, s.Add(ctx, b))

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			overlap bool
		)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.With(ctx, b.ID(), func(*booking.Booking) error {
					mu.Lock()
					inside++
					if inside > 1 {
						overlap = true
					}
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					inside--
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()
		assert.False(t, overlap)
	})

	t.Run("waiting respects the context", func(t *testing.T) {
		s := memory.NewSessions()
		b, err := bb.BuildDraft()
		require.NoError(t, err)
		require.NoError(t, s.Add(ctx, b))

		entered := make(chan struct{})
		release := make(chan struct{})
		go func() {
			_ = s.With(ctx, b.ID(), func(*booking.Booking) error {
				close(entered)
				<-release
				return nil
			})
		}()
		<-entered

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err = s.With(waitCtx, b.ID(), func(*booking.Booking) error { return nil })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		close(release)
	})

	t.Run("prune drops old terminal bookings only", func(t *testing.T) {
		s := memory.NewSessions()

		done, err := bb.BuildDraft()
		require.NoError(t, err)
		require.NoError(t, done.Cancel(booking.CancelReasonUser, bb.Now))
		open, err := bb.BuildDraft()
		require.NoError(t, err)
		require.NoError(t, s.Add(ctx, done))
		require.NoError(t, s.Add(ctx, open))

		assert.Zero(t, s.Prune(bb.Now), "updated exactly at the cutoff is kept")
		assert.Equal(t, 1, s.Prune(bb.Now.Add(time.Hour)))
		assert.Equal(t, []uuid.UUID{open.ID()}, s.IDs())
	})
}
