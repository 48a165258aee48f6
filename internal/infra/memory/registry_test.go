//go:build unit

package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/infra/catalog"
	"parking-reservation/internal/infra/memory"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	clock    *clock.MockClock
	registry *memory.Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewMockClock(t0)
	s.registry = s.newRegistry(builder.NewFacilityBuilder().WithAvailable(1))
}

func (s *RegistrySuite) newRegistry(fbs ...*builder.FacilityBuilder) *memory.Registry {
	entries := make([]catalog.Entry, 0, len(fbs))
	for _, fb := range fbs {
		e, err := fb.BuildEntry()
		s.Require().NoError(err)
		entries = append(entries, e)
	}
	r, err := memory.NewRegistry(entries, s.clock)
	s.Require().NoError(err)
	return r
}

func (s *RegistrySuite) available(id facility.ID) int {
	snap, err := s.registry.Facility(s.ctx, id)
	s.Require().NoError(err)
	return snap.Available
}

func (s *RegistrySuite) TestDuplicateFacility() {
	a, err := builder.NewFacilityBuilder().BuildEntry()
	s.Require().NoError(err)
	_, err = memory.NewRegistry([]catalog.Entry{a, a}, s.clock)
	s.True(errs.Is(err, facility.ErrDuplicateID))
}

func (s *RegistrySuite) TestListFacilitiesFiltersByCity() {
	s.registry = s.newRegistry(
		builder.NewFacilityBuilder(),
		builder.NewFacilityBuilder().WithID("nyali").With(func(f *builder.FacilityBuilder) { f.City = "Mombasa" }),
	)

	var ids []facility.ID
	for snap, err := range s.registry.ListFacilities(s.ctx, " mombasa ") {
		s.Require().NoError(err)
		ids = append(ids, snap.ID)
	}
	s.Equal([]facility.ID{"nyali"}, ids)

	n := 0
	for _, err := range s.registry.ListFacilities(s.ctx, "") {
		s.Require().NoError(err)
		n++
	}
	s.Equal(2, n)
}

func (s *RegistrySuite) TestUnknownFacility() {
	_, err := s.registry.Facility(s.ctx, "nowhere")
	s.True(errs.Is(err, errs.ErrFacilityNotFound))

	_, err = s.registry.TryReserve(s.ctx, "nowhere", t0.Add(time.Minute))
	s.True(errs.Is(err, errs.ErrFacilityNotFound))
}

func (s *RegistrySuite) TestReserveAndRelease() {
	id := facility.ID("cbd-parking-complex")

	hold, err := s.registry.TryReserve(s.ctx, id, t0.Add(5*time.Minute))
	s.Require().NoError(err)
	s.Equal(id, hold.FacilityID)
	s.Equal(int64(6000), hold.Rate.Minor())
	s.True(hold.IsActive())
	s.Equal(0, s.available(id))

	_, err = s.registry.TryReserve(s.ctx, id, t0.Add(5*time.Minute))
	s.True(errs.Is(err, errs.ErrCapacityExhausted))

	s.Require().NoError(s.registry.Release(s.ctx, hold.Token))
	s.Equal(1, s.available(id))

	err = s.registry.Release(s.ctx, hold.Token)
	s.True(errs.Is(err, errs.ErrInvalidHold), "second release of the same hold")
	s.Equal(1, s.available(id))

	err = s.registry.Release(s.ctx, inventory.NewHoldToken())
	s.True(errs.Is(err, errs.ErrInvalidHold))
}

func (s *RegistrySuite) TestLastUnitContention() {
	id := facility.ID("cbd-parking-complex")
	const contenders = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		won       int
		exhausted int
	)
	for range contenders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.registry.TryReserve(s.ctx, id, t0.Add(time.Minute))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errs.Is(err, errs.ErrCapacityExhausted):
				exhausted++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, won)
	s.Equal(contenders-1, exhausted)
	s.Equal(0, s.available(id))
}

func (s *RegistrySuite) TestReleaseExpired() {
	s.registry = s.newRegistry(builder.NewFacilityBuilder().WithAvailable(3))
	id := facility.ID("cbd-parking-complex")

	short, err := s.registry.TryReserve(s.ctx, id, t0.Add(time.Minute))
	s.Require().NoError(err)
	_, err = s.registry.TryReserve(s.ctx, id, t0.Add(10*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, s.available(id))

	n, err := s.registry.ReleaseExpired(s.ctx, t0.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(2, s.available(id))

	n, err = s.registry.ReleaseExpired(s.ctx, t0.Add(time.Minute))
	s.Require().NoError(err)
	s.Zero(n, "sweep is idempotent")

	s.True(errs.Is(s.registry.Release(s.ctx, short.Token), errs.ErrInvalidHold))
}

func (s *RegistrySuite) TestFinalizeWith() {
	id := facility.ID("cbd-parking-complex")
	hold, err := s.registry.TryReserve(s.ctx, id, t0.Add(5*time.Minute))
	s.Require().NoError(err)

	s.Run("failed commit keeps the hold active", func() {
		boom := errs.New("ledger down")
		err := s.registry.FinalizeWith(hold.Token, t0, func() error { return boom })
		s.ErrorIs(err, boom)
	})

	s.Run("expired hold is rejected", func() {
		called := false
		err := s.registry.FinalizeWith(hold.Token, t0.Add(5*time.Minute), func() error {
			called = true
			return nil
		})
		s.True(errs.Is(err, errs.ErrInvalidHold))
		s.False(called)
	})

	s.Run("finalized hold keeps its unit", func() {
		s.Require().NoError(s.registry.FinalizeWith(hold.Token, t0, func() error { return nil }))
		s.Equal(0, s.available(id))

		s.True(errs.Is(s.registry.Release(s.ctx, hold.Token), errs.ErrInvalidHold))
		n, err := s.registry.ReleaseExpired(s.ctx, t0.Add(time.Hour))
		s.Require().NoError(err)
		s.Zero(n)
		s.Equal(0, s.available(id))
	})
}

func (s *RegistrySuite) TestUpdateRateAppliesToNewHolds() {
	s.registry = s.newRegistry(builder.NewFacilityBuilder().WithAvailable(2))
	id := facility.ID("cbd-parking-complex")

	before, err := s.registry.TryReserve(s.ctx, id, t0.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.registry.UpdateRate(id, pricing.NewMoney(7000)))
	after, err := s.registry.TryReserve(s.ctx, id, t0.Add(time.Minute))
	s.Require().NoError(err)

	s.Equal(int64(6000), before.Rate.Minor())
	s.Equal(int64(7000), after.Rate.Minor())

	snap, err := s.registry.Facility(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(int64(7000), snap.Rate.Minor())
	s.Equal(50, snap.Capacity)

	s.Error(s.registry.UpdateRate(id, pricing.NewMoney(0)))
}

func TestRegistryAvailabilityBounds(t *testing.T) {
	e, err := builder.NewFacilityBuilder().BuildEntry()
	require.NoError(t, err)
	e.Available = e.Facility.Capacity() + 1

	_, err = memory.NewRegistry([]catalog.Entry{e}, clock.NewMockClock(t0))
	assert.True(t, errs.Is(err, inventory.ErrInvalidCounter))
}
