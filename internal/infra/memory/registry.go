package memory

import (
	"context"
	"iter"
	"sync"
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/infra/catalog"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/errs"
)

// closedHoldRetention bounds how long released and finalized holds stay
// known, so a late Release is still answered with InvalidHold.
const closedHoldRetention = 24 * time.Hour

// slot guards one facility. Reserve and release on different facilities never contend.
type slot struct {
	mu       sync.Mutex
	facility *facility.Facility
	counter  inventory.Counter
	holds    map[inventory.HoldToken]*inventory.Hold
	closedAt map[inventory.HoldToken]time.Time
}

type Registry struct {
	clock clock.Clock
	order []facility.ID
	slots map[facility.ID]*slot
	// token -> facility id
	index sync.Map
}

func NewRegistry(entries []catalog.Entry, clk clock.Clock) (*Registry, error) {
	r := &Registry{
		clock: clk,
		order: make([]facility.ID, 0, len(entries)),
		slots: make(map[facility.ID]*slot, len(entries)),
	}
	for _, e := range entries {
		id := e.Facility.ID()
		if _, dup := r.slots[id]; dup {
			return nil, errs.Wrapf(facility.ErrDuplicateID, "facility %s", id)
		}
		counter, err := inventory.NewCounter(e.Facility.Capacity(), e.Available)
		if err != nil {
			return nil, errs.Wrapf(err, "facility %s", id)
		}
		r.order = append(r.order, id)
		r.slots[id] = &slot{
			facility: e.Facility,
			counter:  counter,
			holds:    make(map[inventory.HoldToken]*inventory.Hold),
			closedAt: make(map[inventory.HoldToken]time.Time),
		}
	}
	return r, nil
}

func (r *Registry) ListFacilities(ctx context.Context, city string) iter.Seq2[facility.Snapshot, error] {
	return func(yield func(facility.Snapshot, error) bool) {
		for _, id := range r.order {
			if err := ctx.Err(); err != nil {
				yield(facility.Snapshot{}, err)
				return
			}
			s := r.slots[id]
			if !facility.MatchesCity(s.facility.City(), city) {
				continue
			}
			if !yield(s.snapshot(), nil) {
				return
			}
		}
	}
}

func (r *Registry) Facility(_ context.Context, id facility.ID) (facility.Snapshot, error) {
	s, err := r.slot(id)
	if err != nil {
		return facility.Snapshot{}, err
	}
	return s.snapshot(), nil
}

func (r *Registry) TryReserve(_ context.Context, id facility.ID, expiresAt time.Time) (inventory.Hold, error) {
	s, err := r.slot(id)
	if err != nil {
		return inventory.Hold{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.counter.Reserve(); err != nil {
		return inventory.Hold{}, errs.Wrapf(err, "facility %s", id)
	}
	h := &inventory.Hold{
		Token:      inventory.NewHoldToken(),
		FacilityID: id,
		Rate:       s.facility.Rate(),
		ExpiresAt:  expiresAt,
		Status:     inventory.HoldActive,
	}
	s.holds[h.Token] = h
	r.index.Store(h.Token, id)
	return *h, nil
}

func (r *Registry) Release(_ context.Context, token inventory.HoldToken) error {
	s, err := r.slotForHold(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.close(token, inventory.HoldReleased, r.clock.Now())
}

func (r *Registry) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	released := 0
	for _, id := range r.order {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		s := r.slots[id]

		s.mu.Lock()
		for token, h := range s.holds {
			if h.ExpiredAt(now) {
				if err := s.close(token, inventory.HoldReleased, now); err != nil {
					s.mu.Unlock()
					return released, err
				}
				released++
			}
		}
		s.prune(now.Add(-closedHoldRetention), &r.index)
		s.mu.Unlock()
	}
	return released, nil
}

// FinalizeWith turns an active, unexpired hold into a permanent decrement once
// commit succeeds. commit runs under the facility lock, so no release or
// expiry sweep can interleave.
func (r *Registry) FinalizeWith(token inventory.HoldToken, now time.Time, commit func() error) error {
	s, err := r.slotForHold(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holds[token]
	if !ok || !h.IsActive() {
		return errs.Wrapf(errs.ErrInvalidHold, "hold %s is not active", token)
	}
	if h.ExpiredAt(now) {
		return errs.Wrapf(errs.ErrInvalidHold, "hold %s expired", token)
	}
	if err := commit(); err != nil {
		return err
	}
	h.Status = inventory.HoldFinalized
	s.closedAt[token] = now
	return nil
}

// UpdateRate changes the rate quoted for new holds. Existing holds keep theirs.
func (r *Registry) UpdateRate(id facility.ID, rate pricing.Money) error {
	s, err := r.slot(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := facility.NewFacility(id, s.facility.Name(), s.facility.Address(), s.facility.City(), s.facility.Coordinate(), rate, s.facility.Capacity())
	if err != nil {
		return err
	}
	s.facility = f
	return nil
}

func (r *Registry) slot(id facility.ID) (*slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, errs.Wrapf(errs.ErrFacilityNotFound, "facility %s", id)
	}
	return s, nil
}

func (r *Registry) slotForHold(token inventory.HoldToken) (*slot, error) {
	v, ok := r.index.Load(token)
	if !ok {
		return nil, errs.Wrapf(errs.ErrInvalidHold, "unknown hold %s", token)
	}
	return r.slots[v.(facility.ID)], nil
}

func (s *slot) snapshot() facility.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facility.Snapshot(s.counter.Available())
}

// close must be called with s.mu held.
func (s *slot) close(token inventory.HoldToken, status inventory.HoldStatus, now time.Time) error {
	h, ok := s.holds[token]
	if !ok || !h.IsActive() {
		return errs.Wrapf(errs.ErrInvalidHold, "hold %s is not active", token)
	}
	if err := s.counter.Release(); err != nil {
		return err
	}
	h.Status = status
	s.closedAt[token] = now
	return nil
}

func (s *slot) prune(cutoff time.Time, index *sync.Map) {
	for token, at := range s.closedAt {
		if at.Before(cutoff) {
			delete(s.closedAt, token)
			delete(s.holds, token)
			index.Delete(token)
		}
	}
}
