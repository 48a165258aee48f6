package memory

import (
	"context"
	"sync"
	"time"

	"parking-reservation/internal/domain/booking"
	"parking-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

type session struct {
	// lock is a one-slot semaphore so waiting respects ctx
	lock    chan struct{}
	booking *booking.Booking
}

// Sessions keeps bookings in process memory, one lock per booking.
type Sessions struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*session
}

func NewSessions() *Sessions {
	return &Sessions{entries: make(map[uuid.UUID]*session)}
}

func (s *Sessions) Add(_ context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[b.ID()]; exists {
		return errs.Wrapf(errs.ErrInvalidState, "booking %s already exists", b.ID())
	}
	s.entries[b.ID()] = &session{lock: make(chan struct{}, 1), booking: b}
	return nil
}

func (s *Sessions) With(ctx context.Context, id uuid.UUID, fn func(b *booking.Booking) error) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return errs.Wrapf(errs.ErrBookingNotFound, "booking %s", id)
	}

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.lock }()

	return fn(e.booking)
}

func (s *Sessions) IDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// Prune skips sessions that are busy; the next sweep gets them.
func (s *Sessions) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, e := range s.entries {
		select {
		case e.lock <- struct{}{}:
		default:
			continue
		}
		b := e.booking
		if b.State().IsTerminal() && b.UpdatedAt().Before(cutoff) {
			delete(s.entries, id)
			pruned++
		}
		<-e.lock
	}
	return pruned
}
