package payment

import (
	"context"
	"sync"
	"time"

	"parking-reservation/internal/pkg/clock"

	"github.com/google/uuid"
)

// SettledCharge is the recorded success for an idempotency key.
type SettledCharge struct {
	Reference   string    `json:"reference"`
	AmountMinor int64     `json:"amount_minor"`
	SettledAt   time.Time `json:"settled_at"`
}

// OutcomeStore remembers settled charges and guards keys with an in-flight lock.
type OutcomeStore interface {
	// Settled returns nil when the key has no recorded success.
	Settled(ctx context.Context, key uuid.UUID) (*SettledCharge, error)
	// Settle records charge unless the key is already settled, and returns
	// whichever record is stored. The first success wins.
	Settle(ctx context.Context, key uuid.UUID, charge SettledCharge) (SettledCharge, error)
	// Lock returns a release func, or ok=false while another charge holds the key.
	Lock(ctx context.Context, key uuid.UUID, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type MemoryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	settled map[uuid.UUID]SettledCharge
	locks   map[uuid.UUID]memoryLock
}

type memoryLock struct {
	owner     uuid.UUID
	expiresAt time.Time
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clk,
		settled: make(map[uuid.UUID]SettledCharge),
		locks:   make(map[uuid.UUID]memoryLock),
	}
}

func (s *MemoryStore) Settled(_ context.Context, key uuid.UUID) (*SettledCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.settled[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) Settle(_ context.Context, key uuid.UUID, charge SettledCharge) (SettledCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.settled[key]; ok {
		return existing, nil
	}
	s.settled[key] = charge
	return charge, nil
}

func (s *MemoryStore) Lock(_ context.Context, key uuid.UUID, ttl time.Duration) (func(context.Context) error, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if l, held := s.locks[key]; held && now.Before(l.expiresAt) {
		return nil, false, nil
	}
	owner := uuid.New()
	s.locks[key] = memoryLock{owner: owner, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if l, held := s.locks[key]; held && l.owner == owner {
			delete(s.locks, key)
		}
		return nil
	}
	return release, true, nil
}
