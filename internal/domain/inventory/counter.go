package inventory

import (
	"errors"

	"parking-reservation/internal/pkg/errs"
)

var ErrInvalidCounter = errors.New("available must be between 0 and capacity")

// Counter is the mutable availability of one facility. Callers serialize access.
type Counter struct {
	capacity  int
	available int
}

func NewCounter(capacity, available int) (Counter, error) {
	if capacity <= 0 || available < 0 || available > capacity {
		return Counter{}, ErrInvalidCounter
	}
	return Counter{capacity: capacity, available: available}, nil
}

func (c Counter) Capacity() int  { return c.capacity }
func (c Counter) Available() int { return c.available }

func (c *Counter) Reserve() error {
	if c.available == 0 {
		return errs.ErrCapacityExhausted
	}
	c.available--
	return nil
}

// Release returns one unit. A counter already at capacity has no outstanding
// hold to give back.
func (c *Counter) Release() error {
	if c.available >= c.capacity {
		return errs.Wrap(errs.ErrInvalidHold, "counter already at capacity")
	}
	c.available++
	return nil
}
