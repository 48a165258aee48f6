package pricing

import (
	"errors"
	"math"

	"parking-reservation/internal/pkg/errs"
)

var ErrInvalidRate = errors.New("hourly rate must be positive")

type Calculator interface {
	ComputeCost(rate Money, hours float64) (Money, error)
}

type FlatRateCalculator struct{}

func NewFlatRateCalculator() *FlatRateCalculator {
	return &FlatRateCalculator{}
}

func (c *FlatRateCalculator) ComputeCost(rate Money, hours float64) (Money, error) {
	return ComputeCost(rate, hours)
}

// ComputeCost returns rate*hours. Rates are held at minor-unit precision, so the
// product is already rounded; the half-up rounding happens in ParseMoney.
func ComputeCost(rate Money, hours float64) (Money, error) {
	h, err := WholeHours(hours)
	if err != nil {
		return Money{}, err
	}
	if !rate.IsPositive() {
		return Money{}, ErrInvalidRate
	}
	if rate.minor > math.MaxInt64/int64(h) {
		return Money{}, errs.Wrap(errs.ErrInvalidDuration, "cost overflows")
	}
	return Money{minor: rate.minor * int64(h)}, nil
}

// WholeHours validates a requested duration: at least one hour, integral.
func WholeHours(hours float64) (int, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, errs.ErrInvalidDuration
	}
	if hours < 1 || hours != math.Trunc(hours) || hours > math.MaxInt32 {
		return 0, errs.ErrInvalidDuration
	}
	return int(hours), nil
}
