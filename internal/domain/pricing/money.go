package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinorUnitsPerMajor is the number of minor units (cents) in one currency unit.
const MinorUnitsPerMajor = 100

var (
	ErrInvalidAmount  = errors.New("invalid money amount")
	ErrAmountTooLarge = errors.New("money amount out of range")
)

type Money struct {
	minor int64
}

func NewMoney(minor int64) Money {
	return Money{minor: minor}
}

func (m Money) Minor() int64 {
	return m.minor
}

func (m Money) IsPositive() bool {
	return m.minor > 0
}

func (m Money) IsZero() bool {
	return m.minor == 0
}

func (m Money) Add(o Money) (Money, error) {
	if o.minor > 0 && m.minor > math.MaxInt64-o.minor {
		return Money{}, ErrAmountTooLarge
	}
	return Money{minor: m.minor + o.minor}, nil
}

func (m Money) Equal(o Money) bool {
	return m.minor == o.minor
}

// String formats the amount in major units with two decimals, e.g. "180.00".
func (m Money) String() string {
	sign := ""
	v := m.minor
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/MinorUnitsPerMajor, v%MinorUnitsPerMajor)
}

// ParseMoney parses a non-negative decimal amount in major units and rounds it
// half-up to the minor unit: "60" -> 6000, "60.005" -> 6001, "60.004" -> 6000.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" || (hasDot && fracPart == "") {
		return Money{}, ErrInvalidAmount
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return Money{}, ErrInvalidAmount
	}

	major, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || major > (math.MaxInt64-MinorUnitsPerMajor)/MinorUnitsPerMajor {
		return Money{}, ErrAmountTooLarge
	}

	var cents int64
	for i := 0; i < 2; i++ {
		cents *= 10
		if i < len(fracPart) {
			cents += int64(fracPart[i] - '0')
		}
	}
	minor := major*MinorUnitsPerMajor + cents
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		minor++
	}
	return Money{minor: minor}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
