package booking

import (
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/pkg/clock"
)

type Services struct {
	Clock   clock.Clock
	Pricing pricing.Calculator
}
