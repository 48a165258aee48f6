package payment

import (
	"context"
	"sync"
	"time"

	"parking-reservation/internal/domain/payment"
	"parking-reservation/internal/pkg/errs"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Gateway talks to the mobile-money provider. It returns ctx.Err() when the
// caller gives up before the provider answers.
type Gateway interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (payment.Outcome, error)
}

// SimulatedGateway approves every charge after a fixed delay, the way a
// phone prompt would complete. Like real providers it deduplicates on the
// idempotency key.
type SimulatedGateway struct {
	delay time.Duration
	node  *snowflake.Node

	mu      sync.Mutex
	charged map[uuid.UUID]string
}

func NewSimulatedGateway(delay time.Duration, nodeID int64) (*SimulatedGateway, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errs.Wrapf(err, "invalid gateway node id %d", nodeID)
	}
	return &SimulatedGateway{
		delay:   delay,
		node:    node,
		charged: make(map[uuid.UUID]string),
	}, nil
}

func (g *SimulatedGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.Outcome, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return payment.Outcome{}, ctx.Err()
		case <-timer.C:
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if ref, ok := g.charged[req.Key]; ok {
		return payment.Succeeded(ref), nil
	}
	ref := referencePrefix(req.Method) + g.node.Generate().Base36()
	g.charged[req.Key] = ref
	return payment.Succeeded(ref), nil
}

func referencePrefix(m payment.Method) string {
	switch m {
	case payment.MethodMpesa:
		return "MP"
	case payment.MethodAirtel:
		return "AM"
	default:
		return "PX"
	}
}
