package memory

import (
	"context"
	"time"

	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/usecase/shared"
)

var errOneHoldPerUnit = errs.New("a unit of work finalizes at most one hold")

// UoW stages writes and applies them in one step: the ledger append runs under
// the facility lock of the finalized hold and the hold is finalized only after
// the append succeeded.
type UoW struct {
	registry *Registry
	ledger   shared.LedgerRepository
}

func NewUoW(registry *Registry, ledger shared.LedgerRepository) *UoW {
	return &UoW{registry: registry, ledger: ledger}
}

func (u *UoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	tx := &stagedTx{}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return u.commit(ctx, tx)
}

func (u *UoW) commit(ctx context.Context, tx *stagedTx) error {
	appendAll := func() error {
		for _, e := range tx.entries {
			if err := u.ledger.Append(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}
	if tx.finalize == nil {
		return appendAll()
	}
	return u.registry.FinalizeWith(tx.finalize.token, tx.finalize.now, appendAll)
}

type stagedFinalize struct {
	token inventory.HoldToken
	now   time.Time
}

type stagedTx struct {
	finalize *stagedFinalize
	entries  []*ledger.ConfirmedBooking
}

func (t *stagedTx) Holds() shared.HoldRepository { return stagedHolds{t} }
func (t *stagedTx) Ledger() shared.LedgerRepository { return stagedLedger{t} }

type stagedHolds struct{ tx *stagedTx }

func (h stagedHolds) Finalize(_ context.Context, token inventory.HoldToken, now time.Time) error {
	if h.tx.finalize != nil && h.tx.finalize.token != token {
		return errOneHoldPerUnit
	}
	h.tx.finalize = &stagedFinalize{token: token, now: now}
	return nil
}

type stagedLedger struct{ tx *stagedTx }

func (l stagedLedger) Append(_ context.Context, entry *ledger.ConfirmedBooking) error {
	l.tx.entries = append(l.tx.entries, entry)
	return nil
}
