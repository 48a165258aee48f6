package repository

import (
	"context"
	"time"

	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/infra"
	"parking-reservation/internal/infra/db"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/pkg/pgconv"
)

const finalizeHoldSQL = `UPDATE holds
SET status = 'finalized', closed_at = $2
WHERE token = $1 AND status = 'active' AND expires_at > $2`

type HoldRepository struct {
	db db.DBTX
}

func NewHoldRepository(db db.DBTX) *HoldRepository {
	return &HoldRepository{db: db}
}

// Finalize keeps the unit decremented for good. The facility counter already
// reflects the hold, so only the hold row changes.
func (r *HoldRepository) Finalize(ctx context.Context, token inventory.HoldToken, now time.Time) error {
	tag, err := r.db.Exec(ctx, finalizeHoldSQL, pgconv.UUIDToPgtype(token.UUID()), pgconv.TimeToPgtype(now))
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to finalize hold", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.Wrapf(errs.ErrInvalidHold, "hold %s is not active or has expired", token)
	}
	return nil
}
