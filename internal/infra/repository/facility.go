package repository

import (
	"context"
	"iter"
	"time"

	"parking-reservation/internal/domain/facility"
	"parking-reservation/internal/domain/inventory"
	"parking-reservation/internal/domain/pricing"
	"parking-reservation/internal/infra"
	"parking-reservation/internal/infra/catalog"
	"parking-reservation/internal/infra/db"
	"parking-reservation/internal/pkg/clock"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectFacilityColumns = `id, name, address, city, lat, lng, rate_minor, capacity, available`

	listFacilitiesSQL = `SELECT ` + selectFacilityColumns + `
FROM facilities
WHERE $1 = '' OR lower(city) = lower($1)
ORDER BY sort_order, id`

	getFacilitySQL = `SELECT ` + selectFacilityColumns + ` FROM facilities WHERE id = $1`

	// the row lock taken by the conditional update serializes reservations per facility
	reserveUnitSQL = `UPDATE facilities
SET available = available - 1, updated_at = now()
WHERE id = $1 AND available > 0
RETURNING rate_minor`

	facilityExistsSQL = `SELECT EXISTS (SELECT 1 FROM facilities WHERE id = $1)`

	insertHoldSQL = `INSERT INTO holds (token, facility_id, rate_minor, status, expires_at)
VALUES ($1, $2, $3, 'active', $4)`

	closeHoldSQL = `UPDATE holds
SET status = 'released', closed_at = $2
WHERE token = $1 AND status = 'active'
RETURNING facility_id`

	releaseUnitSQL = `UPDATE facilities
SET available = available + 1, updated_at = now()
WHERE id = $1 AND available < capacity`

	releaseExpiredSQL = `WITH expired AS (
    UPDATE holds SET status = 'released', closed_at = $1
    WHERE status = 'active' AND expires_at <= $1
    RETURNING facility_id
), counts AS (
    SELECT facility_id, count(*) AS n FROM expired GROUP BY facility_id
)
UPDATE facilities f
SET available = LEAST(f.capacity, f.available + counts.n), updated_at = now()
FROM counts
WHERE f.id = counts.facility_id
RETURNING counts.n`

	upsertFacilitySQL = `INSERT INTO facilities (id, name, address, city, lat, lng, rate_minor, capacity, available, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    address = EXCLUDED.address,
    city = EXCLUDED.city,
    lat = EXCLUDED.lat,
    lng = EXCLUDED.lng,
    rate_minor = EXCLUDED.rate_minor,
    sort_order = EXCLUDED.sort_order,
    updated_at = now()`
)

// FacilityRegistry is the Postgres inventory registry. Availability lives in
// the facilities row and every change is a conditional update.
type FacilityRegistry struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

func NewFacilityRegistry(pool *pgxpool.Pool, clk clock.Clock) *FacilityRegistry {
	return &FacilityRegistry{pool: pool, clock: clk}
}

// Seed loads catalog entries. Existing rows keep their availability and
// capacity, so a restart never hands out units that are still held.
func (r *FacilityRegistry) Seed(ctx context.Context, entries []catalog.Entry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i, e := range entries {
			f := e.Facility
			_, err := tx.Exec(ctx, upsertFacilitySQL,
				f.ID().String(), f.Name(), f.Address(), f.City(),
				f.Coordinate().Lat(), f.Coordinate().Lng(),
				f.Rate().Minor(), f.Capacity(), e.Available, i,
			)
			if err != nil {
				return infra.WrapRepoErr(infra.KindDBFailure, "failed to seed facility "+f.ID().String(), err)
			}
		}
		return nil
	})
}

func (r *FacilityRegistry) ListFacilities(ctx context.Context, city string) iter.Seq2[facility.Snapshot, error] {
	return func(yield func(facility.Snapshot, error) bool) {
		rows, err := r.pool.Query(ctx, listFacilitiesSQL, city)
		if err != nil {
			yield(facility.Snapshot{}, infra.WrapRepoErr(infra.KindDBFailure, "failed to list facilities", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			snap, err := scanFacility(rows)
			if err != nil {
				yield(facility.Snapshot{}, err)
				return
			}
			if !yield(snap, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(facility.Snapshot{}, infra.WrapRepoErr(infra.KindDBFailure, "failed to iterate facilities", err))
		}
	}
}

func (r *FacilityRegistry) Facility(ctx context.Context, id facility.ID) (facility.Snapshot, error) {
	snap, err := scanFacility(r.pool.QueryRow(ctx, getFacilitySQL, id.String()))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return facility.Snapshot{}, errs.Wrapf(errs.ErrFacilityNotFound, "facility %s", id)
		}
		return facility.Snapshot{}, err
	}
	return snap, nil
}

func (r *FacilityRegistry) TryReserve(ctx context.Context, id facility.ID, expiresAt time.Time) (inventory.Hold, error) {
	hold := inventory.Hold{
		Token:      inventory.NewHoldToken(),
		FacilityID: id,
		ExpiresAt:  expiresAt,
		Status:     inventory.HoldActive,
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var rateMinor int64
		err := tx.QueryRow(ctx, reserveUnitSQL, id.String()).Scan(&rateMinor)
		if err != nil {
			if pgconv.IsNoRows(err) {
				return missingOrExhausted(ctx, tx, id)
			}
			return infra.WrapRepoErr(infra.KindDBFailure, "failed to reserve unit", err)
		}
		hold.Rate = pricing.NewMoney(rateMinor)

		_, err = tx.Exec(ctx, insertHoldSQL,
			pgconv.UUIDToPgtype(hold.Token.UUID()), id.String(), rateMinor, pgconv.TimeToPgtype(expiresAt))
		if err != nil {
			return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert hold", err)
		}
		return nil
	})
	if err != nil {
		return inventory.Hold{}, err
	}
	return hold, nil
}

func (r *FacilityRegistry) Release(ctx context.Context, token inventory.HoldToken) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var facilityID string
		err := tx.QueryRow(ctx, closeHoldSQL,
			pgconv.UUIDToPgtype(token.UUID()), pgconv.TimeToPgtype(r.clock.Now())).Scan(&facilityID)
		if err != nil {
			if pgconv.IsNoRows(err) {
				return errs.Wrapf(errs.ErrInvalidHold, "hold %s is not active", token)
			}
			return infra.WrapRepoErr(infra.KindDBFailure, "failed to release hold", err)
		}

		tag, err := tx.Exec(ctx, releaseUnitSQL, facilityID)
		if err != nil {
			return infra.WrapRepoErr(infra.KindDBFailure, "failed to return unit", err)
		}
		if tag.RowsAffected() == 0 {
			return errs.Wrapf(errs.ErrInvalidHold, "facility %s already at capacity", facilityID)
		}
		return nil
	})
}

func (r *FacilityRegistry) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	rows, err := r.pool.Query(ctx, releaseExpiredSQL, pgconv.TimeToPgtype(now))
	if err != nil {
		return 0, infra.WrapRepoErr(infra.KindDBFailure, "failed to release expired holds", err)
	}
	defer rows.Close()

	released := 0
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return released, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan released count", err)
		}
		released += n
	}
	if err := rows.Err(); err != nil {
		return released, infra.WrapRepoErr(infra.KindDBFailure, "failed to release expired holds", err)
	}
	return released, nil
}

func missingOrExhausted(ctx context.Context, q db.DBTX, id facility.ID) error {
	var exists bool
	if err := q.QueryRow(ctx, facilityExistsSQL, id.String()).Scan(&exists); err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to check facility", err)
	}
	if !exists {
		return errs.Wrapf(errs.ErrFacilityNotFound, "facility %s", id)
	}
	return errs.Wrapf(errs.ErrCapacityExhausted, "facility %s", id)
}

func scanFacility(row pgx.Row) (facility.Snapshot, error) {
	var (
		id, name, address, city string
		lat, lng                float64
		rateMinor               int64
		capacity, available     int
	)
	if err := row.Scan(&id, &name, &address, &city, &lat, &lng, &rateMinor, &capacity, &available); err != nil {
		if pgconv.IsNoRows(err) {
			return facility.Snapshot{}, err
		}
		return facility.Snapshot{}, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan facility", err)
	}

	coord, err := facility.NewCoordinate(lat, lng)
	if err != nil {
		return facility.Snapshot{}, errs.Wrapf(err, "facility %s", id)
	}
	f, err := facility.NewFacility(facility.ID(id), name, address, city, coord, pricing.NewMoney(rateMinor), capacity)
	if err != nil {
		return facility.Snapshot{}, errs.Wrapf(err, "facility %s", id)
	}
	return f.Snapshot(available), nil
}
