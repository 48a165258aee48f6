package repository

import (
	"context"

	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/infra"
	"parking-reservation/internal/infra/converter"
	"parking-reservation/internal/infra/db"
	"parking-reservation/internal/pkg/errs"
	"parking-reservation/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	insertLedgerSQL = `INSERT INTO confirmed_bookings (booking_id, facility_id, start_at, hours, cost_minor, payment_ref, confirmed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectLedgerColumns = `booking_id, facility_id, start_at, hours, cost_minor, payment_ref, confirmed_at`

	getLedgerSQL = `SELECT ` + selectLedgerColumns + ` FROM confirmed_bookings WHERE booking_id = $1`

	listLedgerSQL = `SELECT ` + selectLedgerColumns + ` FROM confirmed_bookings ORDER BY confirmed_at, booking_id`
)

type LedgerRepository struct {
	db db.DBTX
}

func NewLedgerRepository(db db.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.ConfirmedBooking) error {
	rec := converter.LedgerToInfra(entry)
	_, err := r.db.Exec(ctx, insertLedgerSQL,
		pgconv.UUIDToPgtype(rec.BookingID), rec.FacilityID,
		pgconv.TimeToPgtype(rec.StartAt), rec.Hours, rec.CostMinor,
		rec.PaymentRef, pgconv.TimeToPgtype(rec.ConfirmedAt),
	)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return infra.WrapRepoErr(infra.KindDuplicateKey, "booking already in ledger", err, errs.ErrAlreadyConfirmed)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to append ledger entry", err)
	}
	return nil
}

func (r *LedgerRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*ledger.ConfirmedBooking, error) {
	e, err := scanLedger(r.db.QueryRow(ctx, getLedgerSQL, pgconv.UUIDToPgtype(bookingID)))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "ledger entry not found", err, errs.ErrBookingNotFound)
		}
		return nil, err
	}
	return e, nil
}

func (r *LedgerRepository) List(ctx context.Context) ([]*ledger.ConfirmedBooking, error) {
	rows, err := r.db.Query(ctx, listLedgerSQL)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list ledger", err)
	}
	defer rows.Close()

	entries := make([]*ledger.ConfirmedBooking, 0)
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to iterate ledger", err)
	}
	return entries, nil
}

func scanLedger(row pgx.Row) (*ledger.ConfirmedBooking, error) {
	var (
		rec         converter.LedgerRecord
		bookingID   pgtype.UUID
		startAt     pgtype.Timestamptz
		confirmedAt pgtype.Timestamptz
	)
	err := row.Scan(&bookingID, &rec.FacilityID, &startAt, &rec.Hours, &rec.CostMinor, &rec.PaymentRef, &confirmedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, err
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan ledger entry", err)
	}
	rec.BookingID = pgconv.UUIDFromPgtype(bookingID)
	rec.StartAt = pgconv.TimeFromPgtype(startAt)
	rec.ConfirmedAt = pgconv.TimeFromPgtype(confirmedAt)
	return converter.LedgerToDomain(rec)
}
