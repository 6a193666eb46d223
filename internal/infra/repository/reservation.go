package repository

import (
	"context"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/infra/db"
	"mechanic-booking/internal/infra/repository/converter"
	"mechanic-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// liveCondition selects rows that block their slot at $now.
const liveCondition = `slot_start IS NOT NULL AND (
	status IN ('CONFIRMED', 'PENDING_WEEKEND_APPROVAL')
	OR (status = 'HELD' AND hold_expires_at >= @now)
)`

const (
	insertReservationSQL = `INSERT INTO reservations (` + converter.ReservationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`

	updateReservationSQL = `UPDATE reservations SET
	slot_start = @slot_start,
	slot_end = @slot_end,
	status = @status,
	hold_expires_at = @hold_expires_at,
	gateway_session_id = @gateway_session_id,
	checkout_url = @checkout_url,
	payment_reference = @payment_reference,
	cancel_reason = @cancel_reason,
	updated_at = @updated_at
WHERE id = @id AND status = @expected`

	selectReservationSQL = `SELECT ` + converter.ReservationColumns + ` FROM reservations`

	listLiveOverlappingSQL = selectReservationSQL + `
WHERE tstzrange(slot_start, slot_end, '[)') && tstzrange(@start, @end, '[)')
  AND ` + liveCondition + `
ORDER BY slot_start`

	countLiveOnDateSQL = `SELECT count(*) FROM reservations
WHERE requested_date = @date AND ` + liveCondition

	lockDateSQL = `SELECT pg_advisory_xact_lock(hashtext('reservations:' || @day::text))`

	expireOverlappingStaleSQL = `UPDATE reservations
SET status = 'EXPIRED', hold_expires_at = NULL, updated_at = @now
WHERE status = 'HELD' AND hold_expires_at < @now
  AND slot_start IS NOT NULL
  AND tstzrange(slot_start, slot_end, '[)') && tstzrange(@start, @end, '[)')`

	expireStaleSQL = `UPDATE reservations
SET status = 'EXPIRED', hold_expires_at = NULL, updated_at = @now
WHERE status = 'HELD' AND hold_expires_at < @now`
)

type ReservationRepository struct {
	db  db.DBTX
	loc *time.Location
}

func NewReservationRepository(dbtx db.DBTX, loc *time.Location) *ReservationRepository {
	return &ReservationRepository{
		db:  dbtx,
		loc: loc,
	}
}

func (r *ReservationRepository) Insert(ctx context.Context, res *reservation.Reservation) error {
	row, err := converter.ReservationToRow(res)
	if err != nil {
		return infra.WrapRepoErr("failed to encode reservation", err)
	}
	if _, err := r.db.Exec(ctx, insertReservationSQL, row.Values()...); err != nil {
		return infra.WrapRepoErr("failed to insert reservation", err)
	}
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *reservation.Reservation, expected reservation.Status) error {
	row, err := converter.ReservationToRow(res)
	if err != nil {
		return infra.WrapRepoErr("failed to encode reservation", err)
	}
	tag, err := r.db.Exec(ctx, updateReservationSQL, pgx.NamedArgs{
		"id":                 row.ID,
		"expected":           expected.String(),
		"slot_start":         row.SlotStart,
		"slot_end":           row.SlotEnd,
		"status":             row.Status,
		"hold_expires_at":    row.HoldExpiresAt,
		"gateway_session_id": row.GatewaySessionID,
		"checkout_url":       row.CheckoutURL,
		"payment_reference":  row.PaymentReference,
		"cancel_reason":      row.CancelReason,
		"updated_at":         row.UpdatedAt,
	})
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindStale, "reservation status changed concurrently")
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*reservation.Reservation, error) {
	return r.findOne(ctx, selectReservationSQL+` WHERE id = $1`+lockClause(forUpdate), id)
}

func (r *ReservationRepository) FindBySessionID(ctx context.Context, sessionID string, forUpdate bool) (*reservation.Reservation, error) {
	return r.findOne(ctx, selectReservationSQL+` WHERE gateway_session_id = $1`+lockClause(forUpdate), sessionID)
}

func (r *ReservationRepository) FindByReference(ctx context.Context, reference string) (*reservation.Reservation, error) {
	return r.findOne(ctx, selectReservationSQL+` WHERE reference = $1`, reference)
}

func (r *ReservationRepository) ListLiveOverlapping(ctx context.Context, slot calendar.TimeSlot, now time.Time) ([]*reservation.Reservation, error) {
	rows, err := r.db.Query(ctx, listLiveOverlappingSQL, pgx.NamedArgs{
		"start": slot.Start(),
		"end":   slot.End(),
		"now":   now,
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list overlapping reservations", err)
	}
	defer rows.Close()

	var out []*reservation.Reservation
	for rows.Next() {
		var row converter.ReservationRow
		if err := rows.Scan(row.ScanTargets()...); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		res, err := converter.RowToReservation(row, r.loc)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to decode reservation", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservations", err)
	}
	return out, nil
}

func (r *ReservationRepository) CountLiveOnDate(ctx context.Context, date time.Time, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, countLiveOnDateSQL, pgx.NamedArgs{
		"date": pgconv.DateToPgtype(date.In(r.loc)),
		"now":  now,
	}).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count reservations for date", err)
	}
	return count, nil
}

// LockDate takes a transaction-scoped advisory lock keyed by the local date,
// so the daily cap is counted and consumed by one writer at a time.
func (r *ReservationRepository) LockDate(ctx context.Context, date time.Time) error {
	if _, err := r.db.Exec(ctx, lockDateSQL, pgx.NamedArgs{
		"day": date.In(r.loc).Format(time.DateOnly),
	}); err != nil {
		return infra.WrapRepoErr("failed to lock reservation date", err)
	}
	return nil
}

func (r *ReservationRepository) ExpireOverlappingStale(ctx context.Context, slot calendar.TimeSlot, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, expireOverlappingStaleSQL, pgx.NamedArgs{
		"start": slot.Start(),
		"end":   slot.End(),
		"now":   now,
	})
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire overlapping holds", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReservationRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, expireStaleSQL, pgx.NamedArgs{"now": now})
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire stale holds", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReservationRepository) findOne(ctx context.Context, sql string, args ...any) (*reservation.Reservation, error) {
	var row converter.ReservationRow
	if err := r.db.QueryRow(ctx, sql, args...).Scan(row.ScanTargets()...); err != nil {
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	res, err := converter.RowToReservation(row, r.loc)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to decode reservation", err)
	}
	return res, nil
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return ` FOR UPDATE`
	}
	return ""
}
