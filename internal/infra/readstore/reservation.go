package readstore

import (
	"context"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/infra/db"
	"mechanic-booking/internal/infra/repository/converter"
	"mechanic-booking/internal/pkg/pgconv"
	"mechanic-booking/internal/usecase/queries"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ReservationReadStore serves the read side. Filters are optional, so queries
// are assembled with squirrel rather than fixed SQL.
type ReservationReadStore struct {
	db  db.DBTX
	loc *time.Location
}

func NewReservationReadStore(dbtx db.DBTX, loc *time.Location) *ReservationReadStore {
	return &ReservationReadStore{
		db:  dbtx,
		loc: loc,
	}
}

func (r *ReservationReadStore) FindByReference(ctx context.Context, reference string) (*reservation.Reservation, error) {
	return r.findOne(ctx, sq.Eq{"reference": reference})
}

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *ReservationReadStore) List(ctx context.Context, q queries.ListQuery) ([]*reservation.Reservation, error) {
	sql, args, err := buildListQuery(q, r.loc).ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build reservation list query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
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

func buildListQuery(q queries.ListQuery, loc *time.Location) sq.SelectBuilder {
	builder := psql.Select(converter.ReservationColumns).
		From("reservations").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(q.Limit))

	if q.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*q.Status)})
	}
	if q.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"requested_date": pgconv.DateToPgtype(q.DateFrom.In(loc))})
	}
	if q.DateTo != nil {
		builder = builder.Where(sq.LtOrEq{"requested_date": pgconv.DateToPgtype(q.DateTo.In(loc))})
	}
	if q.AfterCreatedAt != nil && q.AfterID != nil {
		builder = builder.Where(sq.Expr("(created_at, id) < (?, ?)", pgconv.TimeToPgtype(*q.AfterCreatedAt), *q.AfterID))
	}
	return builder
}

func (r *ReservationReadStore) findOne(ctx context.Context, pred sq.Sqlizer) (*reservation.Reservation, error) {
	sql, args, err := psql.Select(converter.ReservationColumns).From("reservations").Where(pred).ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build reservation query", err)
	}

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
