package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/reservation.go -package=queriesmock

import (
	"context"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type ReservationQueries interface {
	GetByReference(ctx context.Context, reference string) (*ReservationView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*OperatorReservationView, error)
	List(ctx context.Context, filter ListFilter) ([]*OperatorReservationView, *Cursor, error)
	ListReconciliationAlerts(ctx context.Context, limit int) ([]*ReconciliationAlertView, error)
}

// ListQuery is the resolved form of ListFilter handed to the read store.
type ListQuery struct {
	Status         *reservation.Status
	DateFrom       *time.Time
	DateTo         *time.Time
	AfterCreatedAt *time.Time
	AfterID        *uuid.UUID
	Limit          int
}

type ReservationReadStore interface {
	FindByReference(ctx context.Context, reference string) (*reservation.Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	List(ctx context.Context, q ListQuery) ([]*reservation.Reservation, error)
	ListAlertJobs(ctx context.Context, topic string, limit int) ([]*ReconciliationAlertView, error)
}

type reservationQueriesImpl struct {
	store      ReservationReadStore
	alertTopic string
}

func NewReservationQueries(store ReservationReadStore, alertTopic string) ReservationQueries {
	return &reservationQueriesImpl{store: store, alertTopic: alertTopic}
}

func (q *reservationQueriesImpl) GetByReference(ctx context.Context, reference string) (*ReservationView, error) {
	if !reservation.IsReference(reference) {
		return nil, errs.Wrapf(errs.ErrNotFound, "reference %q", reference)
	}
	res, err := q.store.FindByReference(ctx, reference)
	if err != nil {
		return nil, mapReadErr(err)
	}
	view := NewReservationView(res)
	return &view, nil
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*OperatorReservationView, error) {
	res, err := q.store.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return NewOperatorReservationView(res), nil
}

// List pages newest first. The returned cursor is nil on the last page.
func (q *reservationQueriesImpl) List(ctx context.Context, filter ListFilter) ([]*OperatorReservationView, *Cursor, error) {
	limit := ValidateLimit(filter.Limit)
	query := ListQuery{
		Status:   filter.Status,
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		// one extra row tells us whether another page exists
		Limit: limit + 1,
	}
	if filter.After != nil && filter.After.After != "" {
		createdAt, id, err := DecodeAfterCursor(filter.After.After)
		if err != nil {
			return nil, nil, errs.Mark(err, errs.ErrValidation)
		}
		query.AfterCreatedAt = &createdAt
		query.AfterID = &id
	}

	rows, err := q.store.List(ctx, query)
	if err != nil {
		return nil, nil, mapReadErr(err)
	}

	var next *Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt(), last.ID())}
	}

	out := make([]*OperatorReservationView, len(rows))
	for i, res := range rows {
		out[i] = NewOperatorReservationView(res)
	}
	return out, next, nil
}

func (q *reservationQueriesImpl) ListReconciliationAlerts(ctx context.Context, limit int) ([]*ReconciliationAlertView, error) {
	alerts, err := q.store.ListAlertJobs(ctx, q.alertTopic, ValidateLimit(limit))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return alerts, nil
}

func mapReadErr(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrNotFound)
	}
	return errs.Mark(err, errs.ErrDatabaseOperationFailed)
}
