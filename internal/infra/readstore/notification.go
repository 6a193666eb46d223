package readstore

import (
	"context"

	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/pkg/pgconv"
	"mechanic-booking/internal/usecase/queries"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ListAlertJobs returns outbox jobs for topic, newest first.
func (r *ReservationReadStore) ListAlertJobs(ctx context.Context, topic string, limit int) ([]*queries.ReconciliationAlertView, error) {
	sql, args, err := psql.Select("id", "reservation_id", "payload", "status", "created_at").
		From("notification_jobs").
		Where(sq.Eq{"topic": topic}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build alert query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list alert jobs", err)
	}
	defer rows.Close()

	result := []*queries.ReconciliationAlertView{}
	for rows.Next() {
		var (
			id            uuid.UUID
			reservationID pgtype.UUID
			payload       []byte
			status        string
			createdAt     pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &reservationID, &payload, &status, &createdAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan alert job", err)
		}
		result = append(result, &queries.ReconciliationAlertView{
			ID:            id,
			ReservationID: pgconv.UUIDPtrFromPgtype(reservationID),
			Payload:       payload,
			Status:        status,
			CreatedAt:     pgconv.TimeFromPgtype(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate alert jobs", err)
	}
	return result, nil
}
