package repository

import (
	"context"

	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/infra/db"
	"mechanic-booking/internal/pkg/pgconv"
	"mechanic-booking/internal/usecase/shared"
)

type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{
		db: dbtx,
	}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, job shared.NotificationJob) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO notification_jobs (kind, topic, reservation_id, payload, status, run_at)
VALUES ($1, $2, $3, $4, 'queued', $5)`,
		job.Kind, job.Topic, pgconv.UUIDPtrToPgtype(job.ReservationID), job.Payload, pgconv.TimeToPgtype(job.RunAt))
	if err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}
