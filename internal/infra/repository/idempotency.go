package repository

import (
	"context"
	"time"

	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/infra/db"
	"mechanic-booking/internal/pkg/pgconv"
	"mechanic-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{
		db: dbtx,
	}
}

// TryInsert reports whether this call created the key.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, key uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
INSERT INTO idempotency_keys (key, endpoint, request_hash, status, expires_at)
VALUES ($1, $2, $3, 'processing', $4)
ON CONFLICT (key) DO NOTHING`, key, endpoint, requestHash, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		rec      shared.IdempotencyRecord
		resultID pgtype.UUID
		expires  pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, `
SELECT key, endpoint, status, request_hash, result_reservation_id, expires_at
FROM idempotency_keys WHERE key = $1`, key).
		Scan(&rec.Key, &rec.Endpoint, &rec.Status, &rec.RequestHash, &resultID, &expires)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	rec.ResultReservationID = pgconv.UUIDPtrFromPgtype(resultID)
	rec.ExpiresAt = pgconv.TimeFromPgtype(expires)
	return &rec, nil
}

// ClaimExpired restarts a lapsed key for a new request.
func (r *IdempotencyRepository) ClaimExpired(ctx context.Context, key uuid.UUID, requestHash string, now, expiresAt time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE idempotency_keys
SET request_hash = $2, status = 'processing', result_reservation_id = NULL, expires_at = $4, updated_at = $3
WHERE key = $1 AND expires_at < $3`, key, requestHash, now, expiresAt)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to claim expired idempotency key", err)
	}
	return tag.RowsAffected(), nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key uuid.UUID, reservationID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
UPDATE idempotency_keys
SET status = 'completed', result_reservation_id = $2, updated_at = now()
WHERE key = $1 AND status = 'processing'`, key, reservationID)
	if err != nil {
		return infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindStale, "idempotency key is not processing")
	}
	return nil
}

// Release drops an unfinished key so the client can retry with corrected input.
func (r *IdempotencyRepository) Release(ctx context.Context, key uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND status = 'processing'`, key); err != nil {
		return infra.WrapRepoErr("failed to release idempotency key", err)
	}
	return nil
}
