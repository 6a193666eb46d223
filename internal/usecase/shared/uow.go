package shared

import (
	"context"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/reservation"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reservations: Single statements on the pool, outside any transaction
	Reservations() ReservationRepository
}

type Tx interface {
	Reservations() ReservationRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
}

type ReservationRepository interface {
	Insert(ctx context.Context, res *reservation.Reservation) error
	// Update writes res only if the stored status still equals expected.
	Update(ctx context.Context, res *reservation.Reservation, expected reservation.Status) error
	FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*reservation.Reservation, error)
	FindBySessionID(ctx context.Context, sessionID string, forUpdate bool) (*reservation.Reservation, error)
	FindByReference(ctx context.Context, reference string) (*reservation.Reservation, error)
	ListLiveOverlapping(ctx context.Context, slot calendar.TimeSlot, now time.Time) ([]*reservation.Reservation, error)
	CountLiveOnDate(ctx context.Context, date time.Time, now time.Time) (int, error)
	// LockDate serializes writers for one calendar day until the transaction ends.
	LockDate(ctx context.Context, date time.Time) error
	ExpireOverlappingStale(ctx context.Context, slot calendar.TimeSlot, now time.Time) (int64, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, key uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key uuid.UUID) (*IdempotencyRecord, error)
	ClaimExpired(ctx context.Context, key uuid.UUID, requestHash string, now, expiresAt time.Time) (int64, error)
	MarkCompleted(ctx context.Context, key uuid.UUID, reservationID uuid.UUID) error
	Release(ctx context.Context, key uuid.UUID) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, job NotificationJob) error
}
