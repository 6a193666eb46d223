package shared

import (
	"time"

	"github.com/google/uuid"
)

const (
	IdempotencyProcessing = "processing"
	IdempotencyCompleted  = "completed"
)

type IdempotencyRecord struct {
	Key                 uuid.UUID
	Endpoint            string
	Status              string
	RequestHash         string
	ResultReservationID *uuid.UUID
	ExpiresAt           time.Time
}

const (
	JobKindEmail    = "email"
	JobKindOperator = "operator"

	TopicBookingHeld            = "booking_held"
	TopicBookingConfirmed       = "booking_confirmed"
	TopicBookingPendingApproval = "booking_pending_approval"
	TopicBookingCancelled       = "booking_cancelled"
	TopicReconciliationRequired = "reconciliation_required"
)

type NotificationJob struct {
	ID            uuid.UUID
	Kind          string
	Topic         string
	ReservationID *uuid.UUID
	Payload       []byte
	Status        string
	RunAt         time.Time
	CreatedAt     time.Time
}
