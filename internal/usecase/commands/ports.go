package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/ports.go -package=commandsmock

import (
	"context"
	"time"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"

	"github.com/google/uuid"
)

// CheckoutRequest is everything the gateway needs to open a hosted payment page.
type CheckoutRequest struct {
	ReservationID uuid.UUID
	Reference     string
	CustomerEmail string
	Currency      string
	LineItems     []pricing.LineItem
	Total         pricing.Money
	ExpiresAt     time.Time
}

type CheckoutSession struct {
	SessionID string
	URL       string
	ExpiresAt time.Time
}

type GatewayEventType string

const (
	EventPaymentSucceeded GatewayEventType = "payment_succeeded"
	EventCheckoutExpired  GatewayEventType = "checkout_expired"
	EventIgnored          GatewayEventType = "ignored"
)

// GatewayEvent is a verified webhook event reduced to what the bridge acts on.
type GatewayEvent struct {
	ID               string
	Type             GatewayEventType
	RawType          string
	SessionID        string
	PaymentReference string
	Metadata         map[string]string
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// VerifyWebhook authenticates payload against signature. Any failure is ErrSignatureInvalid.
	VerifyWebhook(payload []byte, signature string) (*GatewayEvent, error)
}

type NotifyResult struct {
	OwnerNotified    bool
	CustomerNotified bool
}

// ReconciliationAlert describes money taken for a reservation that can no longer be honoured.
type ReconciliationAlert struct {
	ReservationID    uuid.UUID
	Reference        string
	Status           reservation.Status
	SessionID        string
	PaymentReference string
	Amount           pricing.Money
	Currency         string
	DetectedAt       time.Time
}

type Notifier interface {
	Notify(ctx context.Context, res *reservation.Reservation) (NotifyResult, error)
	AlertReconciliation(ctx context.Context, alert ReconciliationAlert) error
}

type ClaimState string

const (
	ClaimAcquired ClaimState = "acquired"
	ClaimInFlight ClaimState = "in_flight"
	ClaimDone     ClaimState = "done"
)

// EventDeduper remembers processed gateway event ids. A claim is a short
// lease; only Complete records the event for the long retention window.
type EventDeduper interface {
	Claim(ctx context.Context, eventID string) (ClaimState, error)
	Complete(ctx context.Context, eventID string) error
	Release(ctx context.Context, eventID string) error
}
