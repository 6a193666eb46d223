package response

import (
	"encoding/json"
	"time"

	"mechanic-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// OperatorReservationResponse is flat; copier lifts the embedded view fields.
type OperatorReservationResponse struct {
	ID               uuid.UUID          `json:"id"`
	Reference        string             `json:"reference"`
	Status           string             `json:"status"`
	Service          string             `json:"service"`
	Details          map[string]any     `json:"details"`
	AddOns           []string           `json:"addOns"`
	Date             string             `json:"date"`
	SlotStart        *time.Time         `json:"slotStart,omitempty"`
	SlotEnd          *time.Time         `json:"slotEnd,omitempty"`
	PreferredWindow  string             `json:"preferredWindow,omitempty"`
	Weekend          bool               `json:"weekend"`
	RequiresApproval bool               `json:"requiresApproval"`
	TotalCents       int64              `json:"totalCents"`
	Currency         string             `json:"currency"`
	Breakdown        []LineItemResponse `json:"breakdown"`
	HoldExpiresAt    *time.Time         `json:"holdExpiresAt,omitempty"`
	CustomerName     string             `json:"customerName"`
	CustomerPhone    string             `json:"customerPhone"`
	CustomerEmail    string             `json:"customerEmail"`
	CustomerAddress  string             `json:"customerAddress"`
	Vehicle          string             `json:"vehicle"`
	GatewaySessionID string             `json:"gatewaySessionId,omitempty"`
	PaymentReference string             `json:"paymentReference,omitempty"`
	CancelReason     string             `json:"cancelReason,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

type ReservationListResponse struct {
	Items      []*OperatorReservationResponse `json:"items"`
	NextCursor string                         `json:"nextCursor,omitempty"`
}

type ReconciliationAlertResponse struct {
	ID            uuid.UUID       `json:"id"`
	ReservationID *uuid.UUID      `json:"reservationId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func FromOperatorView(v *queries.OperatorReservationView) (*OperatorReservationResponse, error) {
	var out OperatorReservationResponse
	if err := copier.Copy(&out, v); err != nil {
		return nil, err
	}
	return &out, nil
}

func FromOperatorList(views []*queries.OperatorReservationView, next *queries.Cursor) (*ReservationListResponse, error) {
	out := &ReservationListResponse{Items: make([]*OperatorReservationResponse, 0, len(views))}
	for _, v := range views {
		item, err := FromOperatorView(v)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, item)
	}
	if next != nil {
		out.NextCursor = next.After
	}
	return out, nil
}

func FromAlerts(views []*queries.ReconciliationAlertView) []*ReconciliationAlertResponse {
	out := make([]*ReconciliationAlertResponse, 0, len(views))
	for _, v := range views {
		out = append(out, &ReconciliationAlertResponse{
			ID:            v.ID,
			ReservationID: v.ReservationID,
			Payload:       json.RawMessage(v.Payload),
			Status:        v.Status,
			CreatedAt:     v.CreatedAt,
		})
	}
	return out
}
