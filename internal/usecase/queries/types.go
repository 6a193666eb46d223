package queries

import (
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"

	"github.com/google/uuid"
)

type LineItemView struct {
	Kind        string `json:"kind"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amountCents"`
}

// ReservationView is what the customer may see, looked up by reference.
type ReservationView struct {
	Reference       string         `json:"reference"`
	Status          string         `json:"status"`
	Service         string         `json:"service"`
	AddOns          []string       `json:"addOns"`
	Date            string         `json:"date"`
	SlotStart       *time.Time     `json:"slotStart,omitempty"`
	SlotEnd         *time.Time     `json:"slotEnd,omitempty"`
	PreferredWindow string         `json:"preferredWindow,omitempty"`
	Weekend         bool           `json:"weekend"`
	TotalCents      int64          `json:"totalCents"`
	Currency        string         `json:"currency"`
	Breakdown       []LineItemView `json:"breakdown"`
	HoldExpiresAt   *time.Time     `json:"holdExpiresAt,omitempty"`
	CheckoutURL     string         `json:"checkoutUrl,omitempty"`
}

// OperatorReservationView adds customer and payment details for the back office.
type OperatorReservationView struct {
	ReservationView
	ID               uuid.UUID      `json:"id"`
	Details          map[string]any `json:"details"`
	CustomerName     string         `json:"customerName"`
	CustomerPhone    string         `json:"customerPhone"`
	CustomerEmail    string         `json:"customerEmail"`
	CustomerAddress  string         `json:"customerAddress"`
	Vehicle          string         `json:"vehicle"`
	RequiresApproval bool           `json:"requiresApproval"`
	GatewaySessionID string         `json:"gatewaySessionId,omitempty"`
	PaymentReference string         `json:"paymentReference,omitempty"`
	CancelReason     string         `json:"cancelReason,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type ReconciliationAlertView struct {
	ID            uuid.UUID  `json:"id"`
	ReservationID *uuid.UUID `json:"reservationId,omitempty"`
	Payload       []byte     `json:"payload"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type SlotView struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Label     string    `json:"label"`
	Available bool      `json:"available"`
}

type DayAvailabilityView struct {
	Date    string     `json:"date"`
	Weekend bool       `json:"weekend"`
	Policy  string     `json:"policy,omitempty"`
	Slots   []SlotView `json:"slots"`
}

type ServiceView struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	PriceCents      int64  `json:"priceCents"`
	DepositOnly     bool   `json:"depositOnly"`
	DurationMinutes int    `json:"durationMinutes"`
}

type AddOnView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	PriceCents       int64  `json:"priceCents"`
	RequiresApproval bool   `json:"requiresApproval"`
}

type CatalogView struct {
	Currency              string        `json:"currency"`
	Services              []ServiceView `json:"services"`
	AddOns                []AddOnView   `json:"addOns"`
	WeekendSurchargeCents int64         `json:"weekendSurchargeCents"`
}

// ListFilter narrows the operator listing. Zero values mean "any".
type ListFilter struct {
	Status   *reservation.Status
	DateFrom *time.Time
	DateTo   *time.Time
	After    *Cursor
	Limit    int
}

func NewReservationView(res *reservation.Reservation) ReservationView {
	view := ReservationView{
		Reference:       res.Reference(),
		Status:          res.Status().String(),
		Service:         res.ServiceType().String(),
		AddOns:          addOnStrings(res.AddOns()),
		Date:            res.RequestedDate().Format(calendar.DateLayout),
		PreferredWindow: res.PreferredWindow(),
		Weekend:         res.IsWeekend(),
		TotalCents:      res.TotalPrice().Cents(),
		Currency:        res.Currency(),
		Breakdown:       lineItemViews(res.Breakdown()),
		HoldExpiresAt:   res.HoldExpiresAt(),
	}
	if slot := res.Slot(); slot != nil {
		start, end := slot.Start(), slot.End()
		view.SlotStart = &start
		view.SlotEnd = &end
	}
	if res.Status() == reservation.StatusHeld {
		view.CheckoutURL = res.CheckoutURL()
	}
	return view
}

func NewOperatorReservationView(res *reservation.Reservation) *OperatorReservationView {
	customer := res.Customer()
	return &OperatorReservationView{
		ReservationView:  NewReservationView(res),
		ID:               res.ID(),
		Details:          detailsMap(res.Details()),
		CustomerName:     customer.Name,
		CustomerPhone:    customer.Phone,
		CustomerEmail:    customer.Email,
		CustomerAddress:  customer.Address,
		Vehicle:          customer.Vehicle,
		RequiresApproval: res.RequiresApproval(),
		GatewaySessionID: res.GatewaySessionID(),
		PaymentReference: res.PaymentReference(),
		CancelReason:     res.CancelReason(),
		CreatedAt:        res.CreatedAt(),
		UpdatedAt:        res.UpdatedAt(),
	}
}

func NewCatalogView(catalog *pricing.Catalog, currency string) CatalogView {
	view := CatalogView{
		Currency:              currency,
		WeekendSurchargeCents: catalog.WeekendSurcharge().Cents(),
	}
	for _, svc := range catalog.Services() {
		view.Services = append(view.Services, ServiceView{
			Type:            svc.Type.String(),
			Name:            svc.Name,
			PriceCents:      svc.Price.Cents(),
			DepositOnly:     svc.DepositOnly,
			DurationMinutes: int(svc.Duration.Minutes()),
		})
	}
	for _, a := range catalog.AddOns() {
		view.AddOns = append(view.AddOns, AddOnView{
			ID:               a.ID.String(),
			Name:             a.Name,
			PriceCents:       a.Price.Cents(),
			RequiresApproval: a.RequiresApproval,
		})
	}
	return view
}

func lineItemViews(items []pricing.LineItem) []LineItemView {
	out := make([]LineItemView, 0, len(items))
	for _, it := range items {
		out = append(out, LineItemView{
			Kind:        string(it.Kind),
			Code:        it.Code,
			Label:       it.Label,
			AmountCents: it.Amount.Cents(),
		})
	}
	return out
}

func addOnStrings(ids []pricing.AddOnID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func detailsMap(d reservation.ServiceDetails) map[string]any {
	switch v := d.(type) {
	case reservation.DiagnosticDetails:
		return map[string]any{"symptoms": v.Symptoms, "warningLightsOn": v.WarningLightsOn, "vehicleStarts": v.VehicleStarts}
	case reservation.InspectionDetails:
		return map[string]any{"listingUrl": v.ListingURL, "sellerName": v.SellerName, "sellerPhone": v.SellerPhone}
	case reservation.RepairDetails:
		return map[string]any{"description": v.Description, "partsSupplied": v.PartsSupplied}
	default:
		return map[string]any{}
	}
}
