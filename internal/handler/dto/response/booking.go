package response

import (
	"time"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/pkg/ptr"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type LineItemResponse struct {
	Kind        string `json:"kind"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amountCents"`
}

type BookingResponse struct {
	ReservationID    uuid.UUID          `json:"reservationId"`
	Reference        string             `json:"reference"`
	Status           string             `json:"status"`
	CheckoutURL      string             `json:"checkoutUrl,omitempty"`
	HoldExpiresAt    *time.Time         `json:"holdExpiresAt,omitempty"`
	SlotStart        *time.Time         `json:"slotStart,omitempty"`
	SlotEnd          *time.Time         `json:"slotEnd,omitempty"`
	TotalCents       int64              `json:"totalCents"`
	Currency         string             `json:"currency"`
	DepositOnly      bool               `json:"depositOnly"`
	RequiresApproval bool               `json:"requiresApproval"`
	Breakdown        []LineItemResponse `json:"breakdown"`
}

func FromSubmitResult(r *commands.SubmitResult) *BookingResponse {
	res := r.Reservation
	out := &BookingResponse{
		ReservationID:    res.ID(),
		Reference:        res.Reference(),
		Status:           res.Status().String(),
		CheckoutURL:      r.CheckoutURL,
		HoldExpiresAt:    res.HoldExpiresAt(),
		TotalCents:       res.TotalPrice().Cents(),
		Currency:         res.Currency(),
		DepositOnly:      r.Quote.DepositOnly,
		RequiresApproval: res.NeedsApproval(),
		Breakdown:        fromLineItems(res.Breakdown()),
	}
	if slot := res.Slot(); slot != nil {
		out.SlotStart = ptr.Of(slot.Start())
		out.SlotEnd = ptr.Of(slot.End())
	}
	return out
}

type QuoteResponse struct {
	Service          string             `json:"service"`
	AddOns           []string           `json:"addOns"`
	TotalCents       int64              `json:"totalCents"`
	Currency         string             `json:"currency"`
	DepositOnly      bool               `json:"depositOnly"`
	RequiresApproval bool               `json:"requiresApproval"`
	DurationMinutes  int                `json:"durationMinutes"`
	Breakdown        []LineItemResponse `json:"breakdown"`
}

func FromQuote(q pricing.Quote, currency string) *QuoteResponse {
	addOns := make([]string, 0, len(q.AddOns))
	for _, a := range q.AddOns {
		addOns = append(addOns, a.String())
	}
	return &QuoteResponse{
		Service:          q.Service.String(),
		AddOns:           addOns,
		TotalCents:       q.Total.Cents(),
		Currency:         currency,
		DepositOnly:      q.DepositOnly,
		RequiresApproval: q.RequiresApproval,
		DurationMinutes:  int(q.Duration.Minutes()),
		Breakdown:        fromLineItems(q.Breakdown),
	}
}

type ReservationResponse struct {
	Reference       string             `json:"reference"`
	Status          string             `json:"status"`
	Service         string             `json:"service"`
	AddOns          []string           `json:"addOns"`
	Date            string             `json:"date"`
	SlotStart       *time.Time         `json:"slotStart,omitempty"`
	SlotEnd         *time.Time         `json:"slotEnd,omitempty"`
	PreferredWindow string             `json:"preferredWindow,omitempty"`
	Weekend         bool               `json:"weekend"`
	TotalCents      int64              `json:"totalCents"`
	Currency        string             `json:"currency"`
	Breakdown       []LineItemResponse `json:"breakdown"`
	HoldExpiresAt   *time.Time         `json:"holdExpiresAt,omitempty"`
	CheckoutURL     string             `json:"checkoutUrl,omitempty"`
}

func FromReservationView(v *queries.ReservationView) (*ReservationResponse, error) {
	var out ReservationResponse
	if err := copier.Copy(&out, v); err != nil {
		return nil, err
	}
	return &out, nil
}

type SlotResponse struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Label     string    `json:"label"`
	Available bool      `json:"available"`
}

type AvailabilityResponse struct {
	Date    string         `json:"date"`
	Weekend bool           `json:"weekend"`
	Policy  string         `json:"policy,omitempty"`
	Slots   []SlotResponse `json:"slots"`
}

func FromDayAvailability(v *queries.DayAvailabilityView) (*AvailabilityResponse, error) {
	out := AvailabilityResponse{Slots: []SlotResponse{}}
	if err := copier.Copy(&out, v); err != nil {
		return nil, err
	}
	return &out, nil
}

type CatalogResponse struct {
	Currency              string                   `json:"currency"`
	Services              []CatalogServiceResponse `json:"services"`
	AddOns                []CatalogAddOnResponse   `json:"addOns"`
	WeekendSurchargeCents int64                    `json:"weekendSurchargeCents"`
}

type CatalogServiceResponse struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	PriceCents      int64  `json:"priceCents"`
	DepositOnly     bool   `json:"depositOnly"`
	DurationMinutes int    `json:"durationMinutes"`
}

type CatalogAddOnResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	PriceCents       int64  `json:"priceCents"`
	RequiresApproval bool   `json:"requiresApproval"`
}

func FromCatalogView(v queries.CatalogView) (*CatalogResponse, error) {
	var out CatalogResponse
	if err := copier.Copy(&out, &v); err != nil {
		return nil, err
	}
	return &out, nil
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

func fromLineItems(items []pricing.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, LineItemResponse{
			Kind:        string(it.Kind),
			Code:        it.Code,
			Label:       it.Label,
			AmountCents: it.Amount.Cents(),
		})
	}
	return out
}
