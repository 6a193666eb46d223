package converter

import (
	"fmt"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReservationColumns is the column order shared by every reservation SELECT and INSERT.
const ReservationColumns = `id, reference, service_type, service_details, add_ons,
	customer_name, customer_phone, customer_email, customer_address, vehicle,
	requested_date, slot_start, slot_end, preferred_window, is_weekend, requires_approval,
	status, hold_expires_at, gateway_session_id, checkout_url, payment_reference,
	total_price_cents, currency, price_breakdown, cancel_reason, created_at, updated_at`

type ReservationRow struct {
	ID               uuid.UUID
	Reference        string
	ServiceType      string
	ServiceDetails   []byte
	AddOns           []string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	CustomerAddress  string
	Vehicle          string
	RequestedDate    pgtype.Date
	SlotStart        pgtype.Timestamptz
	SlotEnd          pgtype.Timestamptz
	PreferredWindow  pgtype.Text
	IsWeekend        bool
	RequiresApproval bool
	Status           string
	HoldExpiresAt    pgtype.Timestamptz
	GatewaySessionID pgtype.Text
	CheckoutURL      pgtype.Text
	PaymentReference pgtype.Text
	TotalPriceCents  int64
	Currency         string
	PriceBreakdown   []byte
	CancelReason     pgtype.Text
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

// ScanTargets matches ReservationColumns.
func (r *ReservationRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.Reference, &r.ServiceType, &r.ServiceDetails, &r.AddOns,
		&r.CustomerName, &r.CustomerPhone, &r.CustomerEmail, &r.CustomerAddress, &r.Vehicle,
		&r.RequestedDate, &r.SlotStart, &r.SlotEnd, &r.PreferredWindow, &r.IsWeekend, &r.RequiresApproval,
		&r.Status, &r.HoldExpiresAt, &r.GatewaySessionID, &r.CheckoutURL, &r.PaymentReference,
		&r.TotalPriceCents, &r.Currency, &r.PriceBreakdown, &r.CancelReason, &r.CreatedAt, &r.UpdatedAt,
	}
}

// Values matches ReservationColumns.
func (r *ReservationRow) Values() []any {
	return []any{
		r.ID, r.Reference, r.ServiceType, r.ServiceDetails, r.AddOns,
		r.CustomerName, r.CustomerPhone, r.CustomerEmail, r.CustomerAddress, r.Vehicle,
		r.RequestedDate, r.SlotStart, r.SlotEnd, r.PreferredWindow, r.IsWeekend, r.RequiresApproval,
		r.Status, r.HoldExpiresAt, r.GatewaySessionID, r.CheckoutURL, r.PaymentReference,
		r.TotalPriceCents, r.Currency, r.PriceBreakdown, r.CancelReason, r.CreatedAt, r.UpdatedAt,
	}
}

func ReservationToRow(res *reservation.Reservation) (ReservationRow, error) {
	details, err := MarshalDetails(res.Details())
	if err != nil {
		return ReservationRow{}, err
	}
	breakdown, err := MarshalBreakdown(res.Breakdown())
	if err != nil {
		return ReservationRow{}, err
	}

	addOns := make([]string, 0, len(res.AddOns()))
	for _, a := range res.AddOns() {
		addOns = append(addOns, string(a))
	}

	row := ReservationRow{
		ID:               res.ID(),
		Reference:        res.Reference(),
		ServiceType:      res.ServiceType().String(),
		ServiceDetails:   details,
		AddOns:           addOns,
		CustomerName:     res.Customer().Name,
		CustomerPhone:    res.Customer().Phone,
		CustomerEmail:    res.Customer().Email,
		CustomerAddress:  res.Customer().Address,
		Vehicle:          res.Customer().Vehicle,
		RequestedDate:    pgconv.DateToPgtype(res.RequestedDate()),
		PreferredWindow:  pgconv.OptionalText(res.PreferredWindow()),
		IsWeekend:        res.IsWeekend(),
		RequiresApproval: res.RequiresApproval(),
		Status:           res.Status().String(),
		HoldExpiresAt:    pgconv.TimePtrToPgtype(res.HoldExpiresAt()),
		GatewaySessionID: pgconv.OptionalText(res.GatewaySessionID()),
		CheckoutURL:      pgconv.OptionalText(res.CheckoutURL()),
		PaymentReference: pgconv.OptionalText(res.PaymentReference()),
		TotalPriceCents:  res.TotalPrice().Cents(),
		Currency:         res.Currency(),
		PriceBreakdown:   breakdown,
		CancelReason:     pgconv.OptionalText(res.CancelReason()),
		CreatedAt:        pgconv.TimeToPgtype(res.CreatedAt()),
		UpdatedAt:        pgconv.TimeToPgtype(res.UpdatedAt()),
	}
	if slot := res.Slot(); slot != nil {
		row.SlotStart = pgconv.TimeToPgtype(slot.Start())
		row.SlotEnd = pgconv.TimeToPgtype(slot.End())
	}
	return row, nil
}

func RowToReservation(row ReservationRow, loc *time.Location) (*reservation.Reservation, error) {
	status, err := reservation.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", row.ID, err)
	}
	details, err := UnmarshalDetails(pricing.ServiceType(row.ServiceType), row.ServiceDetails)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", row.ID, err)
	}
	breakdown, err := UnmarshalBreakdown(row.PriceBreakdown)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", row.ID, err)
	}
	total, err := pricing.NewMoney(row.TotalPriceCents)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", row.ID, err)
	}

	var slot *calendar.TimeSlot
	if row.SlotStart.Valid && row.SlotEnd.Valid {
		s, err := calendar.NewTimeSlot(row.SlotStart.Time.In(loc), row.SlotEnd.Time.In(loc))
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", row.ID, err)
		}
		slot = &s
	}

	addOns := make([]pricing.AddOnID, 0, len(row.AddOns))
	for _, a := range row.AddOns {
		addOns = append(addOns, pricing.AddOnID(a))
	}

	return reservation.Reconstruct(reservation.ReconstructParams{
		ID:               row.ID,
		Reference:        row.Reference,
		Details:          details,
		AddOns:           addOns,
		Customer:         reservation.NewCustomer(row.CustomerName, row.CustomerPhone, row.CustomerEmail, row.CustomerAddress, row.Vehicle),
		RequestedDate:    pgconv.DateFromPgtype(row.RequestedDate, loc),
		Slot:             slot,
		PreferredWindow:  pgconv.StringFromPgtype(row.PreferredWindow),
		Weekend:          row.IsWeekend,
		RequiresApproval: row.RequiresApproval,
		Status:           status,
		HoldExpiresAt:    pgconv.TimePtrFromPgtype(row.HoldExpiresAt),
		GatewaySessionID: pgconv.StringFromPgtype(row.GatewaySessionID),
		CheckoutURL:      pgconv.StringFromPgtype(row.CheckoutURL),
		PaymentReference: pgconv.StringFromPgtype(row.PaymentReference),
		TotalPrice:       total,
		Currency:         row.Currency,
		Breakdown:        breakdown,
		CancelReason:     pgconv.StringFromPgtype(row.CancelReason),
		CreatedAt:        pgconv.TimeFromPgtype(row.CreatedAt),
		UpdatedAt:        pgconv.TimeFromPgtype(row.UpdatedAt),
	}), nil
}
