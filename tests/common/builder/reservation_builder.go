//go:build unit || e2e

package builder

import (
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/catalog"

	"github.com/google/uuid"
)

var sydney = mustLocation("Australia/Sydney")

// BaseNow is the Friday morning the unit suites freeze their clocks at.
var BaseNow = time.Date(2025, 3, 7, 8, 0, 0, 0, sydney)

// Monday is the first weekday after BaseNow.
var Monday = time.Date(2025, 3, 10, 0, 0, 0, 0, sydney)

// Saturday is the weekend after BaseNow.
var Saturday = time.Date(2025, 3, 8, 0, 0, 0, 0, sydney)

func Sydney() *time.Location {
	return sydney
}

type ReservationBuilder struct {
	ID               uuid.UUID
	Reference        string
	Details          reservation.ServiceDetails
	AddOns           []pricing.AddOnID
	Customer         reservation.Customer
	Date             time.Time
	SlotStart        *time.Time
	JobDuration      time.Duration
	PreferredWindow  string
	Weekend          bool
	Status           reservation.Status
	HoldExpiresAt    *time.Time
	GatewaySessionID string
	CheckoutURL      string
	PaymentReference string
	CancelReason     string
	Currency         string
	CreatedAt        time.Time
}

// NewReservationBuilder defaults to a live weekday diagnostic hold on Monday 10:00.
func NewReservationBuilder() *ReservationBuilder {
	start := Monday.Add(10 * time.Hour)
	expires := BaseNow.Add(35 * time.Minute)
	return &ReservationBuilder{
		ID:          uuid.New(),
		Reference:   "MM-ABCDEFGH",
		Details:     reservation.DiagnosticDetails{Symptoms: "Rough idle when cold", WarningLightsOn: true, VehicleStarts: true},
		Customer:    reservation.NewCustomer("Sam Lee", "0400 000 000", "sam@example.com", "1 George St, Sydney", "2015 Mazda 3"),
		Date:        Monday,
		SlotStart:   &start,
		JobDuration: 90 * time.Minute,
		Status:      reservation.StatusHeld,
		Currency:    "aud",
		CreatedAt:   BaseNow,
		// a fresh hold
		HoldExpiresAt: &expires,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) WithStatus(status reservation.Status) *ReservationBuilder {
	b.Status = status
	if status != reservation.StatusHeld {
		b.HoldExpiresAt = nil
	}
	if status == reservation.StatusConfirmed || status == reservation.StatusPendingWeekendApproval {
		if b.PaymentReference == "" {
			b.PaymentReference = "pi_test_123"
		}
		if b.GatewaySessionID == "" {
			b.GatewaySessionID = "cs_test_" + b.ID.String()[:8]
		}
	}
	return b
}

// AtSlot moves the visit to start on Monday at the given local clock time.
func (b *ReservationBuilder) AtSlot(hour, minute int) *ReservationBuilder {
	start := time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), hour, minute, 0, 0, sydney)
	b.SlotStart = &start
	return b
}

// AsWeekendRequest turns the builder into an unscheduled Saturday request.
func (b *ReservationBuilder) AsWeekendRequest(window string) *ReservationBuilder {
	b.Date = Saturday
	b.SlotStart = nil
	b.Weekend = true
	b.PreferredWindow = window
	return b
}

func (b *ReservationBuilder) WithSession(sessionID string) *ReservationBuilder {
	b.GatewaySessionID = sessionID
	b.CheckoutURL = "https://checkout.stripe.test/" + sessionID
	return b
}

func (b *ReservationBuilder) Quote() pricing.Quote {
	q, err := pricing.NewEngine(catalog.Default()).CalculateBookingTotal(b.Details.ServiceType(), b.AddOns, b.Weekend)
	if err != nil {
		panic(err)
	}
	return q
}

func (b *ReservationBuilder) BuildDomain() *reservation.Reservation {
	quote := b.Quote()

	var slot *calendar.TimeSlot
	if b.SlotStart != nil {
		s, err := calendar.NewTimeSlot(*b.SlotStart, b.SlotStart.Add(b.JobDuration))
		if err != nil {
			panic(err)
		}
		slot = &s
	}

	return reservation.Reconstruct(reservation.ReconstructParams{
		ID:               b.ID,
		Reference:        b.Reference,
		Details:          b.Details,
		AddOns:           pricing.SortedAddOnIDs(quote.AddOns),
		Customer:         b.Customer,
		RequestedDate:    b.Date,
		Slot:             slot,
		PreferredWindow:  b.PreferredWindow,
		Weekend:          b.Weekend,
		RequiresApproval: quote.RequiresApproval,
		Status:           b.Status,
		HoldExpiresAt:    b.HoldExpiresAt,
		GatewaySessionID: b.GatewaySessionID,
		CheckoutURL:      b.CheckoutURL,
		PaymentReference: b.PaymentReference,
		TotalPrice:       quote.Total,
		Currency:         b.Currency,
		Breakdown:        quote.Breakdown,
		CancelReason:     b.CancelReason,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.CreatedAt,
	})
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
