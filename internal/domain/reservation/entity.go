package reservation

import (
	"errors"
	"slices"
	"strings"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus          = errors.New("invalid reservation status")
	ErrDetailsMismatch        = errors.New("service details do not match the service type")
	ErrMissingDetails         = errors.New("service details are required")
	ErrSlotRequired           = errors.New("weekday bookings need a fixed slot")
	ErrSlotNotAllowed         = errors.New("weekend requests cannot carry a fixed slot until approval")
	ErrPreferredWindowMissing = errors.New("weekend requests need a preferred window")
	ErrInvalidHoldWindow      = errors.New("hold window must be positive")
	ErrHoldExpired            = errors.New("hold has lapsed")
	ErrCheckoutAlreadyOpen    = errors.New("checkout session already attached")
	ErrMissingPaymentRef      = errors.New("payment reference is required")
)

type Reservation struct {
	id               uuid.UUID
	reference        string
	details          ServiceDetails
	addOns           []pricing.AddOnID
	customer         Customer
	requestedDate    time.Time
	slot             *calendar.TimeSlot
	preferredWindow  string
	weekend          bool
	requiresApproval bool
	status           Status
	holdExpiresAt    *time.Time
	gatewaySessionID string
	checkoutURL      string
	paymentReference string
	totalPrice       pricing.Money
	currency         string
	breakdown        []pricing.LineItem
	cancelReason     string
	createdAt        time.Time
	updatedAt        time.Time
}

type NewHeldParams struct {
	Reference       string
	Details         ServiceDetails
	Customer        Customer
	RequestedDate   time.Time
	Slot            *calendar.TimeSlot
	PreferredWindow string
	Weekend         bool
	Quote           pricing.Quote
	Currency        string
}

// NewHeld creates a reservation in HELD that lapses at now+holdWindow.
// Weekend requests carry a preferred window and no slot.
func NewHeld(p NewHeldParams, now time.Time, holdWindow time.Duration) (*Reservation, error) {
	if p.Details == nil {
		return nil, ErrMissingDetails
	}
	if p.Details.ServiceType() != p.Quote.Service {
		return nil, ErrDetailsMismatch
	}
	if holdWindow <= 0 {
		return nil, ErrInvalidHoldWindow
	}
	window := strings.TrimSpace(p.PreferredWindow)
	if p.Weekend {
		if p.Slot != nil {
			return nil, ErrSlotNotAllowed
		}
		if window == "" {
			return nil, ErrPreferredWindowMissing
		}
	} else {
		if p.Slot == nil {
			return nil, ErrSlotRequired
		}
		window = ""
	}

	expires := now.Add(holdWindow)
	return &Reservation{
		id:               uuid.New(),
		reference:        p.Reference,
		details:          p.Details,
		addOns:           pricing.SortedAddOnIDs(p.Quote.AddOns),
		customer:         p.Customer,
		requestedDate:    p.RequestedDate,
		slot:             p.Slot,
		preferredWindow:  window,
		weekend:          p.Weekend,
		requiresApproval: p.Quote.RequiresApproval,
		status:           StatusHeld,
		holdExpiresAt:    &expires,
		totalPrice:       p.Quote.Total,
		currency:         p.Currency,
		breakdown:        slices.Clone(p.Quote.Breakdown),
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

type ReconstructParams struct {
	ID               uuid.UUID
	Reference        string
	Details          ServiceDetails
	AddOns           []pricing.AddOnID
	Customer         Customer
	RequestedDate    time.Time
	Slot             *calendar.TimeSlot
	PreferredWindow  string
	Weekend          bool
	RequiresApproval bool
	Status           Status
	HoldExpiresAt    *time.Time
	GatewaySessionID string
	CheckoutURL      string
	PaymentReference string
	TotalPrice       pricing.Money
	Currency         string
	Breakdown        []pricing.LineItem
	CancelReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func Reconstruct(p ReconstructParams) *Reservation {
	return &Reservation{
		id:               p.ID,
		reference:        p.Reference,
		details:          p.Details,
		addOns:           p.AddOns,
		customer:         p.Customer,
		requestedDate:    p.RequestedDate,
		slot:             p.Slot,
		preferredWindow:  p.PreferredWindow,
		weekend:          p.Weekend,
		requiresApproval: p.RequiresApproval,
		status:           p.Status,
		holdExpiresAt:    p.HoldExpiresAt,
		gatewaySessionID: p.GatewaySessionID,
		checkoutURL:      p.CheckoutURL,
		paymentReference: p.PaymentReference,
		totalPrice:       p.TotalPrice,
		currency:         p.Currency,
		breakdown:        p.Breakdown,
		cancelReason:     p.CancelReason,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
	}
}

// Clone returns a deep copy; callers may mutate it without touching the original.
func (r *Reservation) Clone() *Reservation {
	c := *r
	c.addOns = slices.Clone(r.addOns)
	c.breakdown = slices.Clone(r.breakdown)
	if r.slot != nil {
		s := *r.slot
		c.slot = &s
	}
	if r.holdExpiresAt != nil {
		t := *r.holdExpiresAt
		c.holdExpiresAt = &t
	}
	return &c
}

func (r *Reservation) ID() uuid.UUID                    { return r.id }
func (r *Reservation) Reference() string                { return r.reference }
func (r *Reservation) ServiceType() pricing.ServiceType { return r.details.ServiceType() }
func (r *Reservation) Details() ServiceDetails          { return r.details }
func (r *Reservation) AddOns() []pricing.AddOnID        { return slices.Clone(r.addOns) }
func (r *Reservation) Customer() Customer               { return r.customer }
func (r *Reservation) RequestedDate() time.Time         { return r.requestedDate }
func (r *Reservation) Slot() *calendar.TimeSlot         { return r.slot }
func (r *Reservation) PreferredWindow() string          { return r.preferredWindow }
func (r *Reservation) IsWeekend() bool                  { return r.weekend }
func (r *Reservation) RequiresApproval() bool           { return r.requiresApproval }
func (r *Reservation) Status() Status                   { return r.status }
func (r *Reservation) HoldExpiresAt() *time.Time        { return r.holdExpiresAt }
func (r *Reservation) GatewaySessionID() string         { return r.gatewaySessionID }
func (r *Reservation) CheckoutURL() string              { return r.checkoutURL }
func (r *Reservation) PaymentReference() string         { return r.paymentReference }
func (r *Reservation) TotalPrice() pricing.Money        { return r.totalPrice }
func (r *Reservation) Currency() string                 { return r.currency }
func (r *Reservation) Breakdown() []pricing.LineItem    { return slices.Clone(r.breakdown) }
func (r *Reservation) CancelReason() string             { return r.cancelReason }
func (r *Reservation) CreatedAt() time.Time             { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time             { return r.updatedAt }

// NeedsApproval is true when payment alone cannot confirm the booking.
func (r *Reservation) NeedsApproval() bool {
	return r.weekend || r.requiresApproval
}

// IsHoldExpired is true for a HELD record strictly past its expiry.
func (r *Reservation) IsHoldExpired(now time.Time) bool {
	return r.status == StatusHeld && r.holdExpiresAt != nil && r.holdExpiresAt.Before(now)
}

// Occupies reports whether the record blocks its slot at the given instant.
// A lapsed hold is free even before the sweeper marks it.
func (r *Reservation) Occupies(now time.Time) bool {
	if r.slot == nil {
		return false
	}
	switch r.status {
	case StatusConfirmed, StatusPendingWeekendApproval:
		return true
	case StatusHeld:
		return !r.IsHoldExpired(now)
	default:
		return false
	}
}

// Confirm records payment. It reports whether the status changed; repeats on
// an already-paid record are no-ops.
func (r *Reservation) Confirm(paymentReference string, now time.Time) (bool, error) {
	if strings.TrimSpace(paymentReference) == "" {
		return false, ErrMissingPaymentRef
	}
	switch r.status {
	case StatusConfirmed, StatusPendingWeekendApproval:
		return false, nil
	case StatusCancelled:
		return false, errs.ErrAlreadyCancelled
	case StatusExpired:
		return false, errs.ErrAlreadyExpired
	}
	if r.IsHoldExpired(now) {
		return false, ErrHoldExpired
	}

	if r.NeedsApproval() {
		r.status = StatusPendingWeekendApproval
	} else {
		r.status = StatusConfirmed
	}
	r.paymentReference = paymentReference
	r.holdExpiresAt = nil
	r.updatedAt = now
	return true, nil
}

func (r *Reservation) Expire(now time.Time) error {
	if !r.IsHoldExpired(now) {
		return errs.Mark(errs.Newf("cannot expire %s reservation", r.status), errs.ErrInvalidTransition)
	}
	r.status = StatusExpired
	r.holdExpiresAt = nil
	r.updatedAt = now
	return nil
}

func (r *Reservation) Cancel(reason string, now time.Time) error {
	switch r.status {
	case StatusCancelled:
		return errs.ErrAlreadyCancelled
	case StatusExpired:
		return errs.ErrAlreadyExpired
	}
	r.status = StatusCancelled
	r.cancelReason = strings.TrimSpace(reason)
	r.holdExpiresAt = nil
	r.updatedAt = now
	return nil
}

// Approve confirms a paid booking awaiting operator review. Weekend requests
// may have their slot pinned here.
func (r *Reservation) Approve(slot *calendar.TimeSlot, now time.Time) error {
	switch r.status {
	case StatusPendingWeekendApproval:
	case StatusCancelled:
		return errs.ErrAlreadyCancelled
	case StatusExpired:
		return errs.ErrAlreadyExpired
	default:
		return errs.Mark(errs.Newf("cannot approve %s reservation", r.status), errs.ErrInvalidTransition)
	}
	if slot != nil {
		if !r.weekend {
			return ErrSlotNotAllowed
		}
		r.slot = slot
	}
	r.status = StatusConfirmed
	r.updatedAt = now
	return nil
}

func (r *Reservation) AttachCheckout(sessionID, checkoutURL string, now time.Time) error {
	if r.status != StatusHeld {
		return errs.Mark(errs.Newf("cannot open checkout for %s reservation", r.status), errs.ErrInvalidTransition)
	}
	if r.gatewaySessionID != "" {
		return ErrCheckoutAlreadyOpen
	}
	r.gatewaySessionID = sessionID
	r.checkoutURL = checkoutURL
	r.updatedAt = now
	return nil
}
