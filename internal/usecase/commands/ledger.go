package commands

import (
	"context"
	"log/slog"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/pkg/metrics"
	"mechanic-booking/internal/usecase/availability"
	"mechanic-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

// CreateHeldInput is a booking request already decoded from the wire.
type CreateHeldInput struct {
	Service         pricing.ServiceType
	Details         reservation.ServiceDetails
	AddOns          []pricing.AddOnID
	Customer        reservation.Customer
	Date            time.Time
	StartTime       *calendar.ClockTime
	Weekend         bool
	PreferredWindow string
}

type ConfirmResult struct {
	Reservation  *reservation.Reservation
	Transitioned bool
}

// Ledger owns every reservation state transition.
type Ledger struct {
	uow      shared.UnitOfWork
	calendar *calendar.Calendar
	engine   *pricing.Engine
	checker  *availability.Checker
	factory  *reservation.Factory
	clock    clock.Clock
	currency string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type LedgerParams struct {
	UoW      shared.UnitOfWork
	Calendar *calendar.Calendar
	Engine   *pricing.Engine
	Checker  *availability.Checker
	Factory  *reservation.Factory
	Clock    clock.Clock
	Currency string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func NewLedger(p LedgerParams) *Ledger {
	return &Ledger{
		uow:      p.UoW,
		calendar: p.Calendar,
		engine:   p.Engine,
		checker:  p.Checker,
		factory:  p.Factory,
		clock:    p.Clock,
		currency: p.Currency,
		metrics:  p.Metrics,
		logger:   p.Logger,
	}
}

// Prepare validates and prices in, returning an unsaved HELD reservation.
// All field problems are reported together as one *errs.ValidationError.
func (l *Ledger) Prepare(in CreateHeldInput) (*reservation.Reservation, pricing.Quote, error) {
	verr := errs.NewValidationError()
	verr.Merge(l.calendar.Validate(in.Date, in.StartTime, in.Weekend, in.PreferredWindow).Errors)
	verr.Merge(l.calendar.ValidateDateRange(in.Date).Errors)

	weekend := l.calendar.IsWeekend(in.Date)
	quote, err := l.engine.CalculateBookingTotal(in.Service, in.AddOns, weekend)
	if err != nil {
		var pricingErr *errs.ValidationError
		if !errs.As(err, &pricingErr) {
			return nil, pricing.Quote{}, err
		}
		verr.Merge(pricingErr.Fields)
	}

	switch {
	case in.Details == nil:
		verr.Add("details", "is required")
	case in.Details.ServiceType() != in.Service:
		verr.Add("details", "do not match the selected service")
	default:
		verr.Merge(in.Details.Validate())
	}
	verr.Merge(in.Customer.Validate())

	if verr.HasErrors() {
		return nil, pricing.Quote{}, verr
	}

	var slot *calendar.TimeSlot
	if !weekend {
		s, err := l.calendar.SlotFor(in.Date, *in.StartTime, quote.Duration)
		if err != nil {
			return nil, pricing.Quote{}, errs.NewValidationError(errs.FieldError{Field: "time", Message: err.Error()})
		}
		slot = &s
	}

	res, err := l.factory.CreateHeld(reservation.NewHeldParams{
		Details:         in.Details,
		Customer:        in.Customer,
		RequestedDate:   l.calendar.DateOf(in.Date),
		Slot:            slot,
		PreferredWindow: in.PreferredWindow,
		Weekend:         weekend,
		Quote:           quote,
		Currency:        l.currency,
	})
	if err != nil {
		return nil, pricing.Quote{}, errs.Mark(err, errs.ErrValidation)
	}
	return res, quote, nil
}

// CreateHeld validates, prices and holds the requested slot in one transaction.
func (l *Ledger) CreateHeld(ctx context.Context, in CreateHeldInput) (*reservation.Reservation, error) {
	res, _, err := l.Prepare(in)
	if err != nil {
		return nil, err
	}
	err = l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return l.HoldTx(ctx, tx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// HoldTx inserts a prepared reservation inside tx. Stale holds overlapping
// the slot are expired first so the exclusion constraint only sees live rows.
func (l *Ledger) HoldTx(ctx context.Context, tx shared.Tx, res *reservation.Reservation) error {
	repo := tx.Reservations()

	if slot := res.Slot(); slot != nil {
		// READ COMMITTED lets two holds both see room under the cap otherwise
		if err := repo.LockDate(ctx, res.RequestedDate()); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		expired, err := repo.ExpireOverlappingStale(ctx, *slot, l.clock.Now())
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if expired > 0 {
			l.metrics.HoldsExpired.Add(float64(expired))
		}

		hasCapacity, err := l.checker.HasCapacity(ctx, repo, res.RequestedDate())
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !hasCapacity {
			l.metrics.SlotConflicts.WithLabelValues("capacity").Inc()
			return errs.Wrap(errs.ErrSlotUnavailable, "daily booking limit reached")
		}

		free, err := l.checker.IsSlotFree(ctx, repo, *slot)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !free {
			l.metrics.SlotConflicts.WithLabelValues("check").Inc()
			return errs.Wrapf(errs.ErrSlotUnavailable, "slot %s is taken", slot)
		}
	}

	if err := repo.Insert(ctx, res); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			l.metrics.SlotConflicts.WithLabelValues("constraint").Inc()
			return errs.Mark(err, errs.ErrSlotUnavailable)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	l.metrics.HoldsCreated.Inc()
	return nil
}

// Confirm records payment against a held reservation. Repeated calls for a
// reservation that already left HELD through payment return Transitioned=false.
// A hold found past its expiry is marked EXPIRED and ErrAlreadyExpired is returned.
func (l *Ledger) Confirm(ctx context.Context, id uuid.UUID, paymentReference string) (*ConfirmResult, error) {
	var (
		result *ConfirmResult
		lapsed bool
	)
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		lapsed = false
		repo := tx.Reservations()
		res, err := l.lock(ctx, repo, id)
		if err != nil {
			return err
		}

		now := l.clock.Now()
		changed, err := res.Confirm(paymentReference, now)
		if errs.Is(err, reservation.ErrHoldExpired) {
			if err := res.Expire(now); err != nil {
				return err
			}
			if err := repo.Update(ctx, res, reservation.StatusHeld); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			l.metrics.HoldsExpired.Inc()
			lapsed = true
			return nil
		}
		if err != nil {
			return err
		}

		if changed {
			if err := repo.Update(ctx, res, reservation.StatusHeld); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		result = &ConfirmResult{Reservation: res, Transitioned: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lapsed {
		return nil, errs.Wrapf(errs.ErrAlreadyExpired, "reservation %s", id)
	}

	outcome := "duplicate"
	if result.Transitioned {
		outcome = string(result.Reservation.Status())
	}
	l.metrics.Confirmations.WithLabelValues(outcome).Inc()
	return result, nil
}

// ExpireStaleHolds marks every lapsed hold EXPIRED. Safe to call concurrently.
func (l *Ledger) ExpireStaleHolds(ctx context.Context, now time.Time) (int64, error) {
	n, err := l.uow.Reservations().ExpireStale(ctx, now)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if n > 0 {
		l.metrics.HoldsExpired.Add(float64(n))
		l.logger.Info("expired stale holds", slog.Int64("count", n))
	}
	return n, nil
}

func (l *Ledger) Cancel(ctx context.Context, id uuid.UUID, reason string) (*reservation.Reservation, error) {
	var out *reservation.Reservation
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		repo := tx.Reservations()
		res, err := l.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		previous := res.Status()
		if err := res.Cancel(reason, l.clock.Now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, res, previous); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelIfHeld cancels the reservation only while it is still HELD.
func (l *Ledger) CancelIfHeld(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	cancelled := false
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		cancelled = false
		repo := tx.Reservations()
		res, err := l.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		if res.Status() != reservation.StatusHeld {
			return nil
		}
		if err := res.Cancel(reason, l.clock.Now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, res, reservation.StatusHeld); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		cancelled = true
		return nil
	})
	return cancelled, err
}

// Approve confirms a paid booking awaiting the operator. A weekend booking may
// have its visit time pinned here, under the same overlap rules as a hold.
func (l *Ledger) Approve(ctx context.Context, id uuid.UUID, slotStart *time.Time) (*reservation.Reservation, error) {
	var out *reservation.Reservation
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		repo := tx.Reservations()
		res, err := l.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		now := l.clock.Now()

		var slot *calendar.TimeSlot
		if slotStart != nil {
			s, err := l.pinnedSlot(res, *slotStart, now)
			if err != nil {
				return err
			}
			if _, err := repo.ExpireOverlappingStale(ctx, s, now); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			free, err := l.checker.IsSlotFree(ctx, repo, s)
			if err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			if !free {
				return errs.Wrapf(errs.ErrSlotUnavailable, "slot %s is taken", s)
			}
			slot = &s
		}

		if err := res.Approve(slot, now); err != nil {
			return err
		}
		if err := repo.Update(ctx, res, reservation.StatusPendingWeekendApproval); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return errs.Mark(err, errs.ErrSlotUnavailable)
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) pinnedSlot(res *reservation.Reservation, start, now time.Time) (calendar.TimeSlot, error) {
	if !start.After(now) {
		return calendar.TimeSlot{}, errs.NewValidationError(errs.FieldError{Field: "slotStart", Message: "must be in the future"})
	}
	duration := l.calendar.Config().JobDuration
	if svc, ok := l.engine.Catalog().Service(res.ServiceType()); ok && svc.Duration > 0 {
		duration = svc.Duration
	}
	s, err := calendar.NewTimeSlot(start, start.Add(duration+l.calendar.Config().Buffer))
	if err != nil {
		return calendar.TimeSlot{}, errs.NewValidationError(errs.FieldError{Field: "slotStart", Message: err.Error()})
	}
	return s, nil
}

func (l *Ledger) lock(ctx context.Context, repo shared.ReservationRepository, id uuid.UUID) (*reservation.Reservation, error) {
	res, err := repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return res, nil
}
