package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/booking.go -package=commandsmock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const submitEndpoint = "POST /api/bookings"

type SubmitResult struct {
	Reservation *reservation.Reservation
	Quote       pricing.Quote
	CheckoutURL string
	IsReplayed  bool
}

type QuoteInput struct {
	Service pricing.ServiceType
	AddOns  []pricing.AddOnID
	// Date is optional; a weekend date adds the surcharge.
	Date *time.Time
}

type BookingCommands interface {
	Submit(ctx context.Context, in CreateHeldInput, idempotencyKey uuid.UUID) (*SubmitResult, error)
	Quote(ctx context.Context, in QuoteInput) (pricing.Quote, error)
}

type bookingCommandsImpl struct {
	uow            shared.UnitOfWork
	ledger         *Ledger
	bridge         *CheckoutBridge
	engine         *pricing.Engine
	calendar       *calendar.Calendar
	clock          clock.Clock
	idempotencyTTL time.Duration
	logger         *slog.Logger
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	ledger *Ledger,
	bridge *CheckoutBridge,
	engine *pricing.Engine,
	cal *calendar.Calendar,
	clk clock.Clock,
	idempotencyTTL time.Duration,
	logger *slog.Logger,
) BookingCommands {
	return &bookingCommandsImpl{
		uow:            uow,
		ledger:         ledger,
		bridge:         bridge,
		engine:         engine,
		calendar:       cal,
		clock:          clk,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
	}
}

// Submit holds the requested slot and opens checkout. Repeating a request with
// the same key returns the original reservation; if its checkout never opened
// the replay tries again.
func (b *bookingCommandsImpl) Submit(ctx context.Context, in CreateHeldInput, idempotencyKey uuid.UUID) (*SubmitResult, error) {
	if idempotencyKey == uuid.Nil {
		return nil, errs.ErrIdempotencyKeyRequired
	}
	requestHash, err := b.calculateRequestHash(in)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}

	existing, err := b.handleIdempotency(ctx, idempotencyKey, requestHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return b.replay(ctx, *existing.ResultReservationID)
	}

	res, quote, err := b.createNewReservation(ctx, in, idempotencyKey)
	if err != nil {
		b.releaseKey(ctx, idempotencyKey)
		return nil, err
	}

	session, err := b.bridge.OpenCheckout(ctx, res.ID())
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		Reservation: res,
		Quote:       quote,
		CheckoutURL: session.URL,
		IsReplayed:  false,
	}, nil
}

func (b *bookingCommandsImpl) Quote(_ context.Context, in QuoteInput) (pricing.Quote, error) {
	weekend := false
	if in.Date != nil {
		weekend = b.calendar.IsWeekend(*in.Date)
	}
	return b.engine.CalculateBookingTotal(in.Service, in.AddOns, weekend)
}

// handleIdempotency returns the completed record to replay, or nil when this
// request now owns the key.
func (b *bookingCommandsImpl) handleIdempotency(ctx context.Context, key uuid.UUID, requestHash string) (*shared.IdempotencyRecord, error) {
	now := b.clock.Now()
	expiresAt := now.Add(b.idempotencyTTL)

	var replay *shared.IdempotencyRecord
	err := b.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		replay = nil
		repo := tx.Idempotency()

		inserted, err := repo.TryInsert(ctx, key, submitEndpoint, requestHash, expiresAt)
		if err != nil {
			return errs.Mark(err, errs.ErrIdempotencyCheckFailed)
		}
		if inserted {
			return nil
		}

		record, err := repo.Get(ctx, key)
		if err != nil {
			return errs.Mark(err, errs.ErrIdempotencyCheckFailed)
		}
		if record.ExpiresAt.Before(now) {
			claimed, err := repo.ClaimExpired(ctx, key, requestHash, now, expiresAt)
			if err != nil {
				return errs.Mark(err, errs.ErrIdempotencyCheckFailed)
			}
			if claimed == 1 {
				return nil
			}
			return errs.ErrIdempotencyInProgress
		}
		if record.RequestHash != requestHash {
			return errs.ErrIdempotencyMismatch
		}

		switch record.Status {
		case shared.IdempotencyCompleted:
			if record.ResultReservationID == nil {
				return errs.Mark(errs.New("completed request missing result reservation ID"), errs.ErrIdempotencyCheckFailed)
			}
			replay = record
			return nil
		case shared.IdempotencyProcessing:
			return errs.ErrIdempotencyInProgress
		default:
			return errs.Mark(errs.Newf("invalid idempotency key status %q", record.Status), errs.ErrIdempotencyCheckFailed)
		}
	})
	if err != nil {
		return nil, err
	}
	return replay, nil
}

func (b *bookingCommandsImpl) createNewReservation(ctx context.Context, in CreateHeldInput, key uuid.UUID) (*reservation.Reservation, pricing.Quote, error) {
	res, quote, err := b.ledger.Prepare(in)
	if err != nil {
		return nil, pricing.Quote{}, err
	}

	err = b.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := b.ledger.HoldTx(ctx, tx, res); err != nil {
			return err
		}
		if err := b.createNotificationJob(ctx, tx, res); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := tx.Idempotency().MarkCompleted(ctx, key, res.ID()); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, pricing.Quote{}, err
	}

	b.logger.Info("reservation held",
		slog.String("reference", res.Reference()),
		slog.String("service", res.ServiceType().String()),
		slog.Bool("weekend", res.IsWeekend()))
	return res, quote, nil
}

func (b *bookingCommandsImpl) replay(ctx context.Context, id uuid.UUID) (*SubmitResult, error) {
	res, err := b.uow.Reservations().FindByID(ctx, id, false)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	quote, err := b.engine.CalculateBookingTotal(res.ServiceType(), res.AddOns(), res.IsWeekend())
	if err != nil {
		return nil, err
	}

	checkoutURL := res.CheckoutURL()
	if checkoutURL == "" && res.Status() == reservation.StatusHeld && !res.IsHoldExpired(b.clock.Now()) {
		session, err := b.bridge.OpenCheckout(ctx, res.ID())
		if err != nil {
			return nil, err
		}
		checkoutURL = session.URL
	}

	return &SubmitResult{
		Reservation: res,
		Quote:       quote,
		CheckoutURL: checkoutURL,
		IsReplayed:  true,
	}, nil
}

func (b *bookingCommandsImpl) releaseKey(ctx context.Context, key uuid.UUID) {
	err := b.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().Release(ctx, key)
	})
	if err != nil {
		b.logger.Warn("failed to release idempotency key", slog.String("key", key.String()), slog.Any("error", err))
	}
}

func (b *bookingCommandsImpl) createNotificationJob(ctx context.Context, tx shared.Tx, res *reservation.Reservation) error {
	payload, err := json.Marshal(map[string]any{
		"reference":      res.Reference(),
		"service":        res.ServiceType(),
		"totalCents":     res.TotalPrice().Cents(),
		"holdExpiresAt":  res.HoldExpiresAt(),
		"weekendRequest": res.IsWeekend(),
	})
	if err != nil {
		return err
	}
	id := res.ID()
	return tx.Notifications().CreateJob(ctx, shared.NotificationJob{
		Kind:          shared.JobKindOperator,
		Topic:         shared.TopicBookingHeld,
		ReservationID: &id,
		Payload:       payload,
		RunAt:         b.clock.Now(),
	})
}

type requestFingerprint struct {
	Service         pricing.ServiceType        `json:"service"`
	Details         reservation.ServiceDetails `json:"details"`
	AddOns          []pricing.AddOnID          `json:"addOns"`
	Customer        reservation.Customer       `json:"customer"`
	Date            string                     `json:"date"`
	StartTime       string                     `json:"startTime,omitempty"`
	Weekend         bool                       `json:"weekend"`
	PreferredWindow string                     `json:"preferredWindow,omitempty"`
}

func (b *bookingCommandsImpl) calculateRequestHash(in CreateHeldInput) (string, error) {
	fp := requestFingerprint{
		Service:         in.Service,
		Details:         in.Details,
		AddOns:          pricing.SortedAddOnIDs(in.AddOns),
		Customer:        in.Customer,
		Date:            b.calendar.DateOf(in.Date).Format(calendar.DateLayout),
		Weekend:         in.Weekend,
		PreferredWindow: in.PreferredWindow,
	}
	if in.StartTime != nil {
		fp.StartTime = in.StartTime.String()
	}
	data, err := json.Marshal(fp)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
