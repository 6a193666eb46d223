package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/checkout.go -package=commandsmock

import (
	"context"
	"log/slog"
	"time"

	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/infra"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/pkg/metrics"
	"mechanic-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type PaymentOutcome string

const (
	OutcomeConfirmed              PaymentOutcome = "confirmed"
	OutcomePendingApproval        PaymentOutcome = "pending_approval"
	OutcomeAlreadyConfirmed       PaymentOutcome = "already_confirmed"
	OutcomeReconciliationRequired PaymentOutcome = "reconciliation_required"
	OutcomeCancelled              PaymentOutcome = "cancelled"
	OutcomeNoop                   PaymentOutcome = "noop"
	OutcomeDuplicateEvent         PaymentOutcome = "duplicate_event"
	OutcomeUnknownSession         PaymentOutcome = "unknown_session"
	OutcomeIgnored                PaymentOutcome = "ignored"
)

type WebhookResult struct {
	EventID   string
	EventType GatewayEventType
	Outcome   PaymentOutcome
}

// WebhookProcessor is the narrow surface the payment webhook endpoint needs.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

// CheckoutBridge connects held reservations to the payment gateway and turns
// gateway callbacks into ledger transitions.
type CheckoutBridge struct {
	uow      shared.UnitOfWork
	ledger   *Ledger
	engine   *pricing.Engine
	gateway  PaymentGateway
	notifier Notifier
	deduper  EventDeduper
	clock    clock.Clock
	margin   time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type CheckoutBridgeParams struct {
	UoW            shared.UnitOfWork
	Ledger         *Ledger
	Engine         *pricing.Engine
	Gateway        PaymentGateway
	Notifier       Notifier
	Deduper        EventDeduper
	Clock          clock.Clock
	CheckoutMargin time.Duration
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

func NewCheckoutBridge(p CheckoutBridgeParams) *CheckoutBridge {
	return &CheckoutBridge{
		uow:      p.UoW,
		ledger:   p.Ledger,
		engine:   p.Engine,
		gateway:  p.Gateway,
		notifier: p.Notifier,
		deduper:  p.Deduper,
		clock:    p.Clock,
		margin:   p.CheckoutMargin,
		metrics:  p.Metrics,
		logger:   p.Logger,
	}
}

// OpenCheckout starts a gateway session for a HELD reservation. A session that
// is already attached is returned as is. Failure leaves the hold untouched.
func (b *CheckoutBridge) OpenCheckout(ctx context.Context, id uuid.UUID) (*CheckoutSession, error) {
	res, err := b.uow.Reservations().FindByID(ctx, id, false)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	if err := b.ensureOpenable(res); err != nil {
		return nil, err
	}
	if res.GatewaySessionID() != "" {
		return b.attachedSession(res), nil
	}

	quote, err := b.engine.CalculateBookingTotal(res.ServiceType(), res.AddOns(), res.IsWeekend())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrPriceChanged)
	}
	if quote.Total != res.TotalPrice() {
		b.metrics.CheckoutSessions.WithLabelValues("price_changed").Inc()
		return nil, errs.Wrapf(errs.ErrPriceChanged, "stored %s, catalog %s", res.TotalPrice(), quote.Total)
	}

	session, err := b.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		ReservationID: res.ID(),
		Reference:     res.Reference(),
		CustomerEmail: res.Customer().Email,
		Currency:      res.Currency(),
		LineItems:     quote.Breakdown,
		Total:         quote.Total,
		ExpiresAt:     res.HoldExpiresAt().Add(-b.margin),
	})
	if err != nil {
		b.metrics.CheckoutSessions.WithLabelValues("failed").Inc()
		b.logger.Warn("failed to open checkout session",
			slog.String("reference", res.Reference()), slog.Any("error", err))
		return nil, errs.Mark(err, errs.ErrCheckoutUnavailable)
	}

	var attached *CheckoutSession
	err = b.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		repo := tx.Reservations()
		locked, err := repo.FindByID(ctx, id, true)
		if err != nil {
			return mapLookupErr(err)
		}
		if err := locked.AttachCheckout(session.SessionID, session.URL, b.clock.Now()); err != nil {
			if errs.Is(err, reservation.ErrCheckoutAlreadyOpen) {
				// a concurrent request won; the orphaned gateway session lapses on its own
				attached = b.attachedSession(locked)
				return nil
			}
			return err
		}
		if err := repo.Update(ctx, locked, reservation.StatusHeld); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		attached = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.metrics.CheckoutSessions.WithLabelValues("opened").Inc()
	return attached, nil
}

// OnPaymentConfirmed applies a successful payment found by gateway session id.
// Payment for an expired or cancelled reservation is never applied: an
// operator alert is raised and ErrReconciliationRequired returned. When the
// alert cannot be persisted the error is returned unmarked so the gateway
// redelivers; Confirm keeps reporting the same terminal state on retry.
func (b *CheckoutBridge) OnPaymentConfirmed(ctx context.Context, sessionID, paymentReference string) (PaymentOutcome, error) {
	res, err := b.uow.Reservations().FindBySessionID(ctx, sessionID, false)
	if err != nil {
		return "", mapLookupErr(err)
	}
	if paymentReference == "" {
		paymentReference = sessionID
	}

	result, err := b.ledger.Confirm(ctx, res.ID(), paymentReference)
	if errs.Is(err, errs.ErrAlreadyTerminal) {
		status := reservation.StatusCancelled
		if errs.Is(err, errs.ErrAlreadyExpired) {
			status = reservation.StatusExpired
		}
		if alertErr := b.raiseReconciliation(ctx, res, status, sessionID, paymentReference); alertErr != nil {
			return "", alertErr
		}
		return OutcomeReconciliationRequired, errs.Mark(err, errs.ErrReconciliationRequired)
	}
	if err != nil {
		return "", err
	}

	if !result.Transitioned {
		return OutcomeAlreadyConfirmed, nil
	}
	b.notify(ctx, result.Reservation)
	if result.Reservation.Status() == reservation.StatusPendingWeekendApproval {
		return OutcomePendingApproval, nil
	}
	return OutcomeConfirmed, nil
}

// OnCheckoutExpired releases the hold when the customer abandoned checkout.
func (b *CheckoutBridge) OnCheckoutExpired(ctx context.Context, sessionID string) (PaymentOutcome, error) {
	res, err := b.uow.Reservations().FindBySessionID(ctx, sessionID, false)
	if err != nil {
		return "", mapLookupErr(err)
	}
	cancelled, err := b.ledger.CancelIfHeld(ctx, res.ID(), "checkout session expired")
	if err != nil {
		return "", err
	}
	if !cancelled {
		return OutcomeNoop, nil
	}
	b.logger.Info("hold released after checkout expiry", slog.String("reference", res.Reference()))
	return OutcomeCancelled, nil
}

// HandleWebhook verifies, de-duplicates and dispatches one gateway callback.
// Only transient failures are returned as errors so the gateway retries;
// a signature failure is ErrSignatureInvalid and mutates nothing, and a
// delivery overlapping an unfinished one is ErrEventInFlight.
func (b *CheckoutBridge) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := b.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		b.metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return nil, errs.Mark(err, errs.ErrSignatureInvalid)
	}
	result := &WebhookResult{EventID: event.ID, EventType: event.Type}

	if event.Type == EventIgnored {
		result.Outcome = OutcomeIgnored
		b.metrics.WebhookEvents.WithLabelValues(event.RawType, string(result.Outcome)).Inc()
		return result, nil
	}

	state, err := b.deduper.Claim(ctx, event.ID)
	if err != nil {
		b.logger.Warn("event de-duplication unavailable, processing anyway",
			slog.String("event_id", event.ID), slog.Any("error", err))
		state = ClaimAcquired
	}
	switch state {
	case ClaimDone:
		result.Outcome = OutcomeDuplicateEvent
		b.metrics.WebhookEvents.WithLabelValues(event.RawType, string(result.Outcome)).Inc()
		return result, nil
	case ClaimInFlight:
		// non-2xx, so the gateway comes back once the other delivery settles
		b.metrics.WebhookEvents.WithLabelValues(event.RawType, "in_flight").Inc()
		return nil, errs.Mark(errs.Newf("event %s claimed by another delivery", event.ID), errs.ErrEventInFlight)
	}

	outcome, err := b.dispatch(ctx, event)
	switch {
	case err == nil:
		result.Outcome = outcome
	case errs.Is(err, errs.ErrReconciliationRequired):
		result.Outcome = OutcomeReconciliationRequired
	case errs.Is(err, errs.ErrNotFound):
		b.logger.Warn("webhook for unknown checkout session",
			slog.String("event_id", event.ID), slog.String("session_id", event.SessionID))
		result.Outcome = OutcomeUnknownSession
	default:
		if releaseErr := b.deduper.Release(ctx, event.ID); releaseErr != nil {
			// the claim lease still lapses, so redelivery is delayed, not lost
			b.logger.Warn("failed to release event claim",
				slog.String("event_id", event.ID), slog.Any("error", releaseErr))
		}
		b.metrics.WebhookEvents.WithLabelValues(event.RawType, "failed").Inc()
		return nil, err
	}

	if err := b.deduper.Complete(ctx, event.ID); err != nil {
		b.logger.Warn("failed to mark event processed",
			slog.String("event_id", event.ID), slog.Any("error", err))
	}
	b.metrics.WebhookEvents.WithLabelValues(event.RawType, string(result.Outcome)).Inc()
	return result, nil
}

func (b *CheckoutBridge) dispatch(ctx context.Context, event *GatewayEvent) (PaymentOutcome, error) {
	switch event.Type {
	case EventPaymentSucceeded:
		return b.OnPaymentConfirmed(ctx, event.SessionID, event.PaymentReference)
	case EventCheckoutExpired:
		return b.OnCheckoutExpired(ctx, event.SessionID)
	default:
		return OutcomeIgnored, nil
	}
}

func (b *CheckoutBridge) ensureOpenable(res *reservation.Reservation) error {
	switch res.Status() {
	case reservation.StatusHeld:
		if res.IsHoldExpired(b.clock.Now()) {
			return errs.Wrapf(errs.ErrAlreadyExpired, "reservation %s", res.Reference())
		}
		return nil
	case reservation.StatusCancelled:
		return errs.Wrapf(errs.ErrAlreadyCancelled, "reservation %s", res.Reference())
	case reservation.StatusExpired:
		return errs.Wrapf(errs.ErrAlreadyExpired, "reservation %s", res.Reference())
	default:
		return errs.Mark(errs.Newf("reservation %s is already paid", res.Reference()), errs.ErrInvalidTransition)
	}
}

func (b *CheckoutBridge) attachedSession(res *reservation.Reservation) *CheckoutSession {
	session := &CheckoutSession{SessionID: res.GatewaySessionID(), URL: res.CheckoutURL()}
	if exp := res.HoldExpiresAt(); exp != nil {
		session.ExpiresAt = exp.Add(-b.margin)
	}
	return session
}

func (b *CheckoutBridge) raiseReconciliation(ctx context.Context, res *reservation.Reservation, status reservation.Status, sessionID, paymentReference string) error {
	b.metrics.Reconciliations.Inc()
	b.logger.Error("payment received for a reservation that is no longer held",
		slog.String("reference", res.Reference()),
		slog.String("status", string(status)),
		slog.String("session_id", sessionID),
		slog.String("payment_reference", paymentReference))

	alert := ReconciliationAlert{
		ReservationID:    res.ID(),
		Reference:        res.Reference(),
		Status:           status,
		SessionID:        sessionID,
		PaymentReference: paymentReference,
		Amount:           res.TotalPrice(),
		Currency:         res.Currency(),
		DetectedAt:       b.clock.Now(),
	}
	if err := b.notifier.AlertReconciliation(ctx, alert); err != nil {
		b.logger.Error("failed to record reconciliation alert",
			slog.String("reference", res.Reference()), slog.Any("error", err))
		return errs.Wrapf(err, "record reconciliation alert for %s", res.Reference())
	}
	return nil
}

func (b *CheckoutBridge) notify(ctx context.Context, res *reservation.Reservation) {
	notifyReservation(ctx, b.notifier, b.logger, res)
}

func notifyReservation(ctx context.Context, n Notifier, logger *slog.Logger, res *reservation.Reservation) {
	result, err := n.Notify(ctx, res)
	if err != nil {
		logger.Warn("notification failed",
			slog.String("reference", res.Reference()), slog.Any("error", err))
		return
	}
	logger.Debug("notification dispatched",
		slog.String("reference", res.Reference()),
		slog.Bool("owner", result.OwnerNotified),
		slog.Bool("customer", result.CustomerNotified))
}

func mapLookupErr(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrNotFound)
	}
	return errs.Mark(err, errs.ErrDatabaseOperationFailed)
}
