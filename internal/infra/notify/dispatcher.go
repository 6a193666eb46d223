package notify

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/notify/dispatcher.go -package=notifymock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/pkg/metrics"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/usecase/shared"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageSender is satisfied by *bot.Bot.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type Outbox interface {
	CreateJob(ctx context.Context, job shared.NotificationJob) error
}

// Dispatcher messages the owner over Telegram and queues customer email for
// the external mailer. A nil sender disables the Telegram channel.
type Dispatcher struct {
	sender      MessageSender
	ownerChatID int64
	outbox      Outbox
	loc         *time.Location
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewDispatcher(
	sender MessageSender,
	ownerChatID int64,
	outbox Outbox,
	loc *time.Location,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		ownerChatID: ownerChatID,
		outbox:      outbox,
		loc:         loc,
		clock:       clk,
		metrics:     m,
		logger:      logger,
	}
}

type customerEmail struct {
	To              string     `json:"to"`
	Name            string     `json:"name"`
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	Service         string     `json:"service"`
	SlotStart       *time.Time `json:"slotStart,omitempty"`
	PreferredWindow string     `json:"preferredWindow,omitempty"`
	TotalCents      int64      `json:"totalCents"`
	Currency        string     `json:"currency"`
}

func (d *Dispatcher) Notify(ctx context.Context, res *reservation.Reservation) (commands.NotifyResult, error) {
	var result commands.NotifyResult
	topic, ok := topicFor(res.Status())
	if !ok {
		return result, errs.Newf("no notification for %s reservations", res.Status())
	}

	var failures []string
	sent, err := d.sendOwner(ctx, d.ownerText(res))
	if err != nil {
		failures = append(failures, "telegram: "+err.Error())
	}
	result.OwnerNotified = sent

	if err := d.queueCustomerEmail(ctx, res, topic); err != nil {
		failures = append(failures, "outbox: "+err.Error())
	} else {
		result.CustomerNotified = true
	}

	if len(failures) > 0 {
		return result, errs.Newf("notify %s: %s", res.Reference(), strings.Join(failures, "; "))
	}
	return result, nil
}

func (d *Dispatcher) AlertReconciliation(ctx context.Context, alert commands.ReconciliationAlert) error {
	text := fmt.Sprintf(
		"⚠️ Payment needs reconciliation\nBooking %s is %s but payment %s (%s %s) arrived at %s.\nRefund or rebook manually.",
		alert.Reference, alert.Status, alert.PaymentReference,
		alert.Amount, strings.ToUpper(alert.Currency),
		alert.DetectedAt.In(d.loc).Format("Mon 2 Jan 15:04"),
	)
	_, sendErr := d.sendOwner(ctx, text)

	payload, err := json.Marshal(map[string]any{
		"reference":        alert.Reference,
		"status":           alert.Status,
		"sessionId":        alert.SessionID,
		"paymentReference": alert.PaymentReference,
		"amountCents":      alert.Amount.Cents(),
		"currency":         alert.Currency,
		"detectedAt":       alert.DetectedAt,
	})
	if err != nil {
		return err
	}
	id := alert.ReservationID
	jobErr := d.outbox.CreateJob(ctx, shared.NotificationJob{
		Kind:          shared.JobKindOperator,
		Topic:         shared.TopicReconciliationRequired,
		ReservationID: &id,
		Payload:       payload,
		RunAt:         d.clock.Now(),
	})
	d.count("outbox", jobErr)

	// the persisted job is the durable record; Telegram is best effort
	if jobErr != nil {
		return errs.Wrap(jobErr, "persist reconciliation alert")
	}
	if sendErr != nil {
		d.logger.Warn("reconciliation alert not sent to telegram", slog.Any("error", sendErr))
	}
	return nil
}

func (d *Dispatcher) sendOwner(ctx context.Context, text string) (bool, error) {
	if d.sender == nil || d.ownerChatID == 0 {
		d.metrics.Notifications.WithLabelValues("telegram", "skipped").Inc()
		return false, nil
	}
	_, err := d.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: d.ownerChatID,
		Text:   text,
	})
	d.count("telegram", err)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Dispatcher) queueCustomerEmail(ctx context.Context, res *reservation.Reservation, topic string) error {
	customer := res.Customer()
	email := customerEmail{
		To:              customer.Email,
		Name:            customer.Name,
		Reference:       res.Reference(),
		Status:          res.Status().String(),
		Service:         res.ServiceType().String(),
		PreferredWindow: res.PreferredWindow(),
		TotalCents:      res.TotalPrice().Cents(),
		Currency:        res.Currency(),
	}
	if slot := res.Slot(); slot != nil {
		start := slot.Start()
		email.SlotStart = &start
	}
	payload, err := json.Marshal(email)
	if err != nil {
		return err
	}
	id := res.ID()
	err = d.outbox.CreateJob(ctx, shared.NotificationJob{
		Kind:          shared.JobKindEmail,
		Topic:         topic,
		ReservationID: &id,
		Payload:       payload,
		RunAt:         d.clock.Now(),
	})
	d.count("outbox", err)
	return err
}

func (d *Dispatcher) ownerText(res *reservation.Reservation) string {
	var b strings.Builder
	switch res.Status() {
	case reservation.StatusConfirmed:
		b.WriteString("✅ Booking confirmed")
	case reservation.StatusPendingWeekendApproval:
		b.WriteString("🕓 Paid, awaiting your approval")
	case reservation.StatusCancelled:
		b.WriteString("❌ Booking cancelled")
	default:
		b.WriteString("Booking update")
	}
	fmt.Fprintf(&b, " %s\n%s", res.Reference(), res.ServiceType())
	if slot := res.Slot(); slot != nil {
		fmt.Fprintf(&b, "\n%s", slot.Start().In(d.loc).Format("Mon 2 Jan 15:04"))
	} else {
		fmt.Fprintf(&b, "\n%s, preferred: %s", res.RequestedDate().Format("Mon 2 Jan"), res.PreferredWindow())
	}
	customer := res.Customer()
	fmt.Fprintf(&b, "\n%s, %s\n%s\n%s", customer.Name, customer.Phone, customer.Address, customer.Vehicle)
	fmt.Fprintf(&b, "\nTotal %s %s", res.TotalPrice(), strings.ToUpper(res.Currency()))
	return b.String()
}

func (d *Dispatcher) count(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	d.metrics.Notifications.WithLabelValues(channel, result).Inc()
}

func topicFor(status reservation.Status) (string, bool) {
	switch status {
	case reservation.StatusHeld:
		return shared.TopicBookingHeld, true
	case reservation.StatusConfirmed:
		return shared.TopicBookingConfirmed, true
	case reservation.StatusPendingWeekendApproval:
		return shared.TopicBookingPendingApproval, true
	case reservation.StatusCancelled:
		return shared.TopicBookingCancelled, true
	default:
		return "", false
	}
}
