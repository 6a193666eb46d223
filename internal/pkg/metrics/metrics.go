package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mechanic_booking"

// Metrics groups the booking counters exported on /metrics.
type Metrics struct {
	HoldsCreated     prometheus.Counter
	HoldsExpired     prometheus.Counter
	SlotConflicts    *prometheus.CounterVec
	Confirmations    *prometheus.CounterVec
	Reconciliations  prometheus.Counter
	CheckoutSessions *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	TxRetries        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HoldsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holds_created_total",
			Help:      "Reservations placed on hold.",
		}),
		HoldsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holds_expired_total",
			Help:      "Lapsed holds marked EXPIRED by the sweeper or an overlapping insert.",
		}),
		SlotConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_conflicts_total",
			Help:      "Hold attempts rejected because the slot was taken.",
		}, []string{"stage"}),
		Confirmations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Payment confirmations by outcome.",
		}, []string{"outcome"}),
		Reconciliations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_required_total",
			Help:      "Payments received for reservations that were no longer held.",
		}),
		CheckoutSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Checkout session creation attempts by result.",
		}, []string{"result"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and result.",
		}, []string{"channel", "result"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment webhook events by type and result.",
		}, []string{"type", "result"}),
		TxRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retries_total",
			Help:      "Transactions retried after a serialization failure or deadlock.",
		}, []string{"sqlstate"}),
	}
}

// NewNop returns counters bound to a private registry, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
