package gateway

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/gateway/stripe.go -package=gatewaymock

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/commands"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// MinSessionLifetime is the shortest expiry Stripe accepts for a Checkout session.
const MinSessionLifetime = 30 * time.Minute

const (
	metadataReservationID = "reservation_id"
	metadataReference     = "reference"
	referencePlaceholder  = "{REFERENCE}"
)

var ErrSessionTooShort = errs.New("hold expires too soon for a checkout session")

// SessionCreator is the part of the Stripe client used to open sessions.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeGateway struct {
	sessions      SessionCreator
	webhookSecret string
	successURL    string
	cancelURL     string
	clock         clock.Clock
}

func NewStripeGateway(cfg config.StripeConfig, clk clock.Clock) *StripeGateway {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return NewStripeGatewayWithSessions(sc.CheckoutSessions, cfg, clk)
}

func NewStripeGatewayWithSessions(sessions SessionCreator, cfg config.StripeConfig, clk clock.Clock) *StripeGateway {
	return &StripeGateway{
		sessions:      sessions,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		clock:         clk,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req commands.CheckoutRequest) (*commands.CheckoutSession, error) {
	if req.ExpiresAt.Sub(g.clock.Now()) < MinSessionLifetime {
		return nil, errs.Wrapf(ErrSessionTooShort, "expires at %s", req.ExpiresAt.Format(time.RFC3339))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(strings.ReplaceAll(g.successURL, referencePlaceholder, req.Reference)),
		CancelURL:         stripe.String(strings.ReplaceAll(g.cancelURL, referencePlaceholder, req.Reference)),
		ClientReferenceID: stripe.String(req.Reference),
		ExpiresAt:         stripe.Int64(req.ExpiresAt.Unix()),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				metadataReservationID: req.ReservationID.String(),
				metadataReference:     req.Reference,
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(item.Amount.Cents()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Label),
				},
			},
		})
	}
	params.AddMetadata(metadataReservationID, req.ReservationID.String())
	params.AddMetadata(metadataReference, req.Reference)
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, errs.Wrap(err, "stripe: create checkout session")
	}
	return &commands.CheckoutSession{
		SessionID: s.ID,
		URL:       s.URL,
		ExpiresAt: time.Unix(s.ExpiresAt, 0),
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header and reduces the event to
// the two checkout outcomes the booking flow reacts to.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*commands.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "stripe: verify webhook"), errs.ErrSignatureInvalid)
	}

	out := &commands.GatewayEvent{
		ID:      event.ID,
		Type:    commands.EventIgnored,
		RawType: string(event.Type),
	}

	switch string(event.Type) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, errs.Mark(errs.Wrap(err, "stripe: decode checkout session"), errs.ErrSignatureInvalid)
		}
		fillSession(out, &s)
		// delayed payment methods complete unpaid and follow up with async_payment_succeeded
		if s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			out.Type = commands.EventPaymentSucceeded
		}
	case "checkout.session.expired":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, errs.Mark(errs.Wrap(err, "stripe: decode checkout session"), errs.ErrSignatureInvalid)
		}
		fillSession(out, &s)
		out.Type = commands.EventCheckoutExpired
	}
	return out, nil
}

func fillSession(out *commands.GatewayEvent, s *stripe.CheckoutSession) {
	out.SessionID = s.ID
	out.Metadata = s.Metadata
	if s.PaymentIntent != nil {
		out.PaymentReference = s.PaymentIntent.ID
	}
}
