//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StubSessions stands in for the Stripe Checkout Sessions API.
type StubSessions struct {
	mu       sync.Mutex
	seq      int
	sessions []*stripe.CheckoutSessionParams
	fail     bool
}

func NewStubSessions() *StubSessions {
	return &StubSessions{}
}

func (s *StubSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, &stripe.Error{HTTPStatusCode: 503, Msg: "stripe unavailable"}
	}
	s.seq++
	s.sessions = append(s.sessions, params)
	id := fmt.Sprintf("cs_e2e_%03d", s.seq)
	return &stripe.CheckoutSession{
		ID:        id,
		URL:       "https://checkout.stripe.test/" + id,
		ExpiresAt: *params.ExpiresAt,
	}, nil
}

// FailNext makes session creation fail until Reset.
func (s *StubSessions) FailNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = true
}

func (s *StubSessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Last returns the params of the most recent session.
func (s *StubSessions) Last() *stripe.CheckoutSessionParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	return s.sessions[len(s.sessions)-1]
}

func (s *StubSessions) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
	s.sessions = nil
	s.fail = false
}

// SignedEvent builds a checkout webhook signed with secret.
func SignedEvent(t *testing.T, secret, eventID, eventType, sessionID, paymentIntent string) ([]byte, string) {
	t.Helper()

	object := map[string]any{
		"id":             sessionID,
		"object":         "checkout.session",
		"payment_status": "paid",
	}
	if paymentIntent != "" {
		object["payment_intent"] = paymentIntent
	}
	if eventType == "checkout.session.expired" {
		object["payment_status"] = "unpaid"
		object["status"] = "expired"
	}
	payload, err := json.Marshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": object},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})
	return signed.Payload, signed.Header
}
