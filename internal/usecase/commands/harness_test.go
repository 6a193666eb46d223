//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/catalog"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/metrics"
	"mechanic-booking/internal/usecase/availability"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/tests/common/builder"
	"mechanic-booking/tests/common/fakestore"
	commandsmock "mechanic-booking/tests/mock/commands"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const holdWindow = 35 * time.Minute

type harness struct {
	store    *fakestore.Store
	clock    *clock.MockClock
	calendar *calendar.Calendar
	engine   *pricing.Engine
	metrics  *metrics.Metrics
	ledger   *commands.Ledger
	bridge   *commands.CheckoutBridge
	gateway  *commandsmock.MockPaymentGateway
	notifier *commandsmock.MockNotifier
	deduper  *commandsmock.MockEventDeduper
	logger   *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	clk := clock.NewMockClock(builder.BaseNow)
	cal, err := calendar.New(calendar.Config{
		Location:          builder.Sydney(),
		OpenTime:          calendar.ClockTime{Hour: 9},
		CloseTime:         calendar.ClockTime{Hour: 17},
		LastBookingTime:   calendar.ClockTime{Hour: 15, Minute: 30},
		JobDuration:       90 * time.Minute,
		Granularity:       30 * time.Minute,
		MaxBookingsPerDay: 4,
		HorizonDays:       60,
		WeekendPolicy:     "Weekend visits are by request.",
	}, clk)
	require.NoError(t, err)

	h := &harness{
		store:    fakestore.New(),
		clock:    clk,
		calendar: cal,
		engine:   pricing.NewEngine(catalog.Default()),
		metrics:  metrics.NewNop(),
		gateway:  commandsmock.NewMockPaymentGateway(ctrl),
		notifier: commandsmock.NewMockNotifier(ctrl),
		deduper:  commandsmock.NewMockEventDeduper(ctrl),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.ledger = commands.NewLedger(commands.LedgerParams{
		UoW:      h.store,
		Calendar: cal,
		Engine:   h.engine,
		Checker:  availability.NewChecker(cal, clk),
		Factory:  reservation.NewFactory(clk, holdWindow),
		Clock:    clk,
		Currency: "aud",
		Metrics:  h.metrics,
		Logger:   h.logger,
	})
	h.bridge = h.bridgeWith(h.deduper)
	return h
}

// bridgeWith builds a checkout bridge over the harness with a different deduper.
func (h *harness) bridgeWith(deduper commands.EventDeduper) *commands.CheckoutBridge {
	return commands.NewCheckoutBridge(commands.CheckoutBridgeParams{
		UoW:      h.store,
		Ledger:   h.ledger,
		Engine:   h.engine,
		Gateway:  h.gateway,
		Notifier: h.notifier,
		Deduper:  deduper,
		Clock:    h.clock,
		Metrics:  h.metrics,
		Logger:   h.logger,
	})
}

func (h *harness) seed(res *reservation.Reservation) *reservation.Reservation {
	h.store.Seed(res)
	return res
}

func (h *harness) reload(t *testing.T, res *reservation.Reservation) *reservation.Reservation {
	t.Helper()
	got, ok := h.store.Get(res.ID())
	require.True(t, ok, "reservation %s not stored", res.ID())
	return got
}

func (h *harness) expectSession(sessionID string) *gomock.Call {
	return h.gateway.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req commands.CheckoutRequest) (*commands.CheckoutSession, error) {
			return &commands.CheckoutSession{
				SessionID: sessionID,
				URL:       "https://checkout.stripe.test/" + sessionID,
				ExpiresAt: req.ExpiresAt,
			}, nil
		})
}
