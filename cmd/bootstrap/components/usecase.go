package components

import (
	"log/slog"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/jwt"
	"mechanic-booking/internal/pkg/metrics"
	"mechanic-booking/internal/usecase"
	"mechanic-booking/internal/usecase/availability"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/usecase/queries"
	"mechanic-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewLedger,
		NewCheckoutBridge,
		func(b *commands.CheckoutBridge) commands.WebhookProcessor { return b },
		NewBookingCommands,
		NewOperatorCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		func(store queries.ReservationReadStore) queries.ReservationQueries {
			return queries.NewReservationQueries(store, shared.TopicReconciliationRequired)
		},
		func(
			reader availability.OverlapReader,
			checker *availability.Checker,
			cal *calendar.Calendar,
			engine *pricing.Engine,
			cfg config.Config,
		) queries.AvailabilityQueries {
			return queries.NewAvailabilityQueries(reader, checker, cal, engine.Catalog(), cfg.Pricing.Currency)
		},
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

type ledgerDeps struct {
	fx.In

	UoW      shared.UnitOfWork
	Calendar *calendar.Calendar
	Engine   *pricing.Engine
	Checker  *availability.Checker
	Factory  *reservation.Factory
	Clock    clock.Clock
	Config   config.Config
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func NewLedger(d ledgerDeps) *commands.Ledger {
	return commands.NewLedger(commands.LedgerParams{
		UoW:      d.UoW,
		Calendar: d.Calendar,
		Engine:   d.Engine,
		Checker:  d.Checker,
		Factory:  d.Factory,
		Clock:    d.Clock,
		Currency: d.Config.Pricing.Currency,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
	})
}

type bridgeDeps struct {
	fx.In

	UoW      shared.UnitOfWork
	Ledger   *commands.Ledger
	Engine   *pricing.Engine
	Gateway  commands.PaymentGateway
	Notifier commands.Notifier
	Deduper  commands.EventDeduper
	Clock    clock.Clock
	Config   config.Config
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func NewCheckoutBridge(d bridgeDeps) *commands.CheckoutBridge {
	return commands.NewCheckoutBridge(commands.CheckoutBridgeParams{
		UoW:            d.UoW,
		Ledger:         d.Ledger,
		Engine:         d.Engine,
		Gateway:        d.Gateway,
		Notifier:       d.Notifier,
		Deduper:        d.Deduper,
		Clock:          d.Clock,
		CheckoutMargin: d.Config.Booking.CheckoutMargin,
		Metrics:        d.Metrics,
		Logger:         d.Logger,
	})
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	ledger *commands.Ledger,
	bridge *commands.CheckoutBridge,
	engine *pricing.Engine,
	cal *calendar.Calendar,
	clk clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) commands.BookingCommands {
	return commands.NewBookingCommands(uow, ledger, bridge, engine, cal, clk, cfg.Booking.IdempotencyTTL, logger)
}

func NewOperatorCommands(
	ledger *commands.Ledger,
	notifier commands.Notifier,
	jwtService *jwt.Service,
	cfg config.Config,
	logger *slog.Logger,
) commands.OperatorCommands {
	creds := commands.OperatorCredentials{
		Username:     cfg.Operator.Username,
		PasswordHash: cfg.Operator.PasswordHash,
	}
	return commands.NewOperatorCommands(ledger, notifier, jwtService, creds, logger)
}
