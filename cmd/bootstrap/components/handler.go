package components

import (
	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/handler"
	"mechanic-booking/internal/handler/api"
	"mechanic-booking/internal/handler/middleware"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAvailabilityHandler,
		api.NewWebhookHandler,
		func(cmds commands.BookingCommands, q queries.ReservationQueries, cal *calendar.Calendar, cfg config.Config) *api.BookingHandler {
			return api.NewBookingHandler(cmds, q, cal, cfg.Pricing.Currency)
		},
		func(cmds commands.OperatorCommands, q queries.ReservationQueries, cal *calendar.Calendar, cfg config.Config) *api.OperatorHandler {
			return api.NewOperatorHandler(cmds, q, cal, cfg.Cookie)
		},
		middleware.NewAuthMiddleware,
		func(cfg config.Config) *middleware.RateLimiter {
			return middleware.NewRateLimiter(cfg.RateLimit)
		},
	),
	fx.Invoke(handler.NewRouter),
)
