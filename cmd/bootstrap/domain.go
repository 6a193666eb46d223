package bootstrap

import (
	"time"

	"mechanic-booking/internal/domain/calendar"
	"mechanic-booking/internal/domain/pricing"
	"mechanic-booking/internal/domain/reservation"
	"mechanic-booking/internal/pkg/catalog"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/usecase/availability"

	"go.uber.org/fx"
)

var DomainModule = fx.Module("domain",
	fx.Provide(
		clock.NewRealClock,
		NewCalendar,
		func(cal *calendar.Calendar) *time.Location {
			return cal.Location()
		},
		NewCatalog,
		pricing.NewEngine,
		NewFactory,
		availability.NewChecker,
	),
)

func NewCalendar(cfg config.Config, clk clock.Clock) (*calendar.Calendar, error) {
	calCfg, err := cfg.Booking.CalendarConfig()
	if err != nil {
		return nil, err
	}
	return calendar.New(calCfg, clk)
}

func NewCatalog(cfg config.Config) (*pricing.Catalog, error) {
	return catalog.Load(cfg.Pricing)
}

func NewFactory(cfg config.Config, clk clock.Clock) *reservation.Factory {
	return reservation.NewFactory(clk, cfg.Booking.HoldWindow)
}
