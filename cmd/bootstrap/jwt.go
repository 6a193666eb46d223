package bootstrap

import (
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/jwt"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		NewJWTService,
	),
)

func NewJWTService(cfg config.Config, clk clock.Clock) *jwt.Service {
	if cfg.JWT.Duration <= 0 {
		panic("invalid JWT_DURATION: must be positive")
	}
	return jwt.NewService(cfg.JWT.Secret, cfg.JWT.Duration, clk)
}
