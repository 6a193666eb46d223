package components

import (
	"context"
	"log/slog"

	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/usecase/commands"
	"mechanic-booking/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		func(ledger *commands.Ledger, clk clock.Clock, cfg config.Config, logger *slog.Logger) *worker.Sweeper {
			return worker.NewSweeper(ledger, clk, cfg.Sweeper.Interval, logger)
		},
	),
	fx.Invoke(startSweeper),
)

func startSweeper(lc fx.Lifecycle, sweeper *worker.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return sweeper.Stop(ctx)
		},
	})
}
